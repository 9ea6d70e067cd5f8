package txmanager

import "errors"

var (
	// ErrBegin не удалось начать транзакцию
	ErrBegin = errors.New("txmanager: failed to begin transaction")

	// ErrCommit не удалось зафиксировать транзакцию
	ErrCommit = errors.New("txmanager: failed to commit transaction")

	// ErrRollback не удалось откатить транзакцию, записи могли остаться
	ErrRollback = errors.New("txmanager: failed to rollback transaction")
)
