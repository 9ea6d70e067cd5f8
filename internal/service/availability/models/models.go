package models

import "github.com/m04kA/SMC-TableBookingService/internal/domain"

// Opening свободный слот стола
type Opening struct {
	TableID  int64
	Capacity int
	Slot     domain.SlotKey
}

// HourState занятость часа стола
type HourState struct {
	Hour     int
	Occupied bool
}

// Candidate слот стола, подходящего по вместимости, вместе с его занятостью
type Candidate struct {
	TableID  int64
	Capacity int
	Slot     domain.SlotKey
	Occupied bool
}
