// Package selection интерактивный выбор из списка вариантов в терминале.
// Неверный ввод повторяется ограниченное число раз, результат возвращается
// только после корректного выбора: до этого ничего не записывается.
package selection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// QuitInput ввод, прерывающий выбор
const QuitInput = "q"

// Option один вариант выбора
type Option struct {
	Label    string
	Value    string
	Disabled bool
	Reason   string // почему вариант недоступен, например "occupied"
}

// Terminal построчный ввод с ограниченным числом попыток
type Terminal struct {
	in          io.Reader
	out         io.Writer
	maxAttempts int

	once      sync.Once
	closeOnce sync.Once
	lines     chan string
	done      chan struct{}
	stopped   chan struct{}
	scanErr   error
}

// NewTerminal создает провайдер выбора поверх потоков ввода и вывода
func NewTerminal(in io.Reader, out io.Writer, maxAttempts int) *Terminal {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Terminal{
		in:          in,
		out:         out,
		maxAttempts: maxAttempts,
		lines:       make(chan string),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Close останавливает чтение ввода, последующие запросы завершаются ErrAborted
// Заблокированное чтение из in завершится вместе с потоком ввода
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	return nil
}

// Choose выводит варианты и возвращает выбранный
// Номер вне диапазона и недоступный вариант считаются неверной попыткой
func (t *Terminal) Choose(ctx context.Context, prompt string, options []Option) (Option, error) {
	if len(options) == 0 {
		return Option{}, ErrNoOptions
	}
	available := 0
	for _, o := range options {
		if !o.Disabled {
			available++
		}
	}
	if available == 0 {
		return Option{}, fmt.Errorf("%w: all %d options are unavailable", ErrNoOptions, len(options))
	}

	fmt.Fprintln(t.out, prompt)
	for i, o := range options {
		if o.Disabled {
			fmt.Fprintf(t.out, "  %d. %s (%s)\n", i+1, o.Label, reasonOrDefault(o.Reason))
			continue
		}
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, o.Label)
	}

	var chosen Option
	err := t.loop(ctx, fmt.Sprintf("Choose 1-%d (%s to quit): ", len(options), QuitInput), func(input string) error {
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(options) {
			return fmt.Errorf("please input a number between 1 and %d", len(options))
		}
		o := options[n-1]
		if o.Disabled {
			return fmt.Errorf("%s is %s, choose another option", o.Label, reasonOrDefault(o.Reason))
		}
		chosen = o
		return nil
	})
	if err != nil {
		return Option{}, err
	}
	return chosen, nil
}

// Ask запрашивает произвольную строку, validate отклоняет неверный ввод
func (t *Terminal) Ask(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	var answer string
	err := t.loop(ctx, prompt+" ", func(input string) error {
		if validate != nil {
			if err := validate(input); err != nil {
				return err
			}
		}
		answer = input
		return nil
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

// loop повторяет запрос, пока accept не примет ввод или не кончатся попытки
func (t *Terminal) loop(ctx context.Context, prompt string, accept func(string) error) error {
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		fmt.Fprint(t.out, prompt)

		input, err := t.readLine(ctx)
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if strings.EqualFold(input, QuitInput) {
			return ErrAborted
		}

		err = accept(input)
		if err == nil {
			return nil
		}
		fmt.Fprintf(t.out, "Invalid input: %v (attempt %d of %d)\n", err, attempt, t.maxAttempts)
	}
	return fmt.Errorf("%w: %d attempts", ErrTooManyAttempts, t.maxAttempts)
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return "", fmt.Errorf("%w: terminal is closed", ErrAborted)
	default:
	}

	t.once.Do(func() {
		go t.scan()
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
	case <-t.done:
		return "", fmt.Errorf("%w: terminal is closed", ErrAborted)
	case line, ok := <-t.lines:
		if !ok {
			if t.scanErr != nil {
				return "", fmt.Errorf("%w: read input: %v", ErrAborted, t.scanErr)
			}
			return "", fmt.Errorf("%w: end of input", ErrAborted)
		}
		return line, nil
	}
}

// scan читает ввод в отдельной горутине, чтобы ожидание строки можно было прервать контекстом
// Строка, которую никто не ждёт, отбрасывается после Close
func (t *Terminal) scan() {
	defer close(t.stopped)

	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		select {
		case t.lines <- scanner.Text():
		case <-t.done:
			return
		}
	}
	t.scanErr = scanner.Err()
	close(t.lines)
}

func reasonOrDefault(reason string) string {
	if reason == "" {
		return "unavailable"
	}
	return reason
}
