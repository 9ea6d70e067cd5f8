// Package cli команды терминального интерфейса поверх собранного приложения
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/app"
	"github.com/m04kA/SMC-TableBookingService/internal/selection"
)

const usage = `Usage: tablebooking [-config path] <command> [args]

Commands:
  migrate                                   create the schema
  tables add -capacity N                    add a table with a free calendar
  tables list                               list tables
  tables capacity -id N -capacity N         change table capacity
  tables remove -id N                       remove a table without reservations
  availability -capacity N -day Weekday     free slots of tables with exactly N seats
  book [-name S -party N -table N -slot K]  book a slot, prompts for missing values
  reservations list [-table N]              list reservations
  reservations move -id N [-slot K] [-table N]
  reservations cancel -id N
  reconcile [-repair] [-every]              compare calendars with reservations
`

// PrintUsage выводит список команд
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// CLI исполнитель команд
type CLI struct {
	app      *app.App
	out      io.Writer
	selector Selector
	now      func() time.Time
}

// Selector провайдер интерактивного выбора
type Selector interface {
	Choose(ctx context.Context, prompt string, options []selection.Option) (selection.Option, error)
	Ask(ctx context.Context, prompt string, validate func(string) error) (string, error)
}

// New создает CLI. Ввод нужен только интерактивным командам
func New(a *app.App, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		app:      a,
		out:      out,
		selector: selection.NewTerminal(in, out, a.Config.Selection.MaxAttempts),
		now:      time.Now,
	}
}

// Close останавливает чтение ввода интерактивных команд
func (c *CLI) Close() error {
	if closer, ok := c.selector.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run выполняет команду из аргументов
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		PrintUsage(c.out)
		return fmt.Errorf("%w: command is required", ErrUsage)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "migrate":
		return c.migrate(ctx)
	case "tables":
		return c.tables(ctx, rest)
	case "availability":
		return c.availability(ctx, rest)
	case "book":
		return c.book(ctx, rest)
	case "reservations":
		return c.reservations(ctx, rest)
	case "reconcile":
		return c.reconcile(ctx, rest)
	case "help", "-h", "--help":
		PrintUsage(c.out)
		return nil
	default:
		PrintUsage(c.out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func (c *CLI) migrate(ctx context.Context) error {
	if err := c.app.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Schema is up to date")
	return nil
}

// newFlagSet набор флагов подкоманды, ошибки разбора возвращаются как ErrUsage
func (c *CLI) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *CLI) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return fmt.Errorf("%w: %s", ErrUsage, fs.Name())
		}
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", ErrUsage, fs.Name(), fs.Args())
	}
	return nil
}

func (c *CLI) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func subcommand(name string, args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: %s requires a subcommand", ErrUsage, name)
	}
	return args[0], args[1:], nil
}
