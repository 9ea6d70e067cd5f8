package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TableBookingService/internal/app"
	"github.com/m04kA/SMC-TableBookingService/internal/config"
	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	"github.com/m04kA/SMC-TableBookingService/internal/selection"
	"github.com/m04kA/SMC-TableBookingService/pkg/logger"
)

// sunday 2026-10-18, первый вариант даты - воскресенье
var sunday = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newApp(t *testing.T) *app.App {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = ":memory:"

	a, err := app.New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func run(t *testing.T, a *app.App, input string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := New(a, strings.NewReader(input), &out)
	c.now = func() time.Time { return sunday }

	err := c.Run(context.Background(), args)
	require.NoError(t, c.Close())
	return out.String(), err
}

func TestCLI_TablesAndAvailability(t *testing.T) {
	a := newApp(t)

	out, err := run(t, a, "", "tables", "add", "-capacity", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Added table 1 with 4 seats")

	_, err = run(t, a, "", "tables", "add", "-capacity", "2")
	require.NoError(t, err)

	out, err = run(t, a, "", "tables", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CAPACITY")
	assert.Equal(t, 3, strings.Count(out, "\n"))

	out, err = run(t, a, "", "availability", "-capacity", "4", "-day", "monday")
	require.NoError(t, err)
	assert.Contains(t, out, "Monday_17")
	assert.NotContains(t, out, "\n2 ")

	out, err = run(t, a, "", "tables", "capacity", "-id", "2", "-capacity", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Table 2 now has 6 seats")

	out, err = run(t, a, "", "tables", "remove", "-id", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed table 2")
}

func TestCLI_BookMoveCancel(t *testing.T) {
	a := newApp(t)
	_, err := run(t, a, "", "tables", "add", "-capacity", "4")
	require.NoError(t, err)

	out, err := run(t, a, "", "book", "-name", "Ada", "-party", "4", "-table", "1", "-slot", "Monday_18")
	require.NoError(t, err)
	assert.Contains(t, out, "Reservation 1: Ada, party of 4, table 1 at Monday_18")

	out, err = run(t, a, "", "reservations", "move", "-id", "1", "-slot", "Tuesday_19")
	require.NoError(t, err)
	assert.Contains(t, out, "moved from table 1 at Monday_18 to table 1 at Tuesday_19")

	out, err = run(t, a, "", "reservations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Tuesday_19")
	assert.Contains(t, out, "relocated")

	out, err = run(t, a, "", "reservations", "cancel", "-id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "table 1 at Tuesday_19 is free")

	out, err = run(t, a, "", "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Consistent: 1 tables, 0 reservations")
}

func TestCLI_InteractiveBooking(t *testing.T) {
	a := newApp(t)
	_, err := run(t, a, "", "tables", "add", "-capacity", "4")
	require.NoError(t, err)

	// Имя, слишком большая компания, затем 2, воскресенье, 17:00
	out, err := run(t, a, "Ada\n12\n2\n1\n1\n", "book")
	require.NoError(t, err)
	assert.Contains(t, out, "Reservation 1: Ada, party of 2, table 1 at Sunday_17")

	// 17:00 уже занят, выбор повторяется и берется 18:00
	out, err = run(t, a, "Bob\n3\n1\n1\n2\n", "book")
	require.NoError(t, err)
	assert.Contains(t, out, "(occupied)")
	assert.Contains(t, out, "Reservation 2: Bob, party of 3, table 1 at Sunday_18")
}

func TestCLI_InteractiveBookingAbortWritesNothing(t *testing.T) {
	a := newApp(t)
	_, err := run(t, a, "", "tables", "add", "-capacity", "4")
	require.NoError(t, err)

	_, err = run(t, a, "Ada\n2\nq\n", "book")
	require.ErrorIs(t, err, selection.ErrAborted)
	assert.Equal(t, ExitAborted, ExitCode(err))
	assert.Equal(t, "cancelled, nothing was saved", Message(err))

	list, err := a.Reservations.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCLI_ClosedInputAbortsInteractiveBooking(t *testing.T) {
	a := newApp(t)
	_, err := run(t, a, "", "tables", "add", "-capacity", "4")
	require.NoError(t, err)

	var out bytes.Buffer
	c := New(a, strings.NewReader("Ada\n"), &out)
	require.NoError(t, c.Close())

	err = c.Run(context.Background(), []string{"book"})
	require.ErrorIs(t, err, selection.ErrAborted)
	assert.Equal(t, ExitAborted, ExitCode(err))
}

func TestCLI_ErrorsMapToExitCodes(t *testing.T) {
	a := newApp(t)
	_, err := run(t, a, "", "tables", "add", "-capacity", "4")
	require.NoError(t, err)
	_, err = run(t, a, "", "book", "-name", "Ada", "-party", "2", "-table", "1", "-slot", "Friday_20")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "no command", args: nil, code: ExitUsage},
		{name: "unknown command", args: []string{"dance"}, code: ExitUsage},
		{name: "bad flag", args: []string{"tables", "add", "-seats", "4"}, code: ExitUsage},
		{name: "party over capacity", args: []string{"book", "-name", "Bo", "-party", "5", "-table", "1", "-slot", "Monday_18"}, code: ExitRejected},
		{name: "malformed slot", args: []string{"book", "-name", "Bo", "-party", "2", "-table", "1", "-slot", "Monday_9"}, code: ExitRejected},
		{name: "occupied slot", args: []string{"book", "-name", "Bo", "-party", "2", "-table", "1", "-slot", "Friday_20"}, code: ExitConflict},
		{name: "unknown table", args: []string{"book", "-name", "Bo", "-party", "2", "-table", "9", "-slot", "Monday_18"}, code: ExitNotFound},
		{name: "unknown reservation", args: []string{"reservations", "cancel", "-id", "42"}, code: ExitNotFound},
		{name: "table in use", args: []string{"tables", "remove", "-id", "1"}, code: ExitConflict},
		{name: "move without target", args: []string{"reservations", "move", "-id", "1"}, code: ExitRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, a, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, ExitCode(err), err.Error())
		})
	}
}

func TestMessage_PartialCommit(t *testing.T) {
	pc := domain.NewPartialCommitError("cancel", 3, "delete reservation", errors.New("disk full"))

	msg := Message(fmt.Errorf("wrapped: %w", pc))
	assert.Contains(t, msg, "reconcile -repair")
	assert.Contains(t, msg, pc.IncidentID)
	assert.Equal(t, ExitPartialCommit, ExitCode(pc))

	pc.RolledBack = true
	assert.Contains(t, Message(pc), "rolled back")
}
