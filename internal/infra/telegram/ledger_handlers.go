package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"recurring_ledger/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	commandTimeout  = 2 * time.Minute
	maxUpcomingDays = 366
	msgUnauthorized = "Error: you are not allowed to run this command."
)

type ledgerHandlers struct {
	ctx             context.Context
	service         app.RecurringService
	ownerID         string
	adminTelegramID int64
	upcomingDays    int
	logger          *logrus.Entry
}

// RegisterLedgerHandlers registers the batch and projection commands. Only the admin
// may use them; everyone else gets an error reply.
func RegisterLedgerHandlers(
	ctx context.Context,
	b *telebot.Bot,
	service app.RecurringService,
	ownerID string,
	adminTelegramID int64,
	upcomingDays int,
	baseLogger *logrus.Entry,
) {
	h := &ledgerHandlers{
		ctx:             ctx,
		service:         service,
		ownerID:         ownerID,
		adminTelegramID: adminTelegramID,
		upcomingDays:    upcomingDays,
		logger:          baseLogger.WithField("handler_group", "ledger"),
	}
	b.Handle("/run", h.handleRun)
	b.Handle("/process_now", h.handleProcessNow)
	b.Handle("/upcoming", h.handleUpcoming)
	b.Handle("/reset", h.handleReset)
}

func (h *ledgerHandlers) commandLogger(c telebot.Context, command string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
}

// handleRun runs the batch unless today's run already covered everything.
func (h *ledgerHandlers) handleRun(c telebot.Context) error {
	return h.runBatch(c, "/run", false)
}

// handleProcessNow runs the batch regardless of the run marker.
func (h *ledgerHandlers) handleProcessNow(c telebot.Context) error {
	return h.runBatch(c, "/process_now", true)
}

func (h *ledgerHandlers) runBatch(c telebot.Context, command string, force bool) error {
	handlerLogger := h.commandLogger(c, command)
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send(msgUnauthorized)
	}

	ctx, cancel := context.WithTimeout(h.ctx, commandTimeout)
	defer cancel()

	result, err := h.service.RunBatch(ctx, h.ownerID, force)
	switch {
	case errors.Is(err, app.ErrBatchAlreadyRunning):
		handlerLogger.Info("Batch already running")
		return c.Send("A batch run is already in progress. Try again in a moment.")
	case err != nil:
		handlerLogger.WithError(err).Error("Batch run failed")
	case result.RunSkipped:
		return c.Send("Everything is up to date for today. Use /process_now to run anyway.")
	default:
		handlerLogger.WithField("created", result.TotalCreated).Info("Batch run finished")
	}
	return c.Send(FormatBatchResult(result, err))
}

func (h *ledgerHandlers) handleUpcoming(c telebot.Context) error {
	handlerLogger := h.commandLogger(c, "/upcoming")
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send(msgUnauthorized)
	}

	args := c.Args()
	// Expected format: /upcoming [days]
	if len(args) > 1 {
		return c.Send("Invalid command format. Use: /upcoming [days]")
	}
	days := h.upcomingDays
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n > maxUpcomingDays {
			handlerLogger.WithField("arg", args[0]).Warn("Invalid days argument")
			return c.Send(fmt.Sprintf("Error: days must be a number between 0 and %d.", maxUpcomingDays))
		}
		days = n
	}

	upcoming, err := h.service.ListUpcoming(h.ctx, h.ownerID, days)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to list upcoming occurrences")
		return c.Send(fmt.Sprintf("Could not list upcoming occurrences: %s", err.Error()))
	}
	return c.Send(FormatUpcoming(upcoming, days))
}

func (h *ledgerHandlers) handleReset(c telebot.Context) error {
	handlerLogger := h.commandLogger(c, "/reset")
	handlerLogger.Info("Command received")

	if c.Sender().ID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return c.Send(msgUnauthorized)
	}

	if err := h.service.ResetRunMarker(h.ctx, h.ownerID); err != nil {
		handlerLogger.WithError(err).Error("Failed to reset run marker")
		return c.Send(fmt.Sprintf("Could not reset the run marker: %s", err.Error()))
	}
	return c.Send("Run marker cleared. The next /run will do a full pass.")
}
