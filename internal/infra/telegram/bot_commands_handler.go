// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"recurring_ledger/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	cfg *config.AppConfig, // For AdminTelegramID
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == cfg.AdminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send("Hi " + c.Sender().FirstName + "! Recurring entries are booked every day. Use /help for the list of commands.")
		}

		logCtx.Info("User is unknown")
		return c.Send("This bot manages a private ledger and only answers its owner.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != cfg.AdminTelegramID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("No commands are available to you.")
		}

		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		helpText.WriteString("`/run`\n - Book due recurring entries and savings deposits, if today's run has not covered them yet.\n\n")
		helpText.WriteString("`/process_now`\n - Run the batch immediately, even if it already ran today.\n\n")
		helpText.WriteString("`/upcoming [days]`\n - Show occurrences due in the next days (default from configuration).\n\n")
		helpText.WriteString("`/reset`\n - Forget today's run so the next /run does a full pass.\n\n")
		helpText.WriteString("`/help`\n - Show this message.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
