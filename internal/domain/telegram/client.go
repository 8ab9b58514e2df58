package telegram

import "gopkg.in/telebot.v3"

// Client sends outbound messages, such as batch run summaries, to a Telegram chat.
// Services depend on this rather than on *telebot.Bot so they can be tested without a bot.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
