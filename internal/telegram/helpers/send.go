package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// ReplyHTML replies to the incoming message with HTML formatting.
func ReplyHTML(c tele.Context, text string) error {
	return c.Reply(text, &tele.SendOptions{ParseMode: tele.ModeHTML})
}
