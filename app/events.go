package app

import (
	"github.com/m3rciful/coursebot/core/telegram/callbacks"
	"github.com/m3rciful/coursebot/dialogue"

	tele "gopkg.in/telebot.v4"
)

// EventFrom converts an update into a dialogue event keyed by chat id.
// ok is false for updates the dialogue does not consume.
func EventFrom(c tele.Context) (ev dialogue.Event, ok bool) {
	chat := c.Chat()
	if chat == nil {
		return dialogue.Event{}, false
	}
	if cb := c.Callback(); cb != nil {
		messageID := 0
		if cb.Message != nil {
			messageID = cb.Message.ID
		}
		return dialogue.ButtonClick(chat.ID, messageID, callbacks.Payload(c)), true
	}
	if msg := c.Message(); msg != nil && msg.Text != "" {
		return dialogue.TextMessage(chat.ID, msg.Text), true
	}
	return dialogue.Event{}, false
}
