// Package commands describes slash commands exposed by a bot.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with the description shown in the Telegram menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
}
