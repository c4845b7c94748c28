// Package callbacks decodes callback data attached to inline buttons.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Split decodes telebot's "\f<unique>|<payload>" encoding. Plain data
// (buttons created without a unique id) is returned whole as payload.
func Split(data string) (unique, payload string) {
	raw, ok := strings.CutPrefix(data, "\f")
	if !ok {
		return "", data
	}
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Key returns cb.Unique if telebot resolved it; otherwise parses it from Data.
func Key(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	k, _ := Split(cb.Data)
	return k
}

// Payload returns the callback payload with any unique prefix removed.
func Payload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Data
	}
	_, p := Split(cb.Data)
	return p
}
