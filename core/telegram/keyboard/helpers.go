// Package keyboard builds telebot reply markups.
package keyboard

import (
	"fmt"

	tele "gopkg.in/telebot.v4"
)

// MaxCallbackData is the Bot API limit for callback_data, in bytes.
const MaxCallbackData = 64

// InlineBtn describes a convenience wrapper for inline button properties.
// Unique may be empty, in which case Data is sent verbatim.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

// Validate checks the Bot API constraints the server would otherwise reject.
func Validate(rows ...[]InlineBtn) error {
	for i, row := range rows {
		for j, btn := range row {
			if btn.Text == "" {
				return fmt.Errorf("keyboard: row %d button %d: empty text", i, j)
			}
			size := len(btn.Data)
			if btn.Unique != "" {
				size += len(btn.Unique) + 2
			}
			if size == 0 || size > MaxCallbackData {
				return fmt.Errorf("keyboard: row %d button %d: callback data of %d bytes", i, j, size)
			}
		}
	}
	return nil
}
