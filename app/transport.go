package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/m3rciful/coursebot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/coursebot/core/telegram/sender"
	"github.com/m3rciful/coursebot/dialogue"

	tele "gopkg.in/telebot.v4"
)

// botAPI is the part of *tele.Bot the transport uses.
type botAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Transport executes dialogue operations against the Bot API.
type Transport struct {
	bot        botAPI
	dispatcher *tgsender.Dispatcher
}

// NewTransport wraps bot; every call goes through dispatcher.
func NewTransport(bot botAPI, dispatcher *tgsender.Dispatcher) *Transport {
	return &Transport{bot: bot, dispatcher: dispatcher}
}

// Execute implements dialogue.Transport.
func (t *Transport) Execute(ctx context.Context, op dialogue.Operation) error {
	switch op.Kind {
	case dialogue.OpSendMessage:
		return t.send(ctx, op)
	case dialogue.OpDeleteMessage:
		return t.delete(ctx, op)
	default:
		return fmt.Errorf("transport: unsupported operation %s", op.Kind)
	}
}

func (t *Transport) send(ctx context.Context, op dialogue.Operation) error {
	opts := &tele.SendOptions{}
	if len(op.Menu) > 0 {
		rows := menuRows(op.Menu)
		if err := keyboard.Validate(rows...); err != nil {
			return err
		}
		opts.ReplyMarkup = keyboard.InlineButtonsRows(rows...)
	}
	chat := &tele.Chat{ID: op.ChatID}
	return t.dispatcher.Do(ctx, "send", "sendMessage", func() error {
		_, err := t.bot.Send(chat, op.Text, opts)
		return err
	})
}

func (t *Transport) delete(ctx context.Context, op dialogue.Operation) error {
	msg := tele.StoredMessage{MessageID: strconv.Itoa(op.MessageID), ChatID: op.ChatID}
	err := t.dispatcher.Do(ctx, "delete", "deleteMessage", func() error {
		return t.bot.Delete(msg)
	})
	// Already gone is the state we wanted.
	if errors.Is(err, tele.ErrNotFoundToDelete) {
		return nil
	}
	return err
}

// menuRows maps menu buttons to inline buttons carrying the bare payload,
// so telebot delivers every press to the OnCallback route.
func menuRows(menu dialogue.Menu) [][]keyboard.InlineBtn {
	rows := make([][]keyboard.InlineBtn, 0, len(menu))
	for _, row := range menu {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, Data: b.Payload})
		}
		rows = append(rows, r)
	}
	return rows
}
