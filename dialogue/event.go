package dialogue

// ResetCommand restarts the dialogue from any stored state.
const ResetCommand = "/start"

// EventKind tags the variant carried by an Event.
type EventKind uint8

const (
	// EventText is a plain text message or command.
	EventText EventKind = iota + 1
	// EventButton is an inline button press.
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is one inbound delivery: either a text message or a button click.
type Event struct {
	Kind   EventKind
	ChatID int64
	// Text is set for EventText.
	Text string
	// Payload and MessageID are set for EventButton. MessageID identifies
	// the message the pressed button was attached to.
	Payload   string
	MessageID int
}

// TextMessage builds a text event.
func TextMessage(chatID int64, text string) Event {
	return Event{Kind: EventText, ChatID: chatID, Text: text}
}

// ButtonClick builds a button event.
func ButtonClick(chatID int64, messageID int, payload string) Event {
	return Event{Kind: EventButton, ChatID: chatID, MessageID: messageID, Payload: payload}
}

// IsReset reports whether the event restarts the dialogue.
func (e Event) IsReset() bool {
	return e.Kind == EventText && e.Text == ResetCommand
}

// token is the value handlers match against.
func (e Event) token() string {
	if e.Kind == EventButton {
		return e.Payload
	}
	return ""
}
