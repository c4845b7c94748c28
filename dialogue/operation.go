package dialogue

// Button is one inline button: visible label and the payload sent back on press.
type Button struct {
	Label   string
	Payload string
}

// Menu is an ordered list of button rows.
type Menu [][]Button

// OpKind tags the variant carried by an Operation.
type OpKind uint8

const (
	// OpSendMessage sends text with an optional inline menu.
	OpSendMessage OpKind = iota + 1
	// OpDeleteMessage deletes a previously sent message.
	OpDeleteMessage
)

func (k OpKind) String() string {
	switch k {
	case OpSendMessage:
		return "send"
	case OpDeleteMessage:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is one outbound action for the transport.
type Operation struct {
	Kind      OpKind
	ChatID    int64
	Text      string
	Menu      Menu
	MessageID int
}

// SendMessage describes a text message with menu.
func SendMessage(chatID int64, text string, menu Menu) *Operation {
	return &Operation{Kind: OpSendMessage, ChatID: chatID, Text: text, Menu: menu}
}

// DeleteMessage describes removal of message messageID in chatID.
func DeleteMessage(chatID int64, messageID int) *Operation {
	return &Operation{Kind: OpDeleteMessage, ChatID: chatID, MessageID: messageID}
}
