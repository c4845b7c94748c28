package dialogue

import "github.com/m3rciful/coursebot/content"

// Payload tokens carried by the inline buttons.
const (
	TokenAudience   = "audience"
	TokenProgram    = "program"
	TokenMentors    = "mentors"
	TokenGetCourse  = "get_course"
	TokenBackToMenu = "back_to_menu"

	// legacyTokenAudience is still attached to root menus rendered by earlier deployments.
	legacyTokenAudience = "symptoms"
)

// Decision is a handler's outcome: an optional operation and the next state.
type Decision struct {
	Op   *Operation
	Next State
}

// handlers hold the per-state decision functions. Menus are built once
// since content does not change while the process runs.
type handlers struct {
	content Content
	legacy  bool

	rootMenu    Menu
	audienceNav Menu
	programMenu Menu
	mentorsMenu Menu
	mentorNav   Menu
	paymentNav  Menu
}

func newHandlers(c Content, legacy bool) *handlers {
	l := c.Labels()
	h := &handlers{
		content: c,
		legacy:  legacy,
		rootMenu: Menu{
			{{Label: l.Audience, Payload: TokenAudience}},
			{{Label: l.Program, Payload: TokenProgram}},
			{{Label: l.Mentors, Payload: TokenMentors}},
			{{Label: l.Price, Payload: TokenGetCourse}},
		},
		audienceNav: Menu{{
			{Label: l.BackToMenu, Payload: TokenBackToMenu},
			{Label: l.ToProgram, Payload: TokenProgram},
		}},
		mentorNav:  Menu{{{Label: l.BackToMentors, Payload: TokenMentors}}},
		paymentNav: Menu{{{Label: l.BackToMenu, Payload: TokenBackToMenu}}},
	}

	for _, lesson := range c.Lessons() {
		h.programMenu = append(h.programMenu, []Button{{Label: lesson.Header, Payload: lesson.ID.Payload()}})
	}
	h.programMenu = append(h.programMenu, []Button{
		{Label: l.BackToMenu, Payload: TokenBackToMenu},
		{Label: l.AboutMentors, Payload: TokenMentors},
	})

	for _, mentor := range c.Mentors() {
		h.mentorsMenu = append(h.mentorsMenu, []Button{{Label: mentor.Name, Payload: mentor.ID.Payload()}})
	}
	h.mentorsMenu = append(h.mentorsMenu, []Button{{Label: l.BackToMenu, Payload: TokenBackToMenu}})
	return h
}

// decide dispatches on the current state. ok is false only for values
// outside the declared set.
func (h *handlers) decide(st State, ev Event) (d Decision, ok bool) {
	switch st {
	case StateInitial:
		return h.initial(ev), true
	case StateMenu:
		return h.menu(ev), true
	case StateAudience:
		return h.audience(ev), true
	case StateProgram:
		return h.program(ev), true
	case StateMentors:
		return h.mentors(ev), true
	case StatePayment:
		return h.payment(ev), true
	default:
		return Decision{}, false
	}
}

func stay(st State) Decision { return Decision{Next: st} }

// initial ignores the payload and always opens the root menu.
func (h *handlers) initial(ev Event) Decision {
	return Decision{Op: h.sendRoot(ev.ChatID), Next: StateMenu}
}

func (h *handlers) menu(ev Event) Decision {
	if ev.Kind != EventButton {
		return stay(StateMenu)
	}
	payload := ev.Payload
	if h.legacy && payload == legacyTokenAudience {
		payload = TokenAudience
	}
	switch payload {
	case TokenAudience:
		return Decision{Op: SendMessage(ev.ChatID, h.content.Texts().Audience, h.audienceNav), Next: StateAudience}
	case TokenProgram:
		return Decision{Op: h.sendProgram(ev.ChatID), Next: StateProgram}
	case TokenMentors:
		return Decision{Op: h.sendMentors(ev.ChatID), Next: StateMentors}
	case TokenGetCourse:
		return Decision{Op: SendMessage(ev.ChatID, h.content.Texts().Payment, h.paymentNav), Next: StatePayment}
	default:
		// Stale button from an older render: drop the message and start over.
		return Decision{Op: DeleteMessage(ev.ChatID, ev.MessageID), Next: StateInitial}
	}
}

func (h *handlers) audience(ev Event) Decision {
	switch ev.token() {
	case TokenBackToMenu:
		return Decision{Op: h.sendRoot(ev.ChatID), Next: StateMenu}
	case TokenProgram:
		return Decision{Op: h.sendProgram(ev.ChatID), Next: StateProgram}
	default:
		return stay(StateAudience)
	}
}

func (h *handlers) program(ev Event) Decision {
	switch tok := ev.token(); tok {
	case TokenBackToMenu:
		return Decision{Op: h.sendRoot(ev.ChatID), Next: StateMenu}
	case TokenMentors:
		return Decision{Op: h.sendMentors(ev.ChatID), Next: StateMentors}
	case TokenProgram:
		return Decision{Op: h.sendProgram(ev.ChatID), Next: StateProgram}
	default:
		id, ok := content.ParseLessonID(tok)
		if !ok {
			return stay(StateProgram)
		}
		lesson, ok := h.content.Lesson(id)
		if !ok {
			return stay(StateProgram)
		}
		return Decision{Op: SendMessage(ev.ChatID, lesson.Text(), h.lessonNav(id)), Next: StateProgram}
	}
}

func (h *handlers) mentors(ev Event) Decision {
	switch tok := ev.token(); tok {
	case TokenBackToMenu:
		return Decision{Op: h.sendRoot(ev.ChatID), Next: StateMenu}
	case TokenMentors:
		return Decision{Op: h.sendMentors(ev.ChatID), Next: StateMentors}
	default:
		id, ok := content.ParseMentorID(tok)
		if !ok {
			return stay(StateMentors)
		}
		mentor, ok := h.content.Mentor(id)
		if !ok {
			return stay(StateMentors)
		}
		return Decision{Op: SendMessage(ev.ChatID, mentor.Text(), h.mentorNav), Next: StateMentors}
	}
}

func (h *handlers) payment(ev Event) Decision {
	if ev.token() == TokenBackToMenu {
		return Decision{Op: h.sendRoot(ev.ChatID), Next: StateMenu}
	}
	return stay(StatePayment)
}

func (h *handlers) sendRoot(chatID int64) *Operation {
	return SendMessage(chatID, h.content.Texts().RootMenu, h.rootMenu)
}

func (h *handlers) sendProgram(chatID int64) *Operation {
	return SendMessage(chatID, h.content.Texts().Program, h.programMenu)
}

func (h *handlers) sendMentors(chatID int64) *Operation {
	return SendMessage(chatID, h.content.Texts().Mentors, h.mentorsMenu)
}

// lessonNav links to the neighbouring lessons by numeric id; the first
// lesson has no "previous" and the last has no "next".
func (h *handlers) lessonNav(id content.LessonID) Menu {
	l := h.content.Labels()
	var nav []Button
	if id > 1 {
		nav = append(nav, Button{Label: l.PrevLesson, Payload: (id - 1).Payload()})
	}
	if int(id) < h.content.LessonCount() {
		nav = append(nav, Button{Label: l.NextLesson, Payload: (id + 1).Payload()})
	}
	var menu Menu
	if len(nav) > 0 {
		menu = append(menu, nav)
	}
	return append(menu, []Button{{Label: l.BackToProgram, Payload: TokenProgram}})
}
