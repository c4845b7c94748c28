// Package content holds the read-only course texts and the lesson and mentor catalogs.
// A Catalog is loaded once at startup and shared by all sessions.
package content

import (
	"strconv"
	"strings"
)

const (
	lessonPrefix = "lesson_"
	mentorPrefix = "mentor_"
)

// LessonID is the 1-based position of a lesson in the program.
type LessonID int

// Payload returns the button token for the lesson, e.g. "lesson_3".
func (id LessonID) Payload() string { return lessonPrefix + strconv.Itoa(int(id)) }

// ParseLessonID parses a "lesson_N" token.
func ParseLessonID(token string) (LessonID, bool) {
	n, ok := parseIndex(token, lessonPrefix)
	return LessonID(n), ok
}

// MentorID is the 1-based position of a mentor in the mentor list.
type MentorID int

// Payload returns the button token for the mentor, e.g. "mentor_2".
func (id MentorID) Payload() string { return mentorPrefix + strconv.Itoa(int(id)) }

// ParseMentorID parses a "mentor_N" token.
func ParseMentorID(token string) (MentorID, bool) {
	n, ok := parseIndex(token, mentorPrefix)
	return MentorID(n), ok
}

func parseIndex(token, prefix string) (int, bool) {
	digits, ok := strings.CutPrefix(token, prefix)
	if !ok || digits == "" || digits[0] == '0' {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Lesson is one program entry.
type Lesson struct {
	ID     LessonID
	Header string
	Body   string
}

// Text is the message shown for the lesson page.
func (l Lesson) Text() string { return l.Header + "\n" + l.Body }

// Mentor is one course instructor.
type Mentor struct {
	ID   MentorID
	Name string
	Bio  string
}

// Text is the message shown for the mentor page.
func (m Mentor) Text() string { return m.Name + "\n\n" + m.Bio }

// Texts are the message bodies of the fixed screens.
type Texts struct {
	RootMenu string `yaml:"root_menu"`
	Audience string `yaml:"audience"`
	Program  string `yaml:"program"`
	Mentors  string `yaml:"mentors"`
	Payment  string `yaml:"payment"`
}

// Labels are the captions of the fixed buttons.
type Labels struct {
	Audience      string `yaml:"audience"`
	Program       string `yaml:"program"`
	Mentors       string `yaml:"mentors"`
	Price         string `yaml:"price"`
	BackToMenu    string `yaml:"back_to_menu"`
	ToProgram     string `yaml:"to_program"`
	AboutMentors  string `yaml:"about_mentors"`
	PrevLesson    string `yaml:"prev_lesson"`
	NextLesson    string `yaml:"next_lesson"`
	BackToProgram string `yaml:"back_to_program"`
	BackToMentors string `yaml:"back_to_mentors"`
}

// Catalog is the immutable content set. It is safe for concurrent use.
type Catalog struct {
	texts   Texts
	labels  Labels
	lessons []Lesson
	mentors []Mentor
}

// Texts returns the screen texts.
func (c *Catalog) Texts() Texts { return c.texts }

// Labels returns the button captions.
func (c *Catalog) Labels() Labels { return c.labels }

// Lessons returns the lessons ordered by id.
func (c *Catalog) Lessons() []Lesson { return append([]Lesson(nil), c.lessons...) }

// Mentors returns the mentors ordered by id.
func (c *Catalog) Mentors() []Mentor { return append([]Mentor(nil), c.mentors...) }

// LessonCount is the number of lessons; ids run from 1 to LessonCount.
func (c *Catalog) LessonCount() int { return len(c.lessons) }

// Lesson looks up a lesson by id.
func (c *Catalog) Lesson(id LessonID) (Lesson, bool) {
	if id < 1 || int(id) > len(c.lessons) {
		return Lesson{}, false
	}
	return c.lessons[id-1], true
}

// Mentor looks up a mentor by id.
func (c *Catalog) Mentor(id MentorID) (Mentor, bool) {
	if id < 1 || int(id) > len(c.mentors) {
		return Mentor{}, false
	}
	return c.mentors[id-1], true
}
