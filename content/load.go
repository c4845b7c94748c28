package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/coursebot/core/logger"
)

const (
	textsFile   = "texts.yaml"
	lessonsFile = "lessons.json"
	mentorsFile = "mentors.json"
)

//go:embed default/*
var embedded embed.FS

type textsDoc struct {
	Texts  Texts  `yaml:"texts"`
	Labels Labels `yaml:"labels"`
}

type lessonDoc struct {
	Header  string `json:"header"`
	Content string `json:"content"`
}

type mentorDoc struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// Default returns the catalog built from the embedded content.
func Default() (*Catalog, error) {
	return Load("")
}

// Load builds a catalog from dir. Files missing from dir fall back to the
// embedded defaults; texts.yaml in dir overlays the default texts key by key.
// An empty dir loads the embedded content only.
func Load(dir string) (*Catalog, error) {
	start := time.Now()
	base, err := fs.Sub(embedded, "default")
	if err != nil {
		return nil, fmt.Errorf("content: embedded defaults: %w", err)
	}

	var override fs.FS
	if dir = strings.TrimSpace(dir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("content: %s is not a directory", dir)
		}
		override = os.DirFS(dir)
	}

	cat, err := build(base, override)
	if err != nil {
		logger.Content.Error("content load failed",
			slog.String("event", "content.load"),
			slog.String("status", "fail"),
			slog.String("path", dir),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	source := "embedded"
	if override != nil {
		source = dir
	}
	logger.Content.Info("content loaded",
		slog.String("event", "content.load"),
		slog.String("status", "ok"),
		slog.String("path", source),
		slog.Int("lessons", len(cat.lessons)),
		slog.Int("mentors", len(cat.mentors)),
		slog.Duration("duration", logger.Took(start)),
	)
	return cat, nil
}

func build(base, override fs.FS) (*Catalog, error) {
	var doc textsDoc
	data, err := fs.ReadFile(base, textsFile)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", textsFile, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("content: %s: %w", textsFile, err)
	}
	if data, ok, err := readOptional(override, textsFile); err != nil {
		return nil, err
	} else if ok {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("content: %s: %w", textsFile, err)
		}
	}

	lessonsData, err := readPreferred(base, override, lessonsFile)
	if err != nil {
		return nil, err
	}
	lessons, err := parseLessons(lessonsData)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", lessonsFile, err)
	}

	mentorsData, err := readPreferred(base, override, mentorsFile)
	if err != nil {
		return nil, err
	}
	mentors, err := parseMentors(mentorsData)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", mentorsFile, err)
	}

	cat := &Catalog{
		texts:   trimTexts(doc.Texts),
		labels:  trimLabels(doc.Labels),
		lessons: lessons,
		mentors: mentors,
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	return cat, nil
}

func readOptional(fsys fs.FS, name string) ([]byte, bool, error) {
	if fsys == nil {
		return nil, false, nil
	}
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("content: %s: %w", name, err)
	}
	return data, true, nil
}

func readPreferred(base, override fs.FS, name string) ([]byte, error) {
	data, ok, err := readOptional(override, name)
	if err != nil || ok {
		return data, err
	}
	data, err = fs.ReadFile(base, name)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", name, err)
	}
	return data, nil
}

func parseLessons(data []byte) ([]Lesson, error) {
	var raw map[string]lessonDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	lessons := make([]Lesson, 0, len(raw))
	for key, doc := range raw {
		id, ok := ParseLessonID(key)
		if !ok {
			return nil, fmt.Errorf("invalid lesson id %q", key)
		}
		lessons = append(lessons, Lesson{
			ID:     id,
			Header: strings.TrimSpace(doc.Header),
			Body:   strings.TrimSpace(doc.Content),
		})
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].ID < lessons[j].ID })
	for i, l := range lessons {
		if int(l.ID) != i+1 {
			return nil, fmt.Errorf("lesson ids must be dense from %s, missing %s", LessonID(1).Payload(), LessonID(i+1).Payload())
		}
		if l.Header == "" {
			return nil, fmt.Errorf("%s: empty header", l.ID.Payload())
		}
	}
	return lessons, nil
}

func parseMentors(data []byte) ([]Mentor, error) {
	var raw map[string]mentorDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	mentors := make([]Mentor, 0, len(raw))
	for key, doc := range raw {
		id, ok := ParseMentorID(key)
		if !ok {
			return nil, fmt.Errorf("invalid mentor id %q", key)
		}
		mentors = append(mentors, Mentor{
			ID:   id,
			Name: strings.TrimSpace(doc.Name),
			Bio:  strings.TrimSpace(doc.Bio),
		})
	}
	sort.Slice(mentors, func(i, j int) bool { return mentors[i].ID < mentors[j].ID })
	for i, m := range mentors {
		if int(m.ID) != i+1 {
			return nil, fmt.Errorf("mentor ids must be dense from %s, missing %s", MentorID(1).Payload(), MentorID(i+1).Payload())
		}
		if m.Name == "" {
			return nil, fmt.Errorf("%s: empty name", m.ID.Payload())
		}
	}
	return mentors, nil
}

func (c *Catalog) validate() error {
	if len(c.lessons) == 0 {
		return errors.New("no lessons")
	}
	if len(c.mentors) == 0 {
		return errors.New("no mentors")
	}
	var missing []string
	check := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check("texts.root_menu", c.texts.RootMenu)
	check("texts.audience", c.texts.Audience)
	check("texts.program", c.texts.Program)
	check("texts.mentors", c.texts.Mentors)
	check("texts.payment", c.texts.Payment)
	check("labels.audience", c.labels.Audience)
	check("labels.program", c.labels.Program)
	check("labels.mentors", c.labels.Mentors)
	check("labels.price", c.labels.Price)
	check("labels.back_to_menu", c.labels.BackToMenu)
	check("labels.to_program", c.labels.ToProgram)
	check("labels.about_mentors", c.labels.AboutMentors)
	check("labels.prev_lesson", c.labels.PrevLesson)
	check("labels.next_lesson", c.labels.NextLesson)
	check("labels.back_to_program", c.labels.BackToProgram)
	check("labels.back_to_mentors", c.labels.BackToMentors)
	if len(missing) > 0 {
		return fmt.Errorf("empty values: %s", strings.Join(missing, ", "))
	}
	return nil
}

func trimTexts(t Texts) Texts {
	return Texts{
		RootMenu: strings.TrimSpace(t.RootMenu),
		Audience: strings.TrimSpace(t.Audience),
		Program:  strings.TrimSpace(t.Program),
		Mentors:  strings.TrimSpace(t.Mentors),
		Payment:  strings.TrimSpace(t.Payment),
	}
}

func trimLabels(l Labels) Labels {
	return Labels{
		Audience:      strings.TrimSpace(l.Audience),
		Program:       strings.TrimSpace(l.Program),
		Mentors:       strings.TrimSpace(l.Mentors),
		Price:         strings.TrimSpace(l.Price),
		BackToMenu:    strings.TrimSpace(l.BackToMenu),
		ToProgram:     strings.TrimSpace(l.ToProgram),
		AboutMentors:  strings.TrimSpace(l.AboutMentors),
		PrevLesson:    strings.TrimSpace(l.PrevLesson),
		NextLesson:    strings.TrimSpace(l.NextLesson),
		BackToProgram: strings.TrimSpace(l.BackToProgram),
		BackToMentors: strings.TrimSpace(l.BackToMentors),
	}
}
