package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if cat.LessonCount() != 5 {
		t.Fatalf("lesson count = %d, want 5", cat.LessonCount())
	}
	if got := len(cat.Mentors()); got != 2 {
		t.Fatalf("mentor count = %d, want 2", got)
	}
	if !strings.HasPrefix(cat.Texts().RootMenu, "Анатомия стыда и вины.") {
		t.Fatalf("unexpected root menu text %q", cat.Texts().RootMenu)
	}
	if !strings.Contains(cat.Texts().Payment, "https://kochet-psy.ru/anatomy_of_emotions") {
		t.Fatalf("payment text lacks purchase link: %q", cat.Texts().Payment)
	}
	for i, l := range cat.Lessons() {
		if int(l.ID) != i+1 {
			t.Fatalf("lesson %d has id %d", i, l.ID)
		}
	}
	m, ok := cat.Mentor(1)
	if !ok || m.Name != "Ольга Пичугина" {
		t.Fatalf("mentor_1 = %+v ok=%v", m, ok)
	}
	if !strings.HasPrefix(m.Text(), "Ольга Пичугина\n\nКлинический психолог") {
		t.Fatalf("mentor text = %q", m.Text())
	}
	if _, ok := cat.Lesson(6); ok {
		t.Fatalf("lesson_6 must not exist")
	}
	if _, ok := cat.Mentor(0); ok {
		t.Fatalf("mentor_0 must not exist")
	}
}

func TestParseIDs(t *testing.T) {
	cases := []struct {
		token string
		want  int
		ok    bool
	}{
		{"lesson_1", 1, true},
		{"lesson_12", 12, true},
		{"lesson_0", 0, false},
		{"lesson_01", 0, false},
		{"lesson_", 0, false},
		{"lesson_-1", 0, false},
		{"lesson_2a", 0, false},
		{"mentor_1", 0, false},
		{"program", 0, false},
	}
	for _, tc := range cases {
		id, ok := ParseLessonID(tc.token)
		if ok != tc.ok || (ok && int(id) != tc.want) {
			t.Fatalf("ParseLessonID(%q) = %d, %v; want %d, %v", tc.token, id, ok, tc.want, tc.ok)
		}
	}
	if id, ok := ParseMentorID("mentor_2"); !ok || id != 2 {
		t.Fatalf("ParseMentorID(mentor_2) = %d, %v", id, ok)
	}
	if LessonID(4).Payload() != "lesson_4" || MentorID(1).Payload() != "mentor_1" {
		t.Fatalf("unexpected payload rendering")
	}
}

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirOverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, lessonsFile, `{
		"lesson_2": {"header": "Two", "content": "second"},
		"lesson_1": {"header": "One", "content": "first"}
	}`)
	writeFile(t, dir, textsFile, "texts:\n  root_menu: Custom root\n")

	cat, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cat.LessonCount() != 2 {
		t.Fatalf("lesson count = %d", cat.LessonCount())
	}
	l, _ := cat.Lesson(1)
	if l.Text() != "One\nfirst" {
		t.Fatalf("lesson_1 text = %q", l.Text())
	}
	if cat.Texts().RootMenu != "Custom root" {
		t.Fatalf("root menu = %q", cat.Texts().RootMenu)
	}
	if cat.Texts().Program == "" || cat.Labels().BackToMenu != "В меню" {
		t.Fatalf("texts not overlaid on defaults: %+v", cat.Texts())
	}
	if len(cat.Mentors()) != 2 {
		t.Fatalf("mentors should fall back to defaults")
	}
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]struct {
		file string
		data string
		want string
	}{
		"gap in lessons": {
			file: lessonsFile,
			data: `{"lesson_1": {"header": "a"}, "lesson_3": {"header": "c"}}`,
			want: "dense",
		},
		"bad lesson key": {
			file: lessonsFile,
			data: `{"intro": {"header": "a"}}`,
			want: "invalid lesson id",
		},
		"empty header": {
			file: lessonsFile,
			data: `{"lesson_1": {"header": "  ", "content": "x"}}`,
			want: "empty header",
		},
		"no lessons": {
			file: lessonsFile,
			data: `{}`,
			want: "no lessons",
		},
		"bad mentors json": {
			file: mentorsFile,
			data: `[1, 2]`,
			want: mentorsFile,
		},
		"blank label": {
			file: textsFile,
			data: "labels:\n  back_to_menu: \"\"\n",
			want: "labels.back_to_menu",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tc.file, tc.data)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
