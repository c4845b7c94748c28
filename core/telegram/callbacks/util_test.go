package callbacks

import "testing"

func TestSplit(t *testing.T) {
	cases := []struct {
		data, unique, payload string
	}{
		{"program", "", "program"},
		{"lesson_2", "", "lesson_2"},
		{"\fnav|lesson_2", "nav", "lesson_2"},
		{"\fnav", "nav", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		u, p := Split(tc.data)
		if u != tc.unique || p != tc.payload {
			t.Fatalf("Split(%q) = %q, %q; want %q, %q", tc.data, u, p, tc.unique, tc.payload)
		}
	}
}
