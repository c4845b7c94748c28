package dialogue

import (
	"context"
	"fmt"

	"github.com/m3rciful/coursebot/content"
)

// KV is the raw key/value contract of a session backend.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// SessionStore persists one state label per session.
type SessionStore interface {
	// Load returns found=false when the session has no stored label.
	Load(ctx context.Context, sessionID int64) (label string, found bool, err error)
	Save(ctx context.Context, sessionID int64, label string) error
}

// Transport performs outbound operations against the messaging platform.
type Transport interface {
	Execute(ctx context.Context, op Operation) error
}

// Content is the read-only course material consulted by the handlers.
type Content interface {
	Texts() content.Texts
	Labels() content.Labels
	Lessons() []content.Lesson
	LessonCount() int
	Lesson(id content.LessonID) (content.Lesson, bool)
	Mentors() []content.Mentor
	Mentor(id content.MentorID) (content.Mentor, bool)
}

// KeyedStore maps session ids onto keys of a KV backend.
type KeyedStore struct {
	kv     KV
	format string
}

// NewKeyedStore derives keys with fmt.Sprintf(keyFormat, sessionID).
func NewKeyedStore(kv KV, keyFormat string) *KeyedStore {
	return &KeyedStore{kv: kv, format: keyFormat}
}

// Key returns the backend key of a session.
func (s *KeyedStore) Key(sessionID int64) string {
	return fmt.Sprintf(s.format, sessionID)
}

// Load implements SessionStore.
func (s *KeyedStore) Load(ctx context.Context, sessionID int64) (string, bool, error) {
	return s.kv.Get(ctx, s.Key(sessionID))
}

// Save implements SessionStore.
func (s *KeyedStore) Save(ctx context.Context, sessionID int64, label string) error {
	return s.kv.Set(ctx, s.Key(sessionID), label)
}
