// Package inbox holds the in-memory message store and the pure logic
// derived from it: sender grouping, the thread index, and action scope
// computation. Nothing here performs I/O; the TUI drives it and the
// transport backends feed it.
package inbox

import (
	"log/slog"
	"strings"

	"github.com/zeroterm/zeroterm/internal/mail"
)

// Store is the in-memory collection of fetched messages for the active
// mailbox. Load replaces the whole set and Remove drops entries after a
// confirmed mutation succeeds; those are the only mutation paths.
// Derived views (groups, threads) must be recomputed after either.
type Store struct {
	msgs   []mail.Message
	byID   map[string]int
	logger *slog.Logger
}

// NewStore returns an empty store. A nil logger falls back to
// slog.Default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{byID: map[string]int{}, logger: logger}
}

// Load replaces the full message set, keeping the given order as the
// stable arrival order. Malformed sender addresses are logged but never
// rejected; they degrade to single-item groups downstream.
func (s *Store) Load(msgs []mail.Message) {
	s.msgs = make([]mail.Message, len(msgs))
	copy(s.msgs, msgs)
	s.reindex()

	for i := range s.msgs {
		if !strings.Contains(s.msgs[i].FromEmail, "@") {
			s.logger.Warn("malformed sender address",
				"id", s.msgs[i].ID,
				"from", s.msgs[i].From)
		}
	}
}

// Remove deletes the given ids, preserving the order of the remaining
// messages. Unknown ids are ignored.
func (s *Store) Remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.msgs[:0]
	for _, m := range s.msgs {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	s.msgs = kept
	s.reindex()
}

// All returns the current messages in stable arrival order. The slice
// is shared; callers must not mutate it.
func (s *Store) All() []mail.Message {
	return s.msgs
}

// Get looks a message up by id.
func (s *Store) Get(id string) (mail.Message, bool) {
	i, ok := s.byID[id]
	if !ok {
		return mail.Message{}, false
	}
	return s.msgs[i], true
}

// Len reports the number of messages in the store.
func (s *Store) Len() int {
	return len(s.msgs)
}

func (s *Store) reindex() {
	s.byID = make(map[string]int, len(s.msgs))
	for i := range s.msgs {
		s.byID[s.msgs[i].ID] = i
	}
}
