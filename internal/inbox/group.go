package inbox

import "github.com/zeroterm/zeroterm/internal/mail"

// Mode selects how messages are keyed into sender groups.
type Mode int

const (
	ByAddress Mode = iota
	ByDomain
)

// String returns the config/display spelling of the mode.
func (m Mode) String() string {
	if m == ByDomain {
		return "domain"
	}
	return "address"
}

// Toggle flips between the two grouping modes.
func (m Mode) Toggle() Mode {
	if m == ByAddress {
		return ByDomain
	}
	return ByAddress
}

// ParseMode maps a config value to a Mode, defaulting to ByAddress for
// anything unrecognized.
func ParseMode(s string) Mode {
	if s == "domain" {
		return ByDomain
	}
	return ByAddress
}

// GroupKey returns the grouping key for a message under the given
// mode. Keys are already case-normalized by message construction.
func GroupKey(m mail.Message, mode Mode) string {
	if mode == ByDomain {
		return m.FromDomain
	}
	return m.FromEmail
}

// SenderGroup is a computed view: the subset of store messages sharing
// one grouping key, in arrival order. It is rebuilt from scratch after
// every store mutation or mode toggle, never patched in place.
type SenderGroup struct {
	Key      string
	Messages []mail.Message
}

// IDs returns the member message ids in arrival order.
func (g SenderGroup) IDs() []string {
	ids := make([]string, len(g.Messages))
	for i := range g.Messages {
		ids[i] = g.Messages[i].ID
	}
	return ids
}

// Count reports the number of member messages.
func (g SenderGroup) Count() int {
	return len(g.Messages)
}

// Group partitions messages into sender groups. Group order is the
// first-seen order of each key in the input, and members keep their
// input order, so an unchanged store always produces an identical
// group list.
func Group(msgs []mail.Message, mode Mode) []SenderGroup {
	var groups []SenderGroup
	index := make(map[string]int)
	for _, m := range msgs {
		key := GroupKey(m, mode)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SenderGroup{Key: key})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}

// FindGroup returns the group with the given key, if present.
func FindGroup(groups []SenderGroup, key string) (SenderGroup, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return SenderGroup{}, false
}
