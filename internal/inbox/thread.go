package inbox

import "github.com/zeroterm/zeroterm/internal/mail"

// Thread is one conversation: its member messages in arrival order and
// the distinct sender addresses among them.
type Thread struct {
	ID       string
	Messages []mail.Message
	Senders  []string // distinct FromEmail values, first-seen order
}

// IDs returns the member message ids in arrival order.
func (t *Thread) IDs() []string {
	ids := make([]string, len(t.Messages))
	for i := range t.Messages {
		ids[i] = t.Messages[i].ID
	}
	return ids
}

// MultiParticipant reports whether the thread spans more than one
// distinct sender.
func (t *Thread) MultiParticipant() bool {
	return len(t.Senders) > 1
}

// ThreadIndex maps thread ids to threads and message ids to their
// thread. It is rebuilt from the full store on every mutation; there is
// no incremental update path to go stale.
type ThreadIndex struct {
	threads   map[string]*Thread
	byMessage map[string]string
	order     []string
}

// IndexThreads builds a fresh index over the given messages. Messages
// must already carry thread ids (mail.AssignThreads).
func IndexThreads(msgs []mail.Message) *ThreadIndex {
	idx := &ThreadIndex{
		threads:   make(map[string]*Thread),
		byMessage: make(map[string]string, len(msgs)),
	}
	for _, m := range msgs {
		t, ok := idx.threads[m.ThreadID]
		if !ok {
			t = &Thread{ID: m.ThreadID}
			idx.threads[m.ThreadID] = t
			idx.order = append(idx.order, m.ThreadID)
		}
		t.Messages = append(t.Messages, m)
		idx.byMessage[m.ID] = m.ThreadID
		seen := false
		for _, s := range t.Senders {
			if s == m.FromEmail {
				seen = true
				break
			}
		}
		if !seen {
			t.Senders = append(t.Senders, m.FromEmail)
		}
	}
	return idx
}

// Thread returns the thread with the given id.
func (idx *ThreadIndex) Thread(id string) (*Thread, bool) {
	t, ok := idx.threads[id]
	return t, ok
}

// ThreadOf returns the thread id a message belongs to.
func (idx *ThreadIndex) ThreadOf(messageID string) (string, bool) {
	id, ok := idx.byMessage[messageID]
	return id, ok
}

// IsMultiParticipant reports whether the thread has more than one
// distinct sender. Unknown threads report false.
func (idx *ThreadIndex) IsMultiParticipant(threadID string) bool {
	t, ok := idx.threads[threadID]
	return ok && t.MultiParticipant()
}

// IsMultiMessage reports whether the thread has more than one member.
func (idx *ThreadIndex) IsMultiMessage(threadID string) bool {
	t, ok := idx.threads[threadID]
	return ok && len(t.Messages) > 1
}

// ParticipantsOtherThan returns the thread's distinct senders excluding
// the acting one, in first-seen order.
func (idx *ThreadIndex) ParticipantsOtherThan(threadID, acting string) []string {
	t, ok := idx.threads[threadID]
	if !ok {
		return nil
	}
	var others []string
	for _, s := range t.Senders {
		if s != acting {
			others = append(others, s)
		}
	}
	return others
}

// Len reports the number of threads in the index.
func (idx *ThreadIndex) Len() int {
	return len(idx.threads)
}
