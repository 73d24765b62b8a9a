package mail

import "strings"

// AssignThreads derives a ThreadID for every message from the
// Message-ID, In-Reply-To, and References headers. Messages whose
// headers connect them (directly or transitively) end up in the same
// thread; a message with no usable headers forms a thread of its own.
//
// The thread id is the canonical Message-ID of the earliest-seen
// member, so ids are deterministic for a given input order.
func AssignThreads(msgs []Message) {
	parent := make(map[string]string)

	var find func(string) string
	find = func(k string) string {
		p, ok := parent[k]
		if !ok {
			parent[k] = k
			return k
		}
		if p == k {
			return k
		}
		root := find(p)
		parent[k] = root
		return root
	}

	// Union keeps the earlier-registered root so thread ids follow
	// first-seen order.
	order := make(map[string]int)
	register := func(k string) {
		if _, ok := order[k]; !ok {
			order[k] = len(order)
		}
		find(k)
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if order[ra] <= order[rb] {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	keyOf := func(m *Message) string {
		if id := normalizeMessageID(m.MessageID); id != "" {
			return id
		}
		// No Message-ID header: fall back to the opaque id so the
		// message still lands in exactly one thread.
		return "msg:" + m.ID
	}

	for i := range msgs {
		m := &msgs[i]
		self := keyOf(m)
		register(self)
		for _, ref := range m.References {
			if r := normalizeMessageID(ref); r != "" {
				register(r)
				union(self, r)
			}
		}
		if r := normalizeMessageID(m.InReplyTo); r != "" {
			register(r)
			union(self, r)
		}
	}

	for i := range msgs {
		msgs[i].ThreadID = find(keyOf(&msgs[i]))
	}
}

// normalizeMessageID strips whitespace and the surrounding angle
// brackets from a Message-ID-style header value.
func normalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return id
}

// ParseReferences splits a raw References header into individual
// message ids. Ids are angle-bracket delimited and may be separated by
// arbitrary whitespace, including folded lines.
func ParseReferences(header string) []string {
	var refs []string
	for {
		start := strings.IndexByte(header, '<')
		if start < 0 {
			break
		}
		end := strings.IndexByte(header[start:], '>')
		if end < 0 {
			break
		}
		refs = append(refs, header[start:start+end+1])
		header = header[start+end+1:]
	}
	return refs
}
