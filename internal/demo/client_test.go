package demo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zeroterm/zeroterm/internal/mailops"
)

func TestMessagesDataset(t *testing.T) {
	msgs := Messages()
	if len(msgs) < 15 {
		t.Fatalf("dataset has %d messages, want at least 15", len(msgs))
	}

	ids := make(map[string]bool)
	domains := make(map[string]bool)
	threads := make(map[string]int)
	for _, m := range msgs {
		if ids[m.ID] {
			t.Errorf("duplicate id %s", m.ID)
		}
		ids[m.ID] = true
		domains[m.FromDomain] = true
		if m.ThreadID == "" {
			t.Errorf("message %s has no thread id", m.ID)
		}
		threads[m.ThreadID]++
	}

	if len(domains) < 5 {
		t.Errorf("dataset spans %d domains, want at least 5", len(domains))
	}

	multi := 0
	for _, n := range threads {
		if n > 1 {
			multi++
		}
	}
	if multi < 2 {
		t.Errorf("dataset has %d multi-message threads, want at least 2", multi)
	}
}

func TestMessagesDeterministicThreads(t *testing.T) {
	a, b := Messages(), Messages()
	var aThreads, bThreads []string
	for i := range a {
		aThreads = append(aThreads, a[i].ThreadID)
		bThreads = append(bThreads, b[i].ThreadID)
	}
	if diff := cmp.Diff(aThreads, bThreads); diff != "" {
		t.Errorf("thread ids differ between builds (-first +second):\n%s", diff)
	}
}

func TestClientFetchStableOrder(t *testing.T) {
	c := NewClient()
	first, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	second, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("fetch order unstable (-first +second):\n%s", diff)
	}
}

func TestClientArchiveRemovesFromFetch(t *testing.T) {
	c := NewClient()
	if err := c.Archive(context.Background(), []string{"demo_1", "demo_2"}); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	msgs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	for _, m := range msgs {
		if m.ID == "demo_1" || m.ID == "demo_2" {
			t.Errorf("archived message %s still fetched", m.ID)
		}
	}
}

func TestClientUndoRestoresOriginalPosition(t *testing.T) {
	c := NewClient()
	before, _ := c.Fetch(context.Background())

	if err := c.Delete(context.Background(), []string{"demo_3"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Undelete(context.Background(), []string{"demo_3"}); err != nil {
		t.Fatalf("Undelete: %v", err)
	}

	after, _ := c.Fetch(context.Background())
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("delete+undelete not an identity (-before +after):\n%s", diff)
	}
}

func TestClientPartialFailure(t *testing.T) {
	c := NewClient(WithFailingIDs("demo_2"))
	err := c.Archive(context.Background(), []string{"demo_1", "demo_2"})

	var pf *mailops.PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("err = %v, want PartialFailure", err)
	}
	if diff := cmp.Diff([]string{"demo_1"}, pf.Succeeded); diff != "" {
		t.Errorf("succeeded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"demo_2"}, pf.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}

	// Only the succeeded id left the mailbox.
	msgs, _ := c.Fetch(context.Background())
	var sawFailed, sawSucceeded bool
	for _, m := range msgs {
		switch m.ID {
		case "demo_1":
			sawSucceeded = true
		case "demo_2":
			sawFailed = true
		}
	}
	if sawSucceeded {
		t.Error("succeeded id still in mailbox")
	}
	if !sawFailed {
		t.Error("failed id missing from mailbox")
	}
}

func TestClientCancelledContext(t *testing.T) {
	c := NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx); err == nil {
		t.Error("Fetch with cancelled context succeeded")
	}
	var te *mailops.TransportError
	err := c.Archive(ctx, []string{"demo_1"})
	if !errors.As(err, &te) {
		t.Errorf("Archive err = %v, want TransportError", err)
	}
}
