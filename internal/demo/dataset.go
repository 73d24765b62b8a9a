// Package demo provides a deterministic offline mailbox: a fixed
// message set and a mailops.Port that mutates it in memory. It backs
// `zeroterm demo` and the TUI test suite.
package demo

import (
	"time"

	"github.com/zeroterm/zeroterm/internal/mail"
)

type seed struct {
	id         string
	from       string
	subject    string
	snippet    string
	age        time.Duration
	messageID  string
	inReplyTo  string
	references []string
	folder     string
}

// Messages returns the demo mailbox: a realistic mix of notification
// senders, receipts, newsletters, and two multi-participant
// conversations, threaded from their headers. The set is rebuilt on
// every call so callers can mutate their copy freely.
func Messages() []mail.Message {
	now := time.Now().UTC()
	seeds := []seed{
		{
			id: "demo_1", from: "GitHub <notifications@github.com>",
			subject: "[rust-lang/rust] Fix ICE in pattern matching (PR #12345)",
			snippet: "@bors merged this pull request. The changes look good and all CI checks passed...",
			age:     2 * time.Hour, messageID: "<gh-pr-12345@github.com>", folder: "INBOX",
		},
		{
			id: "demo_2", from: "GitHub <notifications@github.com>",
			subject: "[tokio-rs/tokio] New issue: Memory leak in async runtime",
			snippet: "A new issue has been opened by @contributor. Steps to reproduce: 1. Create a new runtime...",
			age:     5 * time.Hour, messageID: "<gh-issue-456@github.com>", folder: "INBOX",
		},
		{
			id: "demo_3", from: "GitHub <notifications@github.com>",
			subject: "Your mass migration jobs are now available",
			snippet: "We're excited to announce that mass migration jobs are now available for your organization...",
			age:     24 * time.Hour, messageID: "<gh-announce-789@github.com>", folder: "INBOX",
		},
		{
			id: "demo_4", from: "Linear <notify@linear.app>",
			subject: "ENG-1234: Implement user authentication",
			snippet: "Status changed to In Review. Alice assigned this issue to you for final review...",
			age:     1 * time.Hour, messageID: "<linear-1234@linear.app>", folder: "INBOX",
		},
		{
			id: "demo_5", from: "Linear <notify@linear.app>",
			subject: "Weekly project digest - Sprint 42",
			snippet: "12 issues completed, 3 in progress, 5 remaining. Team velocity is up 15% from last week...",
			age:     48 * time.Hour, messageID: "<linear-digest@linear.app>", folder: "INBOX",
		},
		{
			id: "demo_6", from: "Alice Chen <alice@example.com>",
			subject: "Re: Coffee tomorrow?",
			snippet: "That works! How about the new place on Market St? I heard they have great espresso...",
			age:     3 * time.Hour, messageID: "<alice-reply-2@example.com>",
			inReplyTo:  "<demo-sent-1@example.com>",
			references: []string{"<alice-orig@example.com>", "<demo-sent-1@example.com>"},
			folder:     "INBOX",
		},
		{
			id: "demo_7", from: "Alice Chen <alice@example.com>",
			subject: "Coffee tomorrow?",
			snippet: "Hey! It's been a while. Want to grab coffee tomorrow afternoon? I'm free after 2pm...",
			age:     26 * time.Hour, messageID: "<alice-orig@example.com>", folder: "INBOX",
		},
		{
			id: "demo_sent_1", from: "Demo User <demo@example.com>",
			subject: "Re: Coffee tomorrow?",
			snippet: "Sure! 3pm works for me. Any preference on location?",
			age:     24 * time.Hour, messageID: "<demo-sent-1@example.com>",
			inReplyTo:  "<alice-orig@example.com>",
			references: []string{"<alice-orig@example.com>"},
			folder:     "[Gmail]/Sent Mail",
		},
		{
			id: "demo_8", from: "Stripe <receipts@stripe.com>",
			subject: "Your receipt from Acme Corp",
			snippet: "Amount: $49.00. Thank you for your payment. Your subscription has been renewed...",
			age:     48 * time.Hour, messageID: "<stripe-receipt-1@stripe.com>", folder: "INBOX",
		},
		{
			id: "demo_9", from: "Stripe <receipts@stripe.com>",
			subject: "Your receipt from Cloud Services Inc",
			snippet: "Amount: $12.00. Payment successful. Your monthly invoice is attached...",
			age:     7 * 24 * time.Hour, messageID: "<stripe-receipt-2@stripe.com>", folder: "INBOX",
		},
		{
			id: "demo_10", from: "Figma <no-reply@figma.com>",
			subject: "Bob commented on 'Homepage Redesign'",
			snippet: "Bob: 'Love the new hero section! Can we try a darker shade for the CTA button?'...",
			age:     4 * time.Hour, messageID: "<figma-comment@figma.com>", folder: "INBOX",
		},
		{
			id: "demo_11", from: "This Week in Rust <noreply@this-week-in-rust.org>",
			subject: "This Week in Rust 542",
			snippet: "Hello and welcome to another issue of This Week in Rust! Updates from the community...",
			age:     44 * time.Hour, messageID: "<twir-542@this-week-in-rust.org>", folder: "INBOX",
		},
		{
			id: "demo_12", from: "Amazon Web Services <no-reply@aws.amazon.com>",
			subject: "AWS Billing Alert: Your costs exceeded the threshold",
			snippet: "Your AWS account has exceeded the billing threshold of $100.00. Current charges: $127.43...",
			age:     18 * time.Hour, messageID: "<aws-billing@aws.amazon.com>", folder: "INBOX",
		},
		{
			id: "demo_13", from: "Slack <feedback@slack.com>",
			subject: "Your daily digest from Acme Workspace",
			snippet: "You have 23 unread messages in 5 channels. #engineering: 12 new, #random: 5 new...",
			age:     8 * time.Hour, messageID: "<slack-digest@slack.com>", folder: "INBOX",
		},
		{
			id: "demo_14", from: "Bob Smith <bob@company.com>",
			subject: "Re: Q4 Planning",
			snippet: "I agree with Charlie's points. We should focus on the API improvements first...",
			age:     6 * time.Hour, messageID: "<bob-q4-reply@company.com>",
			inReplyTo:  "<charlie-q4@company.com>",
			references: []string{"<demo-q4-orig@example.com>", "<charlie-q4@company.com>"},
			folder:     "INBOX",
		},
		{
			id: "demo_15", from: "Charlie Davis <charlie@company.com>",
			subject: "Re: Q4 Planning",
			snippet: "Great overview! I think we should prioritize items 2 and 3 for the first milestone...",
			age:     21 * time.Hour, messageID: "<charlie-q4@company.com>",
			inReplyTo:  "<demo-q4-orig@example.com>",
			references: []string{"<demo-q4-orig@example.com>"},
			folder:     "INBOX",
		},
		{
			id: "demo_sent_2", from: "Demo User <demo@example.com>",
			subject: "Q4 Planning",
			snippet: "Hi team, I wanted to share my thoughts on Q4 priorities...",
			age:     24 * time.Hour, messageID: "<demo-q4-orig@example.com>", folder: "[Gmail]/Sent Mail",
		},
	}

	msgs := make([]mail.Message, 0, len(seeds))
	for _, s := range seeds {
		m := mail.New(s.id, s.from, s.subject, s.snippet, now.Add(-s.age))
		m.MessageID = s.messageID
		m.InReplyTo = s.inReplyTo
		m.References = s.references
		m.SourceFolder = s.folder
		msgs = append(msgs, m)
	}
	mail.AssignThreads(msgs)
	return msgs
}
