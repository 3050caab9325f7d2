package chat

import (
	"errors"
	"testing"

	"chatsync/pkg/readstate"
	"chatsync/pkg/store"
	"chatsync/pkg/validation"
)

func openTest(t *testing.T) (convID, alice, bob int64) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	a, err := store.CreateUser("Alice")
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.CreateUser("Bob")
	if err != nil {
		t.Fatal(err)
	}
	c, err := store.CreateConversation("Alice & Bob Chat", []int64{a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	return c.ID, a.ID, b.ID
}

func TestSendMessageAutoAcknowledges(t *testing.T) {
	conv, alice, bob := openTest(t)

	m, err := SendMessage(conv, alice, "Hello Bob!")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.ID == 0 || m.Content != "Hello Bob!" {
		t.Fatalf("message: %+v", m)
	}

	// sender never sees their own message as unread
	n, err := readstate.UnreadCount(conv, alice)
	if err != nil || n != 0 {
		t.Fatalf("alice unread after send: n=%d err=%v", n, err)
	}
	n, err = readstate.UnreadCount(conv, bob)
	if err != nil || n != 1 {
		t.Fatalf("bob unread: n=%d err=%v", n, err)
	}
}

func TestSendMessageValidation(t *testing.T) {
	conv, alice, _ := openTest(t)

	if _, err := SendMessage(conv, alice, ""); !validation.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := SendMessage(0, alice, "hi"); !validation.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := SendMessage(999, alice, "hi"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAliceBobScenario(t *testing.T) {
	conv, alice, bob := openTest(t)

	m, err := SendMessage(conv, alice, "Hello Bob!")
	if err != nil {
		t.Fatal(err)
	}

	// Bob's view: one unread, message shows unread to Alice
	n, _ := readstate.UnreadCount(conv, bob)
	if n != 1 {
		t.Fatalf("bob unread: %d", n)
	}
	msgs, err := FetchMessages(conv, alice, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].IsRead != 0 {
		t.Fatalf("before ack: %+v", msgs)
	}
	if msgs[0].SenderName != "Alice" {
		t.Fatalf("sender name: %q", msgs[0].SenderName)
	}

	latest, err := MarkRead(conv, bob)
	if err != nil {
		t.Fatal(err)
	}
	if latest != m.ID {
		t.Fatalf("markRead returned %d, want %d", latest, m.ID)
	}

	n, _ = readstate.UnreadCount(conv, bob)
	if n != 0 {
		t.Fatalf("bob unread after markRead: %d", n)
	}
	msgs, _ = FetchMessages(conv, alice, 0)
	if msgs[0].IsRead != 1 {
		t.Fatalf("alice should see the receipt flip: %+v", msgs[0])
	}
}

func TestTwoMessagesFlipTogether(t *testing.T) {
	conv, alice, bob := openTest(t)

	if _, err := SendMessage(conv, alice, "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := SendMessage(conv, alice, "two"); err != nil {
		t.Fatal(err)
	}

	sums, err := FetchConversations(bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || sums[0].UnreadCount != 2 {
		t.Fatalf("summaries: %+v", sums)
	}

	if _, err := MarkRead(conv, bob); err != nil {
		t.Fatal(err)
	}
	msgs, err := FetchMessages(conv, alice, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range msgs {
		if m.IsRead != 1 {
			t.Fatalf("message %d not flipped: %+v", m.ID, m)
		}
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	conv, alice, bob := openTest(t)

	m, err := SendMessage(conv, alice, "hi")
	if err != nil {
		t.Fatal(err)
	}

	first, err := MarkRead(conv, bob)
	if err != nil {
		t.Fatal(err)
	}
	second, err := MarkRead(conv, bob)
	if err != nil {
		t.Fatal(err)
	}
	if first != m.ID || second != m.ID {
		t.Fatalf("markRead not stable: %d then %d", first, second)
	}
	got, err := store.GetMarker(conv, bob)
	if err != nil || got != m.ID {
		t.Fatalf("marker: %d err=%v", got, err)
	}
}

func TestMarkReadEmptyConversation(t *testing.T) {
	conv, _, bob := openTest(t)

	latest, err := MarkRead(conv, bob)
	if err != nil {
		t.Fatal(err)
	}
	if latest != 0 {
		t.Fatalf("empty conversation markRead: %d", latest)
	}
	got, _ := store.GetMarker(conv, bob)
	if got != 0 {
		t.Fatalf("marker written for empty conversation: %d", got)
	}
}

func TestMarkReadUnknownConversation(t *testing.T) {
	_, _, bob := openTest(t)
	if _, err := MarkRead(999, bob); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFetchMessagesRequiresViewer(t *testing.T) {
	conv, _, _ := openTest(t)
	if _, err := FetchMessages(conv, 0, 0); !validation.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := FetchConversations(0); !validation.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestFetchMessagesBeforeID(t *testing.T) {
	conv, alice, bob := openTest(t)

	var ids []int64
	for _, text := range []string{"a", "b", "c"} {
		m, err := SendMessage(conv, alice, text)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID)
	}

	page, err := FetchMessages(conv, bob, ids[2])
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("want 2 older messages, got %d", len(page))
	}
	for _, m := range page {
		if m.ID >= ids[2] {
			t.Fatalf("page leaked message %d", m.ID)
		}
	}
}

func TestRepairConversation(t *testing.T) {
	conv, alice, bob := openTest(t)

	// simulate the broken half of a send: message appended, marker not
	// advanced
	m, err := store.AppendMessage(conv, alice, "orphaned")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetMarker(conv, alice)
	if got != 0 {
		t.Fatalf("precondition: marker already at %d", got)
	}

	n, err := RepairConversation(conv)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 repaired marker, got %d", n)
	}
	got, _ = store.GetMarker(conv, alice)
	if got != m.ID {
		t.Fatalf("alice marker after repair: %d want %d", got, m.ID)
	}
	// bob sent nothing, so repair leaves him alone
	got, _ = store.GetMarker(conv, bob)
	if got != 0 {
		t.Fatalf("bob marker moved: %d", got)
	}

	// a healthy conversation repairs nothing
	n, err = RepairConversation(conv)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second sweep repaired %d markers", n)
	}
}

func TestRunRepairOnce(t *testing.T) {
	conv, alice, _ := openTest(t)

	if _, err := store.AppendMessage(conv, alice, "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendMessage(conv, alice, "two"); err != nil {
		t.Fatal(err)
	}

	n, err := RunRepairOnce()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		// one marker moved (to the latest own message), even with two
		// lagging messages
		t.Fatalf("want 1 repaired marker, got %d", n)
	}
}
