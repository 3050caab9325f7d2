package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("userId") != "2" {
			t.Errorf("userId: %s", r.URL.Query().Get("userId"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"chat","last_read_message_id":3,"unread_count":2,"last_message":"hi"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	sums, err := c.Conversations(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries", len(sums))
	}
	s := sums[0]
	if s.ID != 1 || s.LastReadMessageID != 3 || s.UnreadCount != 2 {
		t.Fatalf("summary: %+v", s)
	}
	if s.LastMessage == nil || *s.LastMessage != "hi" {
		t.Fatalf("last message: %v", s.LastMessage)
	}
}

func TestMessagesBeforeID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/7/messages" {
			t.Errorf("path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("userId") != "2" || q.Get("beforeId") != "10" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"id":4,"conversation_id":7,"sender_id":1,"content":"x","created_at":"t","sender_name":"Alice","is_read":1}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	msgs, err := c.Messages(context.Background(), 7, 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != 4 || msgs[0].IsRead != 1 || msgs[0].SenderName != "Alice" {
		t.Fatalf("messages: %+v", msgs)
	}
}

func TestMessagesOmitsZeroBeforeID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("beforeId") {
			t.Errorf("beforeId sent for 0: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Messages(context.Background(), 7, 2, 0); err != nil {
		t.Fatal(err)
	}
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["conversationId"] != float64(1) || body["senderId"] != float64(2) || body["content"] != "hello" {
			t.Errorf("body: %v", body)
		}
		_, _ = w.Write([]byte(`{"id":9,"conversationId":1,"senderId":2,"content":"hello","created_at":"t"}`))
	}))
	defer srv.Close()

	m, err := New(srv.URL).Send(context.Background(), 1, 2, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != 9 || m.ConversationID != 1 || m.SenderID != 2 || m.Content != "hello" {
		t.Fatalf("message: %+v", m)
	}
}

func TestMarkRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/5/read" {
			t.Errorf("path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"lastReadMessageId":12}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL).MarkRead(context.Background(), 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 12 {
		t.Fatalf("marker: %d", got)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"missing or invalid userId"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Conversations(context.Background(), 0)
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "missing or invalid userId") || !strings.Contains(err.Error(), "400") {
		t.Fatalf("error: %v", err)
	}
}
