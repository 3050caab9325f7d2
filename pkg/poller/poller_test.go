package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"chatsync/pkg/models"
)

func msg(id, sender int64, isRead int) models.AnnotatedMessage {
	return models.AnnotatedMessage{
		Message: models.Message{ID: id, SenderID: sender, Content: "m"},
		IsRead:  isRead,
	}
}

func TestDiff(t *testing.T) {
	viewer := int64(1)
	base := []models.AnnotatedMessage{
		msg(1, 1, 0),
		msg(2, 2, 0),
	}

	cases := []struct {
		name string
		prev []models.AnnotatedMessage
		next []models.AnnotatedMessage
		want bool
	}{
		{"nil prev always renders", nil, nil, true},
		{"identical", base, []models.AnnotatedMessage{msg(1, 1, 0), msg(2, 2, 0)}, false},
		{"count changed", base, []models.AnnotatedMessage{msg(1, 1, 0), msg(2, 2, 0), msg(3, 2, 0)}, true},
		{"own read flag flipped", base, []models.AnnotatedMessage{msg(1, 1, 1), msg(2, 2, 0)}, true},
		{"other's flag flip ignored", base, []models.AnnotatedMessage{msg(1, 1, 0), msg(2, 2, 1)}, false},
		{"empty both", []models.AnnotatedMessage{}, []models.AnnotatedMessage{}, false},
	}
	for _, tc := range cases {
		if got := Diff(tc.prev, tc.next, viewer); got != tc.want {
			t.Errorf("%s: Diff=%v want %v", tc.name, got, tc.want)
		}
	}
}

// fakeAPI is a scriptable server surface recording calls.
type fakeAPI struct {
	mu        sync.Mutex
	summaries []models.ConversationSummary
	messages  []models.AnnotatedMessage
	sumErr    error
	msgErr    error
	markReads []int64
}

func (f *fakeAPI) Conversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sumErr != nil {
		return nil, f.sumErr
	}
	return append([]models.ConversationSummary(nil), f.summaries...), nil
}

func (f *fakeAPI) Messages(ctx context.Context, conversationID, userID, beforeID int64) ([]models.AnnotatedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msgErr != nil {
		return nil, f.msgErr
	}
	return append([]models.AnnotatedMessage(nil), f.messages...), nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, conversationID, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReads = append(f.markReads, conversationID)
	return 0, nil
}

func (f *fakeAPI) markReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.markReads)
}

func (f *fakeAPI) setMessages(msgs []models.AnnotatedMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = msgs
}

// fakeRenderer records what was rendered.
type fakeRenderer struct {
	mu           sync.Mutex
	summaryCalls int
	messageCalls int
	lastMsgs     []models.AnnotatedMessage
}

func (r *fakeRenderer) RenderSummaries(s []models.ConversationSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryCalls++
}

func (r *fakeRenderer) RenderMessages(conversationID int64, msgs []models.AnnotatedMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messageCalls++
	r.lastMsgs = msgs
}

func (r *fakeRenderer) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryCalls, r.messageCalls
}

func TestTickIdleViewerIsNoop(t *testing.T) {
	api := &fakeAPI{}
	r := &fakeRenderer{}
	p := New(api, r, time.Hour)

	p.TickNow(context.Background())
	if s, m := r.counts(); s != 0 || m != 0 {
		t.Fatalf("idle tick rendered: summaries=%d messages=%d", s, m)
	}
}

func TestTickRefreshesSummaries(t *testing.T) {
	api := &fakeAPI{summaries: []models.ConversationSummary{{ID: 1, Name: "c"}}}
	r := &fakeRenderer{}
	p := New(api, r, time.Hour)
	p.mu.Lock()
	p.state = ViewState{Viewer: 2}
	p.mu.Unlock()

	p.TickNow(context.Background())
	if s, m := r.counts(); s != 1 || m != 0 {
		t.Fatalf("summaries=%d messages=%d", s, m)
	}
	if api.markReadCount() != 0 {
		t.Fatalf("marked read with no open conversation")
	}
}

func TestTickRendersAndMarksReadOnChange(t *testing.T) {
	api := &fakeAPI{messages: []models.AnnotatedMessage{msg(1, 3, 0)}}
	r := &fakeRenderer{}
	p := New(api, r, time.Hour)
	p.mu.Lock()
	p.state = ViewState{Viewer: 2, OpenConversation: 7}
	p.mu.Unlock()

	// first tick: nil snapshot, renders and acknowledges
	p.TickNow(context.Background())
	if _, m := r.counts(); m != 1 {
		t.Fatalf("message renders: %d", m)
	}
	if api.markReadCount() != 1 {
		t.Fatalf("markRead calls: %d", api.markReadCount())
	}

	// second tick: nothing changed, no render, no ack
	p.TickNow(context.Background())
	if _, m := r.counts(); m != 1 {
		t.Fatalf("re-rendered without a diff: %d", m)
	}
	if api.markReadCount() != 1 {
		t.Fatalf("acked without a diff: %d", api.markReadCount())
	}

	// a new message arrives: renders and acks again
	api.setMessages([]models.AnnotatedMessage{msg(1, 3, 0), msg(2, 3, 0)})
	p.TickNow(context.Background())
	if _, m := r.counts(); m != 2 {
		t.Fatalf("renders after new message: %d", m)
	}
	if api.markReadCount() != 2 {
		t.Fatalf("markRead calls after new message: %d", api.markReadCount())
	}
}

func TestTickReadFlagFlipTriggersRender(t *testing.T) {
	api := &fakeAPI{messages: []models.AnnotatedMessage{msg(1, 2, 0)}}
	r := &fakeRenderer{}
	p := New(api, r, time.Hour)
	p.mu.Lock()
	p.state = ViewState{Viewer: 2, OpenConversation: 7}
	p.mu.Unlock()

	p.TickNow(context.Background())
	// the other participant reads our message
	api.setMessages([]models.AnnotatedMessage{msg(1, 2, 1)})
	p.TickNow(context.Background())
	if _, m := r.counts(); m != 2 {
		t.Fatalf("receipt flip did not re-render: %d", m)
	}
}

func TestTickSwallowsErrors(t *testing.T) {
	api := &fakeAPI{sumErr: context.DeadlineExceeded}
	r := &fakeRenderer{}
	p := New(api, r, time.Hour)
	p.mu.Lock()
	p.state = ViewState{Viewer: 2}
	p.mu.Unlock()

	p.TickNow(context.Background())
	if s, _ := r.counts(); s != 0 {
		t.Fatalf("rendered despite error: %d", s)
	}

	// loop stays usable after the error clears
	api.mu.Lock()
	api.sumErr = nil
	api.mu.Unlock()
	p.TickNow(context.Background())
	if s, _ := r.counts(); s != 1 {
		t.Fatalf("did not recover: %d", s)
	}
}

// slowAPI blocks the messages fetch until released, so the view state can
// move while a request is in flight.
type slowAPI struct {
	fakeAPI
	release chan struct{}
}

func (s *slowAPI) Messages(ctx context.Context, conversationID, userID, beforeID int64) ([]models.AnnotatedMessage, error) {
	<-s.release
	return s.fakeAPI.Messages(ctx, conversationID, userID, beforeID)
}

func TestStaleResponseDropped(t *testing.T) {
	api := &slowAPI{release: make(chan struct{})}
	api.messages = []models.AnnotatedMessage{msg(1, 3, 0)}
	r := &fakeRenderer{}
	p := New(api, r, time.Hour)
	p.mu.Lock()
	p.state = ViewState{Viewer: 2, OpenConversation: 7}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.TickNow(context.Background())
		close(done)
	}()

	// wait for the summary phase to pass, then close the conversation
	// while the message fetch is blocked
	time.Sleep(20 * time.Millisecond)
	p.Close()
	close(api.release)
	<-done

	if _, m := r.counts(); m != 0 {
		t.Fatalf("stale message response was rendered")
	}
	if api.markReadCount() != 0 {
		t.Fatalf("stale response acknowledged")
	}
}

func TestSetViewerSwapsLoop(t *testing.T) {
	api := &fakeAPI{}
	r := &fakeRenderer{}
	p := New(api, r, 10*time.Millisecond)
	ctx := context.Background()

	p.SetViewer(ctx, 1)
	if st := p.State(); st.Viewer != 1 || st.OpenConversation != 0 {
		t.Fatalf("state: %+v", st)
	}
	p.SetViewer(ctx, 2)
	if st := p.State(); st.Viewer != 2 {
		t.Fatalf("state after swap: %+v", st)
	}
	// switching away entirely stops the loop
	p.SetViewer(ctx, 0)
	if st := p.State(); st.Viewer != 0 {
		t.Fatalf("state after stop: %+v", st)
	}
	p.Stop()
}
