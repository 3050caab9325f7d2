// Package poller implements the polling reconciliation loop that keeps
// a client's view of conversations and read receipts converged with the
// server. The loop is deliberately dumb: every tick it refetches and
// lets a pure diff decide whether anything changed.
package poller

import (
	"context"
	"sync"
	"time"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
)

// DefaultInterval is the poll cadence used when none is configured.
const DefaultInterval = 2 * time.Second

// API is the server surface the poller needs. *client.Client satisfies it.
type API interface {
	Conversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	Messages(ctx context.Context, conversationID, userID, beforeID int64) ([]models.AnnotatedMessage, error)
	MarkRead(ctx context.Context, conversationID, userID int64) (int64, error)
}

// Renderer receives fresh state whenever a tick found a change worth
// showing. Implementations must be safe to call from the poll goroutine.
type Renderer interface {
	RenderSummaries([]models.ConversationSummary)
	RenderMessages(conversationID int64, msgs []models.AnnotatedMessage)
}

// ViewState is an explicit snapshot of what the client is looking at.
// A zero OpenConversation means no conversation is open. Every in-flight
// fetch is tagged with the state it was issued under and its response is
// dropped if the state has moved by the time it arrives.
type ViewState struct {
	Viewer           int64
	OpenConversation int64
}

// Poller runs one reconciliation loop for one viewer at a time.
type Poller struct {
	api      API
	render   Renderer
	interval time.Duration

	mu       sync.Mutex
	state    ViewState
	lastMsgs []models.AnnotatedMessage
	cancel   context.CancelFunc
	done     chan struct{}
}

// New returns a poller with the given cadence. interval <= 0 uses
// DefaultInterval.
func New(api API, render Renderer, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{api: api, render: render, interval: interval}
}

// State returns the current view state.
func (p *Poller) State() ViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetViewer switches the active viewer. The previous loop is stopped
// before a new one is armed so at most one ticker runs at a time. A
// viewer of 0 just stops polling.
func (p *Poller) SetViewer(ctx context.Context, viewer int64) {
	p.stopLoop()
	p.mu.Lock()
	p.state = ViewState{Viewer: viewer}
	p.lastMsgs = nil
	p.mu.Unlock()
	if viewer != 0 {
		p.startLoop(ctx)
	}
}

// Open sets the open conversation for the current viewer. The cached
// message snapshot is reset so the next tick renders unconditionally.
func (p *Poller) Open(conversationID int64) {
	p.mu.Lock()
	p.state.OpenConversation = conversationID
	p.lastMsgs = nil
	p.mu.Unlock()
}

// Close clears the open conversation.
func (p *Poller) Close() {
	p.mu.Lock()
	p.state.OpenConversation = 0
	p.lastMsgs = nil
	p.mu.Unlock()
}

// Stop halts the loop. Safe to call when not running.
func (p *Poller) Stop() { p.stopLoop() }

// TickNow runs a single reconciliation pass synchronously. The loop
// calls this on every tick; callers may also invoke it directly after a
// local action (e.g. sending a message) to converge without waiting.
func (p *Poller) TickNow(ctx context.Context) {
	p.mu.Lock()
	tag := p.state
	p.mu.Unlock()
	if tag.Viewer == 0 {
		return
	}

	sums, err := p.api.Conversations(ctx, tag.Viewer)
	if err != nil {
		logger.Debug("poll_summaries_failed", "viewer", tag.Viewer, "error", err)
		return
	}
	if !p.stateIs(tag.Viewer, -1) {
		logger.Debug("poll_stale_response_dropped", "viewer", tag.Viewer)
		return
	}
	p.render.RenderSummaries(sums)

	if tag.OpenConversation == 0 {
		return
	}
	msgs, err := p.api.Messages(ctx, tag.OpenConversation, tag.Viewer, 0)
	if err != nil {
		logger.Debug("poll_messages_failed", "conversation", tag.OpenConversation, "error", err)
		return
	}
	if !p.stateIs(tag.Viewer, tag.OpenConversation) {
		logger.Debug("poll_stale_response_dropped", "viewer", tag.Viewer, "conversation", tag.OpenConversation)
		return
	}

	p.mu.Lock()
	prev := p.lastMsgs
	p.mu.Unlock()

	if !Diff(prev, msgs, tag.Viewer) {
		return
	}
	p.render.RenderMessages(tag.OpenConversation, msgs)
	p.mu.Lock()
	p.lastMsgs = msgs
	p.mu.Unlock()
	if _, err := p.api.MarkRead(ctx, tag.OpenConversation, tag.Viewer); err != nil {
		logger.Debug("poll_mark_read_failed", "conversation", tag.OpenConversation, "error", err)
	}
}

// Diff reports whether next differs from prev in a way the viewer can
// see: the message count changed, or the read flag of any message the
// viewer sent flipped. It is a pure function of its arguments.
func Diff(prev, next []models.AnnotatedMessage, viewerID int64) bool {
	if prev == nil {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	flags := make(map[int64]int, len(prev))
	for _, m := range prev {
		if m.SenderID == viewerID {
			flags[m.ID] = m.IsRead
		}
	}
	for _, m := range next {
		if m.SenderID != viewerID {
			continue
		}
		old, ok := flags[m.ID]
		if !ok || old != m.IsRead {
			return true
		}
	}
	return false
}

// stateIs reports whether the current state still matches the tag a
// fetch was issued under. conversation of -1 means "any".
func (p *Poller) stateIs(viewer, conversation int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Viewer != viewer {
		return false
	}
	return conversation == -1 || p.state.OpenConversation == conversation
}

func (p *Poller) startLoop(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(p.interval)
		defer t.Stop()
		p.TickNow(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				p.TickNow(ctx)
			}
		}
	}()
}

func (p *Poller) stopLoop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
