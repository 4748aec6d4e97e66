package discord

import (
	"context"
	"sync"
	"time"

	"botcore/pkg/cmd"
)

type trackedMessage struct {
	at      time.Time
	replyID string
}

// EditTracker remembers recent command messages so that editing one within
// the window runs the command again and edits the bot's earlier reply
// instead of posting a new one.
type EditTracker struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*trackedMessage
}

// NewEditTracker returns a tracker; a zero window disables tracking.
func NewEditTracker(window time.Duration) *EditTracker {
	return &EditTracker{window: window, entries: make(map[string]*trackedMessage)}
}

// Track starts tracking messageID. Tracking an already tracked message keeps
// its reply.
func (t *EditTracker) Track(messageID string, now time.Time) {
	if t.window <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[messageID]; ok {
		e.at = now
		return
	}
	t.entries[messageID] = &trackedMessage{at: now}
}

// Tracked reports whether messageID was tracked less than the window ago.
func (t *EditTracker) Tracked(messageID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[messageID]
	return ok && now.Sub(e.at) < t.window
}

// SetReply records the bot's reply to a tracked message. Untracked messages
// are ignored.
func (t *EditTracker) SetReply(messageID, replyID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[messageID]; ok {
		e.replyID = replyID
	}
}

// Reply returns the recorded reply to messageID.
func (t *EditTracker) Reply(messageID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[messageID]
	if !ok || e.replyID == "" {
		return "", false
	}
	return e.replyID, true
}

// Purge drops entries older than the window and returns how many it removed.
func (t *EditTracker) Purge(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, e := range t.entries {
		if now.Sub(e.at) >= t.window {
			delete(t.entries, id)
			n++
		}
	}
	return n
}

// Run purges expired entries every interval until ctx is done.
func (t *EditTracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Purge(now)
		}
	}
}

// TrackEditsHook starts tracking prefix invocations of commands that ask for
// it, or whose parent does.
func TrackEditsHook(t *EditTracker, now func() time.Time) cmd.OnInvokeFunc {
	return func(_ context.Context, inv *cmd.Invocation, d *cmd.Descriptor) {
		if inv.Style != cmd.StylePrefix || inv.MessageID == "" {
			return
		}
		for c := d; c != nil; c = c.Parent() {
			if c.TrackEdits {
				t.Track(inv.MessageID, now())
				return
			}
		}
	}
}
