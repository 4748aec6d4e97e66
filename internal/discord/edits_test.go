package discord

import (
	"context"
	"testing"
	"time"

	"botcore/pkg/cmd"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEditTracker(t *testing.T) {
	tr := NewEditTracker(time.Minute)
	tr.Track("m1", t0)

	assert.True(t, tr.Tracked("m1", t0.Add(30*time.Second)))
	assert.False(t, tr.Tracked("m1", t0.Add(time.Minute)))
	assert.False(t, tr.Tracked("m2", t0))

	_, ok := tr.Reply("m1")
	assert.False(t, ok)
	tr.SetReply("m1", "r1")
	tr.SetReply("m2", "r2")
	id, ok := tr.Reply("m1")
	assert.True(t, ok)
	assert.Equal(t, "r1", id)
	_, ok = tr.Reply("m2")
	assert.False(t, ok)

	tr.Track("m1", t0.Add(50*time.Second))
	assert.True(t, tr.Tracked("m1", t0.Add(90*time.Second)), "re-tracking extends the window")
	id, _ = tr.Reply("m1")
	assert.Equal(t, "r1", id, "re-tracking keeps the reply")

	tr.Track("m3", t0)
	assert.Equal(t, 1, tr.Purge(t0.Add(time.Minute)))
	assert.True(t, tr.Tracked("m1", t0.Add(time.Minute)))
}

func TestEditTracker_Disabled(t *testing.T) {
	tr := NewEditTracker(0)
	tr.Track("m1", t0)
	assert.False(t, tr.Tracked("m1", t0))
}

func TestEditTracker_RunStops(t *testing.T) {
	tr := NewEditTracker(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop")
	}
}

func TestTrackEditsHook(t *testing.T) {
	tr := NewEditTracker(time.Minute)
	hook := TrackEditsHook(tr, func() time.Time { return t0 })

	echo := cmd.New("echo").TrackEdits().Handler(noop)
	ping := cmd.New("ping").Handler(noop)

	hook(context.Background(), &cmd.Invocation{Style: cmd.StylePrefix, MessageID: "m1"}, echo)
	hook(context.Background(), &cmd.Invocation{Style: cmd.StylePrefix, MessageID: "m2"}, ping)
	hook(context.Background(), &cmd.Invocation{Style: cmd.StyleSlash, MessageID: "m3"}, echo)

	assert.True(t, tr.Tracked("m1", t0))
	assert.False(t, tr.Tracked("m2", t0))
	assert.False(t, tr.Tracked("m3", t0))
}
