package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"agroanalyst/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource feeds events from a channel; a closed channel ends the feed.
type chanSource struct {
	ch chan ChangeEvent
}

func (s *chanSource) Next(ctx context.Context) (ChangeEvent, error) {
	select {
	case <-ctx.Done():
		return ChangeEvent{}, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return ChangeEvent{}, io.EOF
		}
		return ev, nil
	}
}

func TestWatcherHandlesAllEvents(t *testing.T) {
	src := &chanSource{ch: make(chan ChangeEvent, 16)}
	for i := 0; i < 10; i++ {
		src.ch <- ChangeEvent{ID: newObjectID().Hex(), After: &models.Report{Status: models.StatusRequested}}
	}
	close(src.ch)

	var mu sync.Mutex
	seen := map[string]int{}
	handler := func(_ context.Context, ev ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen[ev.ID]++
		return nil
	}

	w := NewWatcher(src, handler, 4, testLogger())
	require.NoError(t, w.Run(context.Background()))
	assert.Len(t, seen, 10)
}

func TestWatcherDoesNotSerializeOnSlowHandler(t *testing.T) {
	src := &chanSource{ch: make(chan ChangeEvent, 4)}
	for i := 0; i < 4; i++ {
		src.ch <- ChangeEvent{ID: newObjectID().Hex()}
	}
	close(src.ch)

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	handler := func(_ context.Context, ev ChangeEvent) error {
		started <- struct{}{}
		<-release
		return nil
	}

	w := NewWatcher(src, handler, 4, testLogger())
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	// All four handlers must be in flight at once despite none finishing.
	for i := 0; i < 4; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("handlers were serialized")
		}
	}
	close(release)
	require.NoError(t, <-done)
}

func TestWatcherStopsOnCancel(t *testing.T) {
	src := &chanSource{ch: make(chan ChangeEvent)}
	w := NewWatcher(src, func(context.Context, ChangeEvent) error { return nil }, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
