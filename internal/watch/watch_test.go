package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/dispatch"
	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/storage/storagetest"
)

func newTestObserver(store *storagetest.MemStore) *Observer {
	clock := func() time.Time {
		t, _ := time.Parse("2006-01-02", "2024-03-05")
		return t
	}
	d := dispatch.New(store, nil, nil, dispatch.WithClock(clock))
	return NewObserver(store, classify.New(nil), d)
}

func TestObserveTopLevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		detected bool
	}{
		{
			name:     "committed main frame keyword hit",
			event:    Event{URL: "https://porn.example/", FrameID: 0, Source: SourceCommitted},
			detected: true,
		},
		{
			name:     "committed subframe ignored",
			event:    Event{URL: "https://porn.example/", FrameID: 3, Source: SourceCommitted},
			detected: false,
		},
		{
			name:     "request main_frame keyword hit",
			event:    Event{URL: "https://xxx.example/", ResourceType: "main_frame", Source: SourceRequest},
			detected: true,
		},
		{
			name:     "request image ignored",
			event:    Event{URL: "https://xxx.example/banner.png", ResourceType: "image", Source: SourceRequest},
			detected: false,
		},
		{
			name:     "clean site ignored",
			event:    Event{URL: "https://news.example/", FrameID: 0, Source: SourceCommitted},
			detected: false,
		},
		{
			name:     "empty url ignored",
			event:    Event{FrameID: 0, Source: SourceCommitted},
			detected: false,
		},
		{
			name:     "unknown source ignored",
			event:    Event{URL: "https://porn.example/", Source: "history"},
			detected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &storagetest.MemStore{}
			obs := newTestObserver(store)
			got := obs.Observe(context.Background(), tt.event)
			assert.Equal(t, tt.detected, got)
			if tt.detected {
				assert.Equal(t, "2024-03-05", store.State.LastVisitDate)
			} else {
				assert.Empty(t, store.State.LastVisitDate)
			}
		})
	}
}

func TestObserveUsesStoredCustomSites(t *testing.T) {
	store := &storagetest.MemStore{State: storage.PersistedState{
		CustomSites: []string{"example.com"},
	}}
	obs := newTestObserver(store)

	detected := obs.Observe(context.Background(), Event{
		URL:     "https://www.example.com/watch",
		FrameID: 0,
		Source:  SourceCommitted,
	})
	require.True(t, detected)
	assert.Equal(t, []string{"2024-03-05"}, store.State.VisitHistory)
}

func TestObserveDetectionIdempotentPerDay(t *testing.T) {
	store := &storagetest.MemStore{}
	obs := newTestObserver(store)
	ev := Event{URL: "https://nsfw.example/", FrameID: 0, Source: SourceCommitted}

	require.True(t, obs.Observe(context.Background(), ev))
	require.True(t, obs.Observe(context.Background(), ev))

	assert.Equal(t, []string{"2024-03-05"}, store.State.VisitHistory)
}
