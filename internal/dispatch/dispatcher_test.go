package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/bnema/streakwatch/internal/backend"
	"github.com/bnema/streakwatch/internal/dispatch/mocks"
	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/storage/storagetest"
)

func fixedClock(date string) func() time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return func() time.Time { return t }
}

func completeSession() storage.Session {
	return storage.Session{
		AccessToken:     "access-1",
		RefreshToken:    "refresh-1",
		UserID:          "user-1",
		UserEmail:       "user@example.com",
		SupabaseURL:     "https://proj.supabase.co",
		SupabaseAnonKey: "anon-key",
	}
}

func TestOnDetectionUnauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := &storagetest.MemStore{}
	notifier := mocks.NewMockNotifier(ctrl)
	client := mocks.NewMockSyncClient(ctrl)

	notifier.EXPECT().
		Notify(gomock.Any(), NotificationTitle, NotificationMessage).
		Return(nil)
	// No InsertDetection or RefreshSession expectations: any call fails the test.

	d := New(store, notifier, client, WithClock(fixedClock("2024-03-05")))
	res, err := d.OnDetection(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-03-05", res.Date)
	assert.True(t, res.Notified)
	assert.False(t, res.Synced)
	assert.Equal(t, "2024-03-05", store.State.LastVisitDate)
	assert.Equal(t, []string{"2024-03-05"}, store.State.VisitHistory)
}

func TestOnDetectionSyncsWithSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := &storagetest.MemStore{State: storage.PersistedState{Session: completeSession()}}
	client := mocks.NewMockSyncClient(ctrl)

	client.EXPECT().
		InsertDetection(gomock.Any(), completeSession(), backend.DetectionRecord{
			UserID: "user-1",
			Email:  "user@example.com",
			Date:   "2024-03-05",
		}).
		Return(nil)

	d := New(store, nil, client, WithClock(fixedClock("2024-03-05")))
	res, err := d.OnDetection(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Synced)
	assert.NoError(t, res.SyncErr)
}

func TestOnDetectionRefreshesOnceOn401(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := &storagetest.MemStore{State: storage.PersistedState{Session: completeSession()}}
	client := mocks.NewMockSyncClient(ctrl)

	refreshed := completeSession()
	refreshed.AccessToken = "access-2"
	refreshed.RefreshToken = "refresh-2"

	gomock.InOrder(
		client.EXPECT().
			InsertDetection(gomock.Any(), completeSession(), gomock.Any()).
			Return(backend.ErrUnauthorized),
		client.EXPECT().
			RefreshSession(gomock.Any(), completeSession()).
			Return(backend.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil),
		client.EXPECT().
			InsertDetection(gomock.Any(), refreshed, gomock.Any()).
			Return(nil),
	)

	d := New(store, nil, client, WithClock(fixedClock("2024-03-05")))
	res, err := d.OnDetection(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Synced)

	// Refreshed tokens are persisted.
	assert.Equal(t, "access-2", store.State.Session.AccessToken)
	assert.Equal(t, "refresh-2", store.State.Session.RefreshToken)
}

func TestOnDetectionRefreshFailureKeepsTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := &storagetest.MemStore{State: storage.PersistedState{Session: completeSession()}}
	client := mocks.NewMockSyncClient(ctrl)

	gomock.InOrder(
		client.EXPECT().
			InsertDetection(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.ErrUnauthorized),
		client.EXPECT().
			RefreshSession(gomock.Any(), gomock.Any()).
			Return(backend.TokenPair{}, errors.New("refresh rejected")),
	)
	// No retry after a failed refresh.

	d := New(store, nil, client, WithClock(fixedClock("2024-03-05")))
	res, err := d.OnDetection(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Synced)
	assert.Error(t, res.SyncErr)

	// Tokens are untouched.
	assert.Equal(t, "access-1", store.State.Session.AccessToken)
	assert.Equal(t, "refresh-1", store.State.Session.RefreshToken)

	// Local streak state advanced regardless.
	assert.Equal(t, "2024-03-05", store.State.LastVisitDate)
}

func TestOnDetectionNo401RetryWithoutRefreshToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := completeSession()
	session.RefreshToken = ""
	store := &storagetest.MemStore{State: storage.PersistedState{Session: session}}
	client := mocks.NewMockSyncClient(ctrl)

	client.EXPECT().
		InsertDetection(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(backend.ErrUnauthorized)

	d := New(store, nil, client, WithClock(fixedClock("2024-03-05")))
	res, err := d.OnDetection(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Synced)
	assert.ErrorIs(t, res.SyncErr, backend.ErrUnauthorized)
}

func TestOnDetectionNotifierFailureSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := &storagetest.MemStore{}
	notifier := mocks.NewMockNotifier(ctrl)

	notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("notify transport down"))

	d := New(store, notifier, nil, WithClock(fixedClock("2024-03-05")))
	res, err := d.OnDetection(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.Equal(t, "2024-03-05", store.State.LastVisitDate)
}

func TestResetStreak(t *testing.T) {
	store := &storagetest.MemStore{State: storage.PersistedState{
		LastVisitDate: "2024-01-01",
		VisitHistory:  []string{"2024-01-01"},
	}}

	d := New(store, nil, nil, WithClock(fixedClock("2024-03-05")))
	require.NoError(t, d.ResetStreak(context.Background()))

	assert.Equal(t, "2024-03-05", store.State.LastVisitDate)
	assert.Contains(t, store.State.VisitHistory, "2024-03-05")
}
