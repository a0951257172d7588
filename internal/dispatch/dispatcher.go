// Package dispatch turns positive classifications into streak updates,
// notifications and best-effort backend sync.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/streakwatch/internal/backend"
	"github.com/bnema/streakwatch/internal/logging"
	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/streak"
)

//go:generate mockgen -source=dispatcher.go -destination=mocks/mock_dispatcher.go -package=mocks

// Notification content shown on every detection.
const (
	NotificationTitle   = "Streak broken"
	NotificationMessage = "You visited an adult content site."
)

// Notifier presents a local notification. Implementations are best-effort;
// the dispatcher swallows their failures.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// SyncClient is the subset of the backend client the dispatcher needs.
type SyncClient interface {
	InsertDetection(ctx context.Context, session storage.Session, rec backend.DetectionRecord) error
	RefreshSession(ctx context.Context, session storage.Session) (backend.TokenPair, error)
}

// Result reports what a detection dispatch did. SyncErr is informational:
// backend unavailability never fails the dispatch.
type Result struct {
	Date     string
	Notified bool
	Synced   bool
	SyncErr  error
}

// Dispatcher handles detection events. Notifier and backend may be nil, in
// which case the corresponding step is skipped.
type Dispatcher struct {
	store    storage.Store
	notifier Notifier
	backend  SyncClient
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a dispatcher.
func New(store storage.Store, notifier Notifier, syncClient SyncClient, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		notifier: notifier,
		backend:  syncClient,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnDetection records today's detection, raises the notification and
// forwards the event to the backend when a complete session is stored.
//
// The returned error covers local bookkeeping only; notification and sync
// failures are reported through Result and never abort the local path.
func (d *Dispatcher) OnDetection(ctx context.Context) (Result, error) {
	today := streak.Today(d.now())
	result := Result{Date: today}

	st, err := d.store.Update(ctx, func(st *storage.PersistedState) error {
		streak.RecordDetection(st, today)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("record detection: %w", err)
	}

	if d.notifier != nil {
		if err := d.notifier.Notify(ctx, NotificationTitle, NotificationMessage); err != nil {
			logging.Debug(fmt.Sprintf("notification failed: %v", err))
		} else {
			result.Notified = true
		}
	}

	if d.backend == nil || !st.Session.Complete() {
		return result, nil
	}

	if err := d.syncDetection(ctx, st.Session, today); err != nil {
		result.SyncErr = err
		logging.Warn(fmt.Sprintf("detection sync dropped: %v", err))
	} else {
		result.Synced = true
	}

	return result, nil
}

// ResetStreak rebases the streak clock to today without notification or
// backend sync.
func (d *Dispatcher) ResetStreak(ctx context.Context) error {
	today := streak.Today(d.now())
	_, err := d.store.Update(ctx, func(st *storage.PersistedState) error {
		streak.RecordDetection(st, today)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset streak: %w", err)
	}
	return nil
}

// syncDetection submits the detection record, applying the one-shot
// refresh-and-retry policy on 401.
func (d *Dispatcher) syncDetection(ctx context.Context, session storage.Session, today string) error {
	rec := backend.DetectionRecord{
		UserID: session.UserID,
		Email:  session.UserEmail,
		Date:   today,
	}

	err := d.backend.InsertDetection(ctx, session, rec)
	if err == nil {
		return nil
	}
	if !errors.Is(err, backend.ErrUnauthorized) || !session.CanRefresh() {
		return err
	}

	pair, refreshErr := d.backend.RefreshSession(ctx, session)
	if refreshErr != nil {
		return fmt.Errorf("token refresh failed: %w", refreshErr)
	}

	session.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		session.RefreshToken = pair.RefreshToken
	}

	// Persist refreshed tokens before the retry so a failed retry does not
	// lose them
	if _, err := d.store.Update(ctx, func(st *storage.PersistedState) error {
		st.Session.AccessToken = session.AccessToken
		st.Session.RefreshToken = session.RefreshToken
		return nil
	}); err != nil {
		logging.Warn(fmt.Sprintf("failed to persist refreshed tokens: %v", err))
	}

	// Exactly one retry, then give up
	return d.backend.InsertDetection(ctx, session, rec)
}
