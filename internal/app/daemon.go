// Package app assembles the native-messaging daemon: storage, classifier,
// rule engine, dispatcher, router and the bridge connection.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/streakwatch/internal/backend"
	"github.com/bnema/streakwatch/internal/bridge"
	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/config"
	"github.com/bnema/streakwatch/internal/dispatch"
	"github.com/bnema/streakwatch/internal/logging"
	"github.com/bnema/streakwatch/internal/router"
	"github.com/bnema/streakwatch/internal/rules"
	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/watch"
)

// eventBuffer bounds the navigation event queue. The extension batches
// nothing, so a small buffer absorbs bursts without unbounded growth.
const eventBuffer = 64

// Daemon is the running native-messaging host.
type Daemon struct {
	cfg    *config.Config
	store  storage.Store
	conn   *bridge.Conn
	router *router.Router
	events chan watch.Event

	mu       sync.Mutex
	observer *watch.Observer
}

// NewDaemon wires a daemon over the given pipe halves (stdin/stdout in
// production, in-memory pipes in tests).
func NewDaemon(cfg *config.Config, store storage.Store, r io.Reader, w io.Writer) *Daemon {
	conn := bridge.NewConn(r, w)

	classifier := classify.New(cfg.Blocking.ExtraKeywords)
	compiler := rules.NewCompiler(classifier)
	engine := bridge.NewRuleEngine(conn)

	var notifier dispatch.Notifier
	if cfg.Blocking.Notify {
		notifier = bridge.NewNotifier(conn)
	}

	client := backend.NewClient(cfg.Backend.RequestTimeout)
	dispatcher := dispatch.New(store, notifier, client)
	rt := router.New(store, compiler, engine, dispatcher, time.Now)
	observer := watch.NewObserver(store, classifier, dispatcher)

	d := &Daemon{
		cfg:      cfg,
		store:    store,
		conn:     conn,
		router:   rt,
		observer: observer,
		events:   make(chan watch.Event, eventBuffer),
	}

	conn.OnRequest = rt.Handle
	conn.OnEvent = func(ctx context.Context, ev watch.Event) {
		select {
		case d.events <- ev:
		default:
			logging.Warn("event queue full, dropping navigation event")
		}
	}

	return d
}

// ApplyConfig swaps in a new keyword set and reinstalls the ruleset. Called
// from the config watcher.
func (d *Daemon) ApplyConfig(ctx context.Context, cfg *config.Config) {
	classifier := classify.New(cfg.Blocking.ExtraKeywords)
	d.router.SetCompiler(rules.NewCompiler(classifier))

	var notifier dispatch.Notifier
	if cfg.Blocking.Notify {
		notifier = bridge.NewNotifier(d.conn)
	}
	dispatcher := dispatch.New(d.store, notifier, backend.NewClient(cfg.Backend.RequestTimeout))

	d.mu.Lock()
	d.observer = watch.NewObserver(d.store, classifier, dispatcher)
	d.mu.Unlock()

	d.router.Reconcile(ctx)
	logging.Info("configuration reloaded, ruleset reinstalled")
}

func (d *Daemon) currentObserver() *watch.Observer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.observer
}

// Run starts the read loop and the event loop and blocks until the browser
// closes the port or the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ctx = logging.WithContext(ctx, logging.Global())

	if err := ensureInitialized(ctx, d.store); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(d.events)
		return d.conn.Run(logging.WithComponent(ctx, "bridge"))
	})

	g.Go(func() error {
		evCtx := logging.WithComponent(ctx, "watch")
		// Install the ruleset once the extension is listening.
		d.router.Reconcile(evCtx)
		for {
			select {
			case ev, ok := <-d.events:
				if !ok {
					return nil
				}
				d.currentObserver().Observe(evCtx, ev)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon: %w", err)
	}
	return nil
}

// ensureInitialized creates missing state keys with zero values so first-run
// reads see an empty history rather than load errors.
func ensureInitialized(ctx context.Context, store storage.Store) error {
	_, err := store.Update(ctx, func(st *storage.PersistedState) error {
		if st.VisitHistory == nil {
			st.VisitHistory = []string{}
		}
		if st.CustomSites == nil {
			st.CustomSites = []string{}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("initialize state: %w", err)
	}
	return nil
}
