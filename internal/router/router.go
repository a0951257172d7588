// Package router handles typed requests from the extension popup: state
// reads, custom site mutations and streak resets. It is transport-agnostic;
// the bridge decodes frames into Request values and encodes Responses back.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/dispatch"
	"github.com/bnema/streakwatch/internal/logging"
	"github.com/bnema/streakwatch/internal/rules"
	"github.com/bnema/streakwatch/internal/storage"
	"github.com/bnema/streakwatch/internal/streak"
)

// Request types understood by the router.
const (
	TypeGetState         = "getState"
	TypeAddCustomSite    = "addCustomSite"
	TypeRemoveCustomSite = "removeCustomSite"
	TypeResetStreak      = "resetStreak"
)

// Request is a typed message from the extension.
type Request struct {
	Type string `json:"type"`
	Site string `json:"site,omitempty"`
}

// Response is the reply payload. Fields are populated per request type.
type Response struct {
	OK             bool     `json:"ok"`
	Error          string   `json:"error,omitempty"`
	Today          string   `json:"today,omitempty"`
	StreakDays     *int     `json:"streakDays,omitempty"`
	LastVisitDate  string   `json:"lastVisitDate,omitempty"`
	CustomSites    []string `json:"customSites,omitempty"`
	VisitHistory   []string `json:"visitHistory,omitempty"`
	BlockingActive *bool    `json:"blockingActive,omitempty"`
}

// Router dispatches typed requests.
type Router struct {
	store      storage.Store
	engine     rules.Engine
	dispatcher *dispatch.Dispatcher
	now        func() time.Time

	mu       sync.Mutex
	compiler *rules.Compiler
	// blockingActive records the outcome of the last reconciliation so
	// getState can report engine degradation instead of hiding it.
	blockingActive bool
}

// New creates a router. The engine may be nil when no blocking surface is
// available; blockingActive then stays false.
func New(store storage.Store, compiler *rules.Compiler, engine rules.Engine, dispatcher *dispatch.Dispatcher, now func() time.Time) *Router {
	if now == nil {
		now = time.Now
	}
	return &Router{
		store:      store,
		compiler:   compiler,
		engine:     engine,
		dispatcher: dispatcher,
		now:        now,
	}
}

// Handle processes one request and always produces a response.
func (r *Router) Handle(ctx context.Context, req Request) Response {
	switch req.Type {
	case TypeGetState:
		return r.getState(ctx)
	case TypeAddCustomSite:
		return r.addCustomSite(ctx, req.Site)
	case TypeRemoveCustomSite:
		return r.removeCustomSite(ctx, req.Site)
	case TypeResetStreak:
		return r.resetStreak(ctx)
	default:
		logging.Warn(fmt.Sprintf("unknown request type %q", req.Type))
		return Response{OK: false, Error: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}

func (r *Router) getState(ctx context.Context) Response {
	st, err := r.store.Load(ctx)
	if err != nil {
		logging.Error(fmt.Sprintf("getState load failed: %v", err))
		return Response{OK: false, Error: "state unavailable"}
	}

	today := streak.Today(r.now())
	sum := streak.ComputeStreak(st, today)
	active := r.BlockingActive()
	return Response{
		OK:             true,
		Today:          today,
		StreakDays:     sum.StreakDays,
		LastVisitDate:  sum.LastVisitDate,
		CustomSites:    st.CustomSites,
		VisitHistory:   st.VisitHistory,
		BlockingActive: &active,
	}
}

func (r *Router) addCustomSite(ctx context.Context, site string) Response {
	domain := classify.NormalizeDomain(site)
	if domain == "" {
		return Response{OK: false, Error: "empty site"}
	}

	st, err := r.store.Update(ctx, func(st *storage.PersistedState) error {
		st.AddCustomSite(domain)
		return nil
	})
	if err != nil {
		logging.Error(fmt.Sprintf("addCustomSite failed: %v", err))
		return Response{OK: false, Error: "persist failed"}
	}

	r.reconcile(ctx, st.CustomSites)
	return Response{OK: true, CustomSites: st.CustomSites}
}

func (r *Router) removeCustomSite(ctx context.Context, site string) Response {
	// An input that normalizes to "" removes nothing and still succeeds;
	// only additions reject empty sites.
	domain := classify.NormalizeDomain(site)

	st, err := r.store.Update(ctx, func(st *storage.PersistedState) error {
		st.RemoveCustomSite(domain)
		return nil
	})
	if err != nil {
		logging.Error(fmt.Sprintf("removeCustomSite failed: %v", err))
		return Response{OK: false, Error: "persist failed"}
	}

	r.reconcile(ctx, st.CustomSites)
	return Response{OK: true, CustomSites: st.CustomSites}
}

func (r *Router) resetStreak(ctx context.Context) Response {
	if err := r.dispatcher.ResetStreak(ctx); err != nil {
		logging.Error(fmt.Sprintf("resetStreak failed: %v", err))
		return Response{OK: false, Error: "persist failed"}
	}
	return Response{OK: true}
}

// Reconcile recompiles and installs the blocking ruleset from the currently
// stored custom sites. Used by the daemon at startup and on config change.
func (r *Router) Reconcile(ctx context.Context) {
	st, err := r.store.Load(ctx)
	if err != nil {
		logging.Error(fmt.Sprintf("rule reconcile load failed: %v", err))
		r.setBlockingActive(false)
		return
	}
	r.reconcile(ctx, st.CustomSites)
}

// SetCompiler swaps the rule compiler, used when the keyword set changes at
// runtime.
func (r *Router) SetCompiler(c *rules.Compiler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compiler = c
}

// BlockingActive reports whether the last reconciliation succeeded.
func (r *Router) BlockingActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockingActive
}

func (r *Router) setBlockingActive(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blockingActive = v
}

func (r *Router) currentCompiler() *rules.Compiler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compiler
}

func (r *Router) reconcile(ctx context.Context, customSites []string) {
	compiler := r.currentCompiler()
	if r.engine == nil || compiler == nil {
		r.setBlockingActive(false)
		return
	}
	if err := rules.Reconcile(ctx, r.engine, compiler.Compile(customSites)); err != nil {
		logging.Warn(fmt.Sprintf("rule reconciliation failed, blocking inactive: %v", err))
		r.setBlockingActive(false)
		return
	}
	r.setBlockingActive(true)
}
