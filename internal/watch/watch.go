// Package watch consumes navigation events forwarded by the extension and
// decides whether each one counts as a detection.
package watch

import (
	"context"
	"fmt"

	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/dispatch"
	"github.com/bnema/streakwatch/internal/logging"
	"github.com/bnema/streakwatch/internal/storage"
)

// Event sources, matching the extension's two observation points.
const (
	SourceCommitted = "committed"
	SourceRequest   = "request"
)

// Event is a single navigation observation.
type Event struct {
	URL          string `json:"url"`
	FrameID      int    `json:"frameId"`
	ResourceType string `json:"resourceType,omitempty"`
	Source       string `json:"source"`
}

// TopLevel reports whether the event describes a top-level navigation.
// Committed events carry a frame id, request events a resource type.
func (e Event) TopLevel() bool {
	switch e.Source {
	case SourceCommitted:
		return e.FrameID == 0
	case SourceRequest:
		return e.ResourceType == "main_frame"
	default:
		return false
	}
}

// Observer classifies incoming navigation events and hands positives to the
// dispatcher. A failure on one event never affects the next.
type Observer struct {
	store      storage.Store
	classifier *classify.Classifier
	dispatcher *dispatch.Dispatcher
}

// NewObserver creates an observer.
func NewObserver(store storage.Store, classifier *classify.Classifier, dispatcher *dispatch.Dispatcher) *Observer {
	return &Observer{
		store:      store,
		classifier: classifier,
		dispatcher: dispatcher,
	}
}

// Observe inspects one navigation event. It returns true when the event was
// dispatched as a detection.
func (o *Observer) Observe(ctx context.Context, ev Event) bool {
	if ev.URL == "" || !ev.TopLevel() {
		return false
	}

	st, err := o.store.Load(ctx)
	if err != nil {
		logging.Error(fmt.Sprintf("failed to load state for classification: %v", err))
		return false
	}

	if !o.classifier.IsAdultURL(ev.URL, st.CustomSites) {
		return false
	}

	logging.FromContext(logging.WithURL(ctx, ev.URL)).Info().
		Str("source", ev.Source).
		Msg("detection")

	if _, err := o.dispatcher.OnDetection(ctx); err != nil {
		logging.Error(fmt.Sprintf("detection dispatch failed: %v", err))
		return false
	}
	return true
}
