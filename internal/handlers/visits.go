package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Team-synvo/jb-ai/internal/platform/httpx"
	"github.com/Team-synvo/jb-ai/internal/platform/requestctx"
	"github.com/Team-synvo/jb-ai/internal/visits"
)

// VisitCounter is the counter surface the endpoints need. *visits.Service satisfies it.
type VisitCounter interface {
	Record(ctx context.Context) (int64, error)
	Total(ctx context.Context) (int64, error)
}

// VisitorMarker remembers that a visitor has been counted. *middleware.VisitorCookies satisfies it.
type VisitorMarker interface {
	MarkCounted(w http.ResponseWriter, visitor requestctx.Visitor)
}

// VisitHandlers serves POST /api/visit and GET /api/visits.
type VisitHandlers struct {
	counter VisitCounter
	marker  VisitorMarker
}

func NewVisitHandlers(counter VisitCounter, marker VisitorMarker) *VisitHandlers {
	return &VisitHandlers{counter: counter, marker: marker}
}

func writeUnavailable(ctx context.Context, w http.ResponseWriter, err error) {
	requestctx.Logger(ctx).Warn("visit counter unavailable", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("visits_unavailable", "visit counter is unavailable", http.StatusServiceUnavailable))
}

// Record counts the requesting visitor once. Repeat calls from a counted visitor only report
// the total. No request body is required.
func (h *VisitHandlers) Record(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor, ok := requestctx.VisitorFrom(ctx)

	if ok && visitor.Counted {
		total, err := h.counter.Total(ctx)
		if err != nil {
			writeUnavailable(ctx, w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, visits.Totals{Total: total})
		return
	}

	total, err := h.counter.Record(ctx)
	if err != nil {
		writeUnavailable(ctx, w, err)
		return
	}
	if ok && h.marker != nil {
		h.marker.MarkCounted(w, visitor)
	}
	requestctx.Logger(ctx).Debug("visit recorded", zap.String("visitor", visitor.ID), zap.Int64("total", total))
	httpx.WriteJSON(w, http.StatusOK, visits.Totals{Total: total, Counted: true})
}

// Total reports {"total": n}.
func (h *VisitHandlers) Total(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.counter.Total(ctx)
	if err != nil {
		writeUnavailable(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, visits.Totals{Total: total})
}
