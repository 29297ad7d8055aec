package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/Team-synvo/jb-ai/internal/catalog"
	"github.com/Team-synvo/jb-ai/internal/format"
	"github.com/Team-synvo/jb-ai/internal/platform/httpx"
	"github.com/Team-synvo/jb-ai/internal/platform/requestctx"
	"github.com/Team-synvo/jb-ai/internal/visibility"
	"github.com/Team-synvo/jb-ai/internal/visits"
)

// CatalogSource yields the catalog to render. *catalog.Store satisfies it.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// TotalReader reads the visit total for the initial page render.
type TotalReader interface {
	Total(ctx context.Context) (int64, error)
}

// SiteHandlers serves the page and the JSON decision endpoint.
type SiteHandlers struct {
	catalogs CatalogSource
	renderer *Renderer
	totals   TotalReader
	lang     language.Tag
	refresh  time.Duration
}

// SiteOption customises SiteHandlers.
type SiteOption func(*SiteHandlers)

// WithTotals shows the current visit total in the first render.
func WithTotals(t TotalReader) SiteOption {
	return func(h *SiteHandlers) {
		h.totals = t
	}
}

// WithLanguage sets the page language and number formatting.
func WithLanguage(tag language.Tag) SiteOption {
	return func(h *SiteHandlers) {
		h.lang = tag
	}
}

// WithRefreshInterval sets how often the page polls the visit total.
func WithRefreshInterval(d time.Duration) SiteOption {
	return func(h *SiteHandlers) {
		if d > 0 {
			h.refresh = d
		}
	}
}

func NewSiteHandlers(catalogs CatalogSource, renderer *Renderer, opts ...SiteOption) *SiteHandlers {
	h := &SiteHandlers{
		catalogs: catalogs,
		renderer: renderer,
		lang:     language.English,
		refresh:  visits.DefaultRefreshInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type pillView struct {
	ID     visibility.Filter `json:"id"`
	Label  string            `json:"label"`
	Active bool              `json:"active"`
	Href   string            `json:"-"`
}

type itemView struct {
	ID           string
	Name         string
	Summary      string
	Badge        string
	Code         string
	Instructions []string
	Hidden       bool
}

type sectionView struct {
	ID       string
	Tag      string
	Title    string
	Category visibility.Category
	BodyHTML template.HTML
	Items    []itemView
	Hidden   bool
}

type pageData struct {
	Lang          string
	Title         string
	Tagline       string
	Query         string
	ActiveFilter  visibility.Filter
	Filters       []pillView
	Sections      []sectionView
	ShowNoResults bool
	EchoedQuery   string
	VisitTotal    string
	RefreshMillis int64
}

type decisionResponse struct {
	Filters  []pillView                `json:"filters"`
	Decision visibility.RenderDecision `json:"decision"`
}

// decide runs a fresh engine for the request: the filter first, then the query, matching the
// order a visitor would click a pill and then type.
func decide(cat *catalog.Catalog, q url.Values) (*visibility.Engine, visibility.RenderDecision, error) {
	engine := cat.NewEngine()
	decision := engine.Decision()

	if raw, ok := q["filter"]; ok && len(raw) > 0 {
		filter, err := engine.ParseFilter(raw[0])
		if err != nil {
			return nil, visibility.RenderDecision{}, err
		}
		if decision, err = engine.SetActiveFilter(filter); err != nil {
			return nil, visibility.RenderDecision{}, err
		}
	}
	if query := q.Get("q"); query != "" {
		decision = engine.SetQuery(query)
	}
	return engine, decision, nil
}

func pills(cat *catalog.Catalog, engine *visibility.Engine, active visibility.Filter) []pillView {
	filters := engine.Filters()
	out := make([]pillView, 0, len(filters))
	for _, f := range filters {
		out = append(out, pillView{
			ID:     f,
			Label:  cat.FilterLabel(f),
			Active: f == active,
			Href:   "/?" + url.Values{"filter": {string(f)}}.Encode(),
		})
	}
	return out
}

func writeInvalidFilter(ctx context.Context, w http.ResponseWriter, err error, raw string) {
	requestctx.Logger(ctx).Info("rejected filter", zap.String("filter", raw))
	httpx.WriteError(ctx, w, httpx.NewError("invalid_filter", err.Error(), http.StatusBadRequest).
		WithDetails(map[string]any{"filter": raw}))
}

// Page renders the catalog with ?filter= and ?q= applied server side.
func (h *SiteHandlers) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat := h.catalogs.Current()
	q := r.URL.Query()

	engine, decision, err := decide(cat, q)
	if err != nil {
		if errors.Is(err, visibility.ErrUnknownFilter) {
			writeInvalidFilter(ctx, w, err, q.Get("filter"))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unable to evaluate filters", http.StatusInternalServerError))
		return
	}

	data := pageData{
		Lang:          h.lang.String(),
		Title:         cat.Title,
		Tagline:       cat.Tagline,
		Query:         q.Get("q"),
		ActiveFilter:  decision.ActiveFilter,
		Filters:       pills(cat, engine, decision.ActiveFilter),
		ShowNoResults: decision.ShowNoResults,
		EchoedQuery:   decision.EchoedQuery,
		VisitTotal:    h.visitTotal(ctx),
		RefreshMillis: h.refresh.Milliseconds(),
	}
	for _, s := range cat.Sections {
		sv := sectionView{
			ID:       s.ID,
			Tag:      s.Tag,
			Title:    s.Title,
			Category: s.Category,
			// BodyHTML is sanitized when the catalog is parsed.
			BodyHTML: template.HTML(s.BodyHTML),
			Hidden:   !decision.SectionVisible(visibility.SectionID(s.ID)),
		}
		for _, it := range s.Items {
			sv.Items = append(sv.Items, itemView{
				ID:           it.ID,
				Name:         it.Name,
				Summary:      it.Summary,
				Badge:        it.Badge,
				Code:         it.Code,
				Instructions: it.Instructions,
				Hidden:       !decision.ItemVisible(visibility.ItemID(it.ID)),
			})
		}
		data.Sections = append(data.Sections, sv)
	}

	if err := h.renderer.Render(w, http.StatusOK, "page", data); err != nil {
		requestctx.Logger(ctx).Error("render page", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("render_failed", "unable to render page", http.StatusInternalServerError))
	}
}

func (h *SiteHandlers) visitTotal(ctx context.Context) string {
	if h.totals == nil {
		return visits.DisplayPending
	}
	total, err := h.totals.Total(ctx)
	if err != nil {
		return visits.DisplayError
	}
	return format.Count(h.lang, total)
}

// Decision returns the RenderDecision for ?filter= and ?q= as JSON.
func (h *SiteHandlers) Decision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat := h.catalogs.Current()
	q := r.URL.Query()

	engine, decision, err := decide(cat, q)
	if err != nil {
		writeInvalidFilter(ctx, w, err, q.Get("filter"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, decisionResponse{
		Filters:  pills(cat, engine, decision.ActiveFilter),
		Decision: decision,
	})
}
