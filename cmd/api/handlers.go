package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/loresmith/loresmith/engine/content"
	"github.com/loresmith/loresmith/engine/index"
	"github.com/loresmith/loresmith/engine/rag"
	"github.com/loresmith/loresmith/engine/semantic"
	"github.com/loresmith/loresmith/pkg/embedding"
	"github.com/loresmith/loresmith/pkg/metrics"
)

const (
	maxSearchLimit = 100
)

func newMux(store *semantic.Store, provider embedding.Provider, indexSvc *index.Service, assembler *rag.Assembler, registry *metrics.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(store))
	mux.HandleFunc("GET /api/stats", handleStats(store))
	mux.HandleFunc("POST /api/search", handleSearch(store, provider, logger))
	mux.HandleFunc("POST /api/context", handleContext(assembler, logger))
	mux.HandleFunc("POST /api/embed", handleEmbed(indexSvc, logger))
	mux.HandleFunc("POST /api/embed/batch", handleEmbedBatch(indexSvc, logger))
	mux.HandleFunc("DELETE /api/content/{type}/{id}", handleDelete(store, logger))
	mux.Handle("GET /metrics", registry.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryParams is the shared body shape for search and context requests.
type queryParams struct {
	Query     string            `json:"query"`
	Type      content.Kind      `json:"type,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Threshold float32           `json:"threshold,omitempty"`
	Filter    map[string]string `json:"filter,omitempty"`
}

// validate applies boundary checks and fills defaults.
func (p *queryParams) validate() error {
	if p.Query == "" {
		return errors.New("query is required")
	}
	if p.Type != "" && !p.Type.Valid() {
		return errors.New("unknown content type: " + string(p.Type))
	}
	if p.Limit == 0 {
		p.Limit = semantic.DefaultSearchLimit
	}
	if p.Limit < 1 || p.Limit > maxSearchLimit {
		return errors.New("limit must be between 1 and 100")
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return errors.New("threshold must be between 0 and 1")
	}
	return nil
}

func handleHealth(store *semantic.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store.HealthCheck(r.Context()) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "qdrant": true})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "qdrant": false})
	}
}

func handleStats(store *semantic.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"model":       store.Model(),
			"dimensions":  store.Dimensions(),
			"collections": store.Stats(r.Context()),
		})
	}
}

// searchHit is the wire shape of one search result.
type searchHit struct {
	ContentID   string         `json:"content_id"`
	ContentType string         `json:"content_type"`
	Score       float32        `json:"score"`
	SourceText  string         `json:"source_text"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func toSearchHit(h semantic.SearchHit) searchHit {
	return searchHit{
		ContentID:   h.Payload.ContentID,
		ContentType: string(h.Payload.ContentType),
		Score:       h.Score,
		SourceText:  h.Payload.SourceText,
		Metadata:    h.Payload.Metadata,
	}
}

func handleSearch(store *semantic.Store, provider embedding.Provider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params queryParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := params.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		vector, err := provider.Embed(r.Context(), params.Query)
		if err != nil {
			if errors.Is(err, embedding.ErrDisabled) {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			logger.Error("search: embed failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		hits, err := store.Search(r.Context(), vector, semantic.SearchOptions{
			Kind:           params.Type,
			Limit:          params.Limit,
			ScoreThreshold: params.Threshold,
			Filter:         params.Filter,
		})
		if err != nil {
			logger.Error("search failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		out := make([]searchHit, len(hits))
		for i, h := range hits {
			out[i] = toSearchHit(h)
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": out, "count": len(out)})
	}
}

func handleContext(assembler *rag.Assembler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params queryParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := params.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rc, err := assembler.BuildContext(r.Context(), params.Query, rag.Options{
			Kind:           params.Type,
			Limit:          params.Limit,
			ScoreThreshold: params.Threshold,
			Filter:         params.Filter,
		})
		if err != nil {
			if errors.Is(err, embedding.ErrDisabled) {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			logger.Error("context assembly failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, rc)
	}
}

// embedRequest indexes a single typed record.
type embedRequest struct {
	Type     content.Kind    `json:"type"`
	Record   json.RawMessage `json:"record"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

func handleEmbed(indexSvc *index.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec, err := content.DecodeRecord(req.Type, req.Record)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := indexSvc.IndexRecord(r.Context(), rec, req.Metadata); err != nil {
			var verr *content.ValidationError
			switch {
			case errors.As(err, &verr):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, embedding.ErrDisabled):
				writeError(w, http.StatusServiceUnavailable, err.Error())
			default:
				logger.Error("embed failed", "kind", req.Type, "err", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "content_id": rec.ContentID()})
	}
}

// embedBatchRequest indexes pre-extracted texts of one kind.
type embedBatchRequest struct {
	Type  content.Kind       `json:"type"`
	Items []index.BatchInput `json:"items"`
}

func handleEmbedBatch(indexSvc *index.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := indexSvc.IndexBatch(r.Context(), req.Type, req.Items)
		if err != nil {
			var verr *content.ValidationError
			switch {
			case errors.As(err, &verr):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, embedding.ErrDisabled):
				writeError(w, http.StatusServiceUnavailable, err.Error())
			default:
				logger.Error("batch embed failed", "kind", req.Type, "err", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleDelete(store *semantic.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := content.Kind(r.PathValue("type"))
		id := r.PathValue("id")
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown content type: "+string(kind))
			return
		}
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}

		if err := store.Delete(r.Context(), kind, id); err != nil {
			logger.Error("delete failed", "kind", kind, "content_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
