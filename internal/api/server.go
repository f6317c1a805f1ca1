// Package api exposes the crawl trigger endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kstarpick/crawler/internal/crawler"
	"github.com/kstarpick/crawler/internal/types"
)

// CrawlerService is the control surface the API drives.
type CrawlerService interface {
	Run(ctx context.Context, opts crawler.RunOptions) (*crawler.Result, error)
	Reclassify(ctx context.Context) (*crawler.ReclassifyResult, error)
	ReclassifyOne(ctx context.Context, id, sourceURL string) (*crawler.SingleReclassifyResult, error)
}

// Server provides the REST API that triggers crawl runs.
type Server struct {
	mux    *http.ServeMux
	port   int
	logger *slog.Logger

	// dynamic drives a browser-backed pipeline, static a plain HTTP one.
	dynamic CrawlerService
	static  CrawlerService
}

// NewServer creates the API server. static may be nil, in which case
// requests asking for non-dynamic crawling use the dynamic pipeline.
func NewServer(port int, dynamic, static CrawlerService, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		port:    port,
		logger:  logger.With("component", "api_server"),
		dynamic: dynamic,
		static:  static,
	}
	s.registerRoutes()
	return s
}

// Start runs the API server until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/news/crawl", s.handleCrawl)
	s.mux.HandleFunc("POST /api/news/reclassify", s.handleReclassify)
	s.mux.HandleFunc("POST /api/news/update-single-category", s.handleUpdateSingleCategory)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type crawlRequest struct {
	MaxItems                 int   `json:"maxItems"`
	ConcurrentRequests       int   `json:"concurrentRequests"`
	UseDynamicCrawling       *bool `json:"useDynamicCrawling"`
	UpdateExistingCategories bool  `json:"updateExistingCategories"`
}

type crawlResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Total   int    `json:"total"`
	New     int    `json:"new"`
	Updated *int   `json:"updated,omitempty"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.jsonResponse(w, http.StatusBadRequest, map[string]any{
				"success": false, "message": "invalid JSON",
			})
			return
		}
	}

	if req.MaxItems < 0 || req.ConcurrentRequests < 0 {
		s.jsonResponse(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "maxItems and concurrentRequests must be positive",
		})
		return
	}

	svc := s.pick(req.UseDynamicCrawling)

	result, err := svc.Run(r.Context(), crawler.RunOptions{
		MaxItems:           req.MaxItems,
		ConcurrentRequests: req.ConcurrentRequests,
	})
	if err != nil {
		if errors.Is(err, types.ErrNoCandidates) {
			s.jsonResponse(w, http.StatusNotFound, map[string]any{
				"success": false, "message": "no articles found on the source",
			})
			return
		}
		s.logger.Error("crawl run failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": err.Error(),
		})
		return
	}

	// Existing records are refreshed only once discovery has produced
	// something, so an empty source never spends reclassify work.
	var updated *int
	if req.UpdateExistingCategories {
		reclass, err := svc.Reclassify(r.Context())
		if err != nil {
			s.logger.Error("reclassify after crawl failed", "error", err)
			s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
				"success": false, "message": err.Error(),
			})
			return
		}
		updated = &reclass.Updated
	}

	message := fmt.Sprintf("added %d new articles", result.Inserted)
	if result.New == 0 {
		message = "no new articles"
	}
	if updated != nil {
		message = fmt.Sprintf("%s, updated %d existing categories", message, *updated)
	}

	s.jsonResponse(w, http.StatusOK, crawlResponse{
		Success: true,
		Message: message,
		Total:   result.Discovered,
		New:     result.Inserted,
		Updated: updated,
	})
}

func (s *Server) handleReclassify(w http.ResponseWriter, r *http.Request) {
	result, err := s.dynamic.Reclassify(r.Context())
	if err != nil {
		s.logger.Error("reclassify failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": err.Error(),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"candidates": result.Candidates,
		"updated":    result.Updated,
	})
}

func (s *Server) handleUpdateSingleCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewsID     string `json:"newsId"`
		ArticleURL string `json:"articleUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "invalid JSON",
		})
		return
	}
	if req.NewsID == "" && req.ArticleURL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "newsId or articleUrl is required",
		})
		return
	}

	result, err := s.dynamic.ReclassifyOne(r.Context(), req.NewsID, req.ArticleURL)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.jsonResponse(w, http.StatusNotFound, map[string]any{
				"success": false, "message": "news record not found",
			})
			return
		}
		s.logger.Error("single category update failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": err.Error(),
		})
		return
	}

	message := "category already up to date"
	if result.Updated {
		message = fmt.Sprintf("category updated from %s to %s", result.OldCategory, result.NewCategory)
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"result":  result,
	})
}

// pick selects the pipeline for a request. Dynamic crawling is the
// default; the static pipeline serves only when configured and asked
// for.
func (s *Server) pick(useDynamic *bool) CrawlerService {
	if useDynamic != nil && !*useDynamic && s.static != nil {
		return s.static
	}
	return s.dynamic
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
