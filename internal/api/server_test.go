package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kstarpick/crawler/internal/crawler"
	"github.com/kstarpick/crawler/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeService struct {
	runOpts       []crawler.RunOptions
	runResult     *crawler.Result
	runErr        error
	reclassResult *crawler.ReclassifyResult
	reclassErr    error
	singleResult  *crawler.SingleReclassifyResult
	singleErr     error
	reclassCalls  int
}

func (f *fakeService) Run(_ context.Context, opts crawler.RunOptions) (*crawler.Result, error) {
	f.runOpts = append(f.runOpts, opts)
	return f.runResult, f.runErr
}

func (f *fakeService) Reclassify(_ context.Context) (*crawler.ReclassifyResult, error) {
	f.reclassCalls++
	return f.reclassResult, f.reclassErr
}

func (f *fakeService) ReclassifyOne(_ context.Context, id, url string) (*crawler.SingleReclassifyResult, error) {
	return f.singleResult, f.singleErr
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	s := NewServer(0, &fakeService{}, nil, testLogger)
	rec := doJSON(t, s, "GET", "/api/health", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCrawlSuccess(t *testing.T) {
	svc := &fakeService{runResult: &crawler.Result{Discovered: 15, New: 4, Inserted: 4}}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", `{"maxItems": 20, "concurrentRequests": 5}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["total"] != float64(15) || body["new"] != float64(4) {
		t.Errorf("body = %v", body)
	}
	if _, present := body["updated"]; present {
		t.Error("updated should be omitted when categories were not refreshed")
	}

	if len(svc.runOpts) != 1 {
		t.Fatalf("run calls = %d", len(svc.runOpts))
	}
	if svc.runOpts[0].MaxItems != 20 || svc.runOpts[0].ConcurrentRequests != 5 {
		t.Errorf("opts = %+v", svc.runOpts[0])
	}
	if svc.reclassCalls != 0 {
		t.Errorf("reclassify calls = %d, want 0", svc.reclassCalls)
	}
}

func TestCrawlEmptyBodyUsesDefaults(t *testing.T) {
	svc := &fakeService{runResult: &crawler.Result{}}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.runOpts[0].MaxItems != 0 {
		t.Errorf("maxItems = %d, want 0 so config defaults apply", svc.runOpts[0].MaxItems)
	}
}

func TestCrawlWithCategoryRefresh(t *testing.T) {
	svc := &fakeService{
		runResult:     &crawler.Result{Discovered: 10, New: 2, Inserted: 2},
		reclassResult: &crawler.ReclassifyResult{Candidates: 7, Updated: 3},
	}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", `{"updateExistingCategories": true}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["updated"] != float64(3) {
		t.Errorf("updated = %v, want 3", body["updated"])
	}
	if svc.reclassCalls != 1 {
		t.Errorf("reclassify calls = %d, want 1", svc.reclassCalls)
	}
}

func TestCrawlRejectsNegativeOptions(t *testing.T) {
	svc := &fakeService{runResult: &crawler.Result{}}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", `{"maxItems": -1}`)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(svc.runOpts) != 0 {
		t.Error("run should not be invoked for invalid options")
	}
}

func TestCrawlNoCandidates(t *testing.T) {
	svc := &fakeService{runErr: types.ErrNoCandidates}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", "{}")
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCrawlNoCandidatesSkipsCategoryRefresh(t *testing.T) {
	svc := &fakeService{
		runErr:        types.ErrNoCandidates,
		reclassResult: &crawler.ReclassifyResult{Candidates: 7, Updated: 3},
	}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", `{"updateExistingCategories": true}`)
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if svc.reclassCalls != 0 {
		t.Errorf("reclassify calls = %d, want 0 when discovery found nothing", svc.reclassCalls)
	}
}

func TestCrawlStorageFailure(t *testing.T) {
	svc := &fakeService{runErr: &types.StorageError{Op: "insert_articles"}}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/crawl", "{}")
	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestCrawlPicksStaticPipeline(t *testing.T) {
	dynamic := &fakeService{runResult: &crawler.Result{}}
	static := &fakeService{runResult: &crawler.Result{}}
	s := NewServer(0, dynamic, static, testLogger)

	doJSON(t, s, "POST", "/api/news/crawl", `{"useDynamicCrawling": false}`)
	if len(static.runOpts) != 1 || len(dynamic.runOpts) != 0 {
		t.Errorf("static runs = %d, dynamic runs = %d", len(static.runOpts), len(dynamic.runOpts))
	}

	doJSON(t, s, "POST", "/api/news/crawl", `{"useDynamicCrawling": true}`)
	if len(dynamic.runOpts) != 1 {
		t.Errorf("dynamic runs = %d", len(dynamic.runOpts))
	}

	// Omitting the flag defaults to dynamic.
	doJSON(t, s, "POST", "/api/news/crawl", `{}`)
	if len(dynamic.runOpts) != 2 {
		t.Errorf("dynamic runs = %d", len(dynamic.runOpts))
	}
}

func TestUpdateSingleCategory(t *testing.T) {
	svc := &fakeService{singleResult: &crawler.SingleReclassifyResult{
		Title:       "Some Headline",
		OldCategory: types.CategoryKpop,
		NewCategory: types.CategoryDrama,
		Updated:     true,
	}}
	s := NewServer(0, svc, nil, testLogger)

	rec := doJSON(t, s, "POST", "/api/news/update-single-category", `{"articleUrl": "https://www.soompi.com/article/a"}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestUpdateSingleCategoryRequiresIdentifier(t *testing.T) {
	s := NewServer(0, &fakeService{}, nil, testLogger)
	rec := doJSON(t, s, "POST", "/api/news/update-single-category", `{}`)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateSingleCategoryNotFound(t *testing.T) {
	svc := &fakeService{singleErr: types.ErrNotFound}
	s := NewServer(0, svc, nil, testLogger)
	rec := doJSON(t, s, "POST", "/api/news/update-single-category", `{"newsId": "000000000000000000000000"}`)
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
