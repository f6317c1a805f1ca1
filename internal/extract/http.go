package extract

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/types"
)

// minPageLength guards against bot-block interstitials and error pages
// that come back with a 200.
const minPageLength = 1000

// HTTPLoader fetches article pages over plain HTTP. It is the
// lightweight strategy: tried before the browser, and again after the
// browser fails, with an alternate client identity.
type HTTPLoader struct {
	client        *http.Client
	cfg           *config.FetcherConfig
	logger        *slog.Logger
	userAgents    []string
	altUserAgents []string
}

// NewHTTPLoader creates an HTTPLoader from the fetcher configuration.
func NewHTTPLoader(cfg *config.FetcherConfig, logger *slog.Logger) *HTTPLoader {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("max redirects (5) reached")
			}
			return nil
		},
	}

	return &HTTPLoader{
		client:        client,
		cfg:           cfg,
		logger:        logger.With("component", "http_loader"),
		userAgents:    cfg.UserAgents,
		altUserAgents: cfg.AltUserAgents,
	}
}

// LoadHTML fetches a page with the primary client identity.
func (l *HTTPLoader) LoadHTML(ctx context.Context, pageURL string) (string, error) {
	return l.load(ctx, pageURL, false)
}

// LoadHTMLAlternate fetches a page with a mobile/alternate identity
// after a randomized delay, for the post-browser retry.
func (l *HTTPLoader) LoadHTMLAlternate(ctx context.Context, pageURL string) (string, error) {
	delay := l.cfg.MinDelay + time.Duration(rand.Int63n(int64(l.cfg.MaxDelay-l.cfg.MinDelay)+1))
	l.logger.Debug("delaying alternate fetch", "url", pageURL, "delay", delay)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return l.load(ctx, pageURL, true)
}

func (l *HTTPLoader) load(ctx context.Context, pageURL string, alternate bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &types.FetchError{URL: pageURL, Err: err, Retryable: false}
	}

	req.Header.Set("User-Agent", l.pickUserAgent(alternate))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return "", &types.FetchError{
			URL:       pageURL,
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &types.FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)),
			Retryable:  resp.StatusCode == 429 || resp.StatusCode >= 500,
		}
	}

	var reader io.Reader = resp.Body
	if l.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, l.cfg.MaxBodySize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return "", &types.FetchError{URL: pageURL, Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &types.FetchError{URL: pageURL, Err: err, Retryable: true}
	}

	l.logger.Debug("page fetched",
		"url", pageURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
		"alternate", alternate,
	)

	if len(body) < minPageLength {
		return "", &types.FetchError{
			URL:       pageURL,
			Err:       fmt.Errorf("page body too short (%d bytes)", len(body)),
			Retryable: true,
		}
	}

	return string(body), nil
}

// Close releases idle connections.
func (l *HTTPLoader) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

func (l *HTTPLoader) pickUserAgent(alternate bool) string {
	pool := l.userAgents
	if alternate && len(l.altUserAgents) > 0 {
		pool = l.altUserAgents
	}
	if len(pool) == 0 {
		return "kstarpick-crawler/" + config.Version
	}
	return pool[rand.Intn(len(pool))]
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}
