package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"syllabook/internal"
	"syllabook/internal/config"
	"syllabook/internal/storage"
)

// Fetcher downloads syllabus pages in bulk, stores the HTML under the raw
// snapshot directory and records each saved page for the scrape stage. A
// failed download is reported and skipped; the batch continues.
type Fetcher struct {
	db         *storage.DB
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewFetcher(db *storage.DB, cfg config.Config) *Fetcher {
	return &Fetcher{
		db:         db,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.FetchTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.FetchRateLimitRPS),
	}
}

type FetchResult struct {
	Fetched int
	Saved   int
	Failed  int
}

func (f *Fetcher) FetchAll(ctx context.Context, targets []Target) (FetchResult, error) {
	if err := os.MkdirAll(f.cfg.RawHTMLDir, 0o755); err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{}
	for index, target := range targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Fetched++

		blob, err := f.download(ctx, target.URL)
		if err != nil {
			result.Failed++
			fmt.Fprintf(os.Stderr, "fetch failed url=%s: %v\n", target.URL, err)
			continue
		}

		destination := EnsureUniquePath(filepath.Join(f.cfg.RawHTMLDir, target.ResolveFileName(index+1)))
		if err := os.WriteFile(destination, blob, 0o644); err != nil {
			return result, err
		}

		fileName := filepath.Base(destination)
		if _, err := f.db.UpsertPage(target.URL, fileName, destination, time.Now().UTC().Format(time.RFC3339), internal.PageFetched); err != nil {
			return result, err
		}
		result.Saved++
		fmt.Printf("fetched %s -> %s\n", target.URL, fileName)

		if f.cfg.FetchDelayMs > 0 && index < len(targets)-1 {
			time.Sleep(time.Duration(f.cfg.FetchDelayMs) * time.Millisecond)
		}
	}

	_ = f.db.SetMetadata("fetch.last_run", time.Now().UTC().Format(time.RFC3339))
	return result, nil
}

func (f *Fetcher) download(ctx context.Context, pageURL string) ([]byte, error) {
	maxRetries := f.cfg.FetchMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		f.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", f.cfg.FetchUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		if f.cfg.FetchAuthCookie != "" {
			req.Header.Set("Cookie", f.cfg.FetchAuthCookie)
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) && attempt < maxRetries {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
			return nil, lastErr
		}

		return body, nil
	}

	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
