package fetch

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"syllabook/internal"
	"syllabook/internal/config"
	"syllabook/internal/storage"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestFetchAllWithRetry(t *testing.T) {
	tmp := t.TempDir()

	cfg, _ := config.Load()
	cfg.RawHTMLDir = filepath.Join(tmp, "html")
	cfg.FetchRateLimitRPS = 1000
	cfg.FetchDelayMs = 0
	cfg.FetchMaxRetries = 3

	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	attempt := 0
	fetcher := NewFetcher(db, cfg)
	fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			attempt++
			if attempt == 1 {
				return &http.Response{
					StatusCode: http.StatusServiceUnavailable,
					Body:       io.NopCloser(strings.NewReader("busy")),
					Header:     make(http.Header),
				}, nil
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("<html><body>syllabus</body></html>")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	targets := []Target{{URL: "https://syllabus.example.ac.jp/view?id=1", CourseCode: "PHY101"}}
	result, err := fetcher.FetchAll(context.Background(), targets)
	if err != nil {
		t.Fatal(err)
	}
	if result.Saved != 1 || result.Failed != 0 {
		t.Fatalf("result %+v", result)
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}

	page, err := db.MustPageByFileName("phy101.html")
	if err != nil {
		t.Fatal(err)
	}
	if page.Status != internal.PageFetched {
		t.Fatalf("status %s", page.Status)
	}
}

func TestFetchAllFailedTargetDoesNotStopBatch(t *testing.T) {
	tmp := t.TempDir()

	cfg, _ := config.Load()
	cfg.RawHTMLDir = filepath.Join(tmp, "html")
	cfg.FetchRateLimitRPS = 1000
	cfg.FetchDelayMs = 0
	cfg.FetchMaxRetries = 1

	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	fetcher := NewFetcher(db, cfg)
	fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if strings.Contains(r.URL.RawQuery, "id=1") {
				return &http.Response{
					StatusCode: http.StatusNotFound,
					Body:       io.NopCloser(strings.NewReader("gone")),
					Header:     make(http.Header),
				}, nil
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("<html></html>")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	targets := []Target{
		{URL: "https://syllabus.example.ac.jp/view?id=1"},
		{URL: "https://syllabus.example.ac.jp/view?id=2", CourseCode: "CHEM200"},
	}
	result, err := fetcher.FetchAll(context.Background(), targets)
	if err != nil {
		t.Fatal(err)
	}
	if result.Fetched != 2 || result.Saved != 1 || result.Failed != 1 {
		t.Fatalf("result %+v", result)
	}
}
