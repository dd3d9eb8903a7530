package http_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	"github.com/fwojciec/sitecrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, s *sitecrawlhttp.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func linksCrawler(links ...string) *mock.Crawler {
	return &mock.Crawler{
		CrawlFn: func(_ context.Context, _ string, _ sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
			return &sitecrawl.CrawlResult{Links: links, Fetched: len(links) + 1}, nil
		},
	}
}

func TestServer_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("returns discovered links", func(t *testing.T) {
		t.Parallel()

		var gotSeed string
		var gotOpts sitecrawl.CrawlOptions
		s := sitecrawlhttp.NewServer()
		s.Crawler = &mock.Crawler{
			CrawlFn: func(_ context.Context, seedURL string, opts sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
				gotSeed, gotOpts = seedURL, opts
				return &sitecrawl.CrawlResult{Links: []string{"https://example.com/about/"}}, nil
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/","maxConcurrency":3}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"links": []any{"https://example.com/about/"}}, decodeBody(t, rec))
		assert.Equal(t, "https://example.com/", gotSeed)
		assert.Equal(t, 3, gotOpts.MaxConcurrency)
	})

	t.Run("returns empty array when nothing is found", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"links":[]}`, rec.Body.String())
	})

	t.Run("requires a URL", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()

		for _, body := range []string{`{}`, `{"url":""}`} {
			rec := serve(t, s, http.MethodPost, "/api/crawl", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"error": "URL is required"}, decodeBody(t, rec))
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "invalid JSON body")
	})

	t.Run("rejects out-of-range concurrency", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/","maxConcurrency":1000}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "maxConcurrency must be between 0 and 100", decodeBody(t, rec)["error"])
	})

	t.Run("maps invalid seed to 400", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = &mock.Crawler{
			CrawlFn: func(_ context.Context, seedURL string, _ sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
				return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid seed URL %q", seedURL)
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"nope"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, `invalid seed URL "nope"`, decodeBody(t, rec)["error"])
	})

	t.Run("hides internal errors", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = &mock.Crawler{
			CrawlFn: func(_ context.Context, _ string, _ sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
				return nil, errors.New("database password is hunter2")
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal error", decodeBody(t, rec)["error"])
	})

	t.Run("records the crawl when history is enabled", func(t *testing.T) {
		t.Parallel()

		var saved *sitecrawl.Crawl
		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler("https://example.com/a/", "https://example.com/b/")
		s.CrawlService = &mock.CrawlService{
			CreateCrawlFn: func(_ context.Context, crawl *sitecrawl.Crawl) error {
				crawl.ID = "crawl-1"
				saved = crawl
				return nil
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "crawl-1", decodeBody(t, rec)["id"])
		require.NotNil(t, saved)
		assert.Equal(t, "https://example.com/", saved.SeedURL)
		assert.Equal(t, []string{"https://example.com/a/", "https://example.com/b/"}, saved.Links)
		assert.Equal(t, 3, saved.Fetched)
	})

	t.Run("still answers when recording fails", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler("https://example.com/a/")
		s.CrawlService = &mock.CrawlService{
			CreateCrawlFn: func(_ context.Context, _ *sitecrawl.Crawl) error {
				return errors.New("disk full")
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"links":["https://example.com/a/"]}`, rec.Body.String())
	})

	t.Run("forwards links to the notifier", func(t *testing.T) {
		t.Parallel()

		var gotLinks []string
		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler("https://example.com/a/")
		s.Notifier = &mock.Notifier{
			NotifyFn: func(_ context.Context, _ string, links []string) error {
				gotLinks = links
				return nil
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"https://example.com/a/"}, gotLinks)
	})

	t.Run("skips the notifier when no links were found", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()
		s.Notifier = &mock.Notifier{
			NotifyFn: func(_ context.Context, _ string, _ []string) error {
				t.Error("notifier should not be called")
				return nil
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ignores notifier failures", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler("https://example.com/a/")
		s.Notifier = &mock.Notifier{
			NotifyFn: func(_ context.Context, _ string, _ []string) error {
				return errors.New("webhook for https://example.com/: HTTP 502")
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"links":["https://example.com/a/"]}`, rec.Body.String())
	})

	t.Run("rejects other methods", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()

		rec := serve(t, s, http.MethodGet, "/api/crawl", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("limits clients over their budget", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.Crawler = linksCrawler()
		s.Limiter = sitecrawlhttp.NewClientLimiter(0.001, 2)

		codes := make([]int, 3)
		for i := range codes {
			codes[i] = serve(t, s, http.MethodPost, "/api/crawl", `{"url":"https://example.com/"}`).Code
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}

func TestServer_Crawls(t *testing.T) {
	t.Parallel()

	stored := &sitecrawl.Crawl{
		ID:        "crawl-1",
		SeedURL:   "https://example.com/",
		Links:     []string{"https://example.com/a/"},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("lists crawls with filter", func(t *testing.T) {
		t.Parallel()

		var got sitecrawl.CrawlFilter
		s := sitecrawlhttp.NewServer()
		s.CrawlService = &mock.CrawlService{
			FindCrawlsFn: func(_ context.Context, filter sitecrawl.CrawlFilter) ([]*sitecrawl.Crawl, error) {
				got = filter
				return []*sitecrawl.Crawl{stored}, nil
			},
		}

		rec := serve(t, s, http.MethodGet, "/api/crawls?seed=https://example.com/&limit=10&offset=5", "")

		require.Equal(t, http.StatusOK, rec.Code)
		crawls := decodeBody(t, rec)["crawls"].([]any)
		require.Len(t, crawls, 1)
		assert.Equal(t, "crawl-1", crawls[0].(map[string]any)["id"])
		require.NotNil(t, got.SeedURL)
		assert.Equal(t, "https://example.com/", *got.SeedURL)
		assert.Equal(t, 10, got.Limit)
		assert.Equal(t, 5, got.Offset)
	})

	t.Run("returns empty list", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.CrawlService = &mock.CrawlService{
			FindCrawlsFn: func(_ context.Context, _ sitecrawl.CrawlFilter) ([]*sitecrawl.Crawl, error) {
				return nil, nil
			},
		}

		rec := serve(t, s, http.MethodGet, "/api/crawls", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"crawls":[]}`, rec.Body.String())
	})

	t.Run("rejects bad paging", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.CrawlService = &mock.CrawlService{}

		rec := serve(t, s, http.MethodGet, "/api/crawls?limit=-1", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "limit must be a non-negative integer", decodeBody(t, rec)["error"])
	})

	t.Run("gets crawl by ID", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.CrawlService = &mock.CrawlService{
			FindCrawlByIDFn: func(_ context.Context, id string) (*sitecrawl.Crawl, error) {
				if id != "crawl-1" {
					return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "crawl not found")
				}
				return stored, nil
			},
		}

		rec := serve(t, s, http.MethodGet, "/api/crawls/crawl-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "https://example.com/", body["seedUrl"])
		assert.Equal(t, "2026-01-02T03:04:05Z", body["createdAt"])

		rec = serve(t, s, http.MethodGet, "/api/crawls/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "crawl not found", decodeBody(t, rec)["error"])
	})

	t.Run("returns 404 when history is disabled", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()

		assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/api/crawls", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/api/crawls/x", "").Code)
	})
}

func TestServer_Screenshots(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\nfake")
	encoded := base64.StdEncoding.EncodeToString(png)

	t.Run("saves decoded screenshot", func(t *testing.T) {
		t.Parallel()

		var got *sitecrawl.Screenshot
		s := sitecrawlhttp.NewServer()
		s.ScreenshotStore = &mock.ScreenshotStore{
			SaveScreenshotFn: func(_ context.Context, shot *sitecrawl.Screenshot) (string, error) {
				got = shot
				return "/tmp/1.png", nil
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/screenshots", `{"url":"https://example.com/","screenshot":"`+encoded+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"success": true}, decodeBody(t, rec))
		require.NotNil(t, got)
		assert.Equal(t, "https://example.com/", got.URL)
		assert.Equal(t, png, got.Data)
	})

	t.Run("accepts data URLs", func(t *testing.T) {
		t.Parallel()

		var got []byte
		s := sitecrawlhttp.NewServer()
		s.ScreenshotStore = &mock.ScreenshotStore{
			SaveScreenshotFn: func(_ context.Context, shot *sitecrawl.Screenshot) (string, error) {
				got = shot.Data
				return "", nil
			},
		}

		rec := serve(t, s, http.MethodPost, "/api/screenshots", `{"screenshot":"data:image/png;base64,`+encoded+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, png, got)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()
		s.ScreenshotStore = &mock.ScreenshotStore{
			SaveScreenshotFn: func(_ context.Context, _ *sitecrawl.Screenshot) (string, error) {
				t.Error("store should not be called")
				return "", nil
			},
		}

		tests := []struct {
			name string
			body string
			want string
		}{
			{"malformed JSON", `not json`, "invalid JSON body"},
			{"missing screenshot", `{"url":"https://example.com/"}`, "screenshot is required"},
			{"invalid base64", `{"screenshot":"%%%"}`, "invalid base64 screenshot"},
			{"broken data URL", `{"screenshot":"data:image/png;base64"}`, "malformed data URL"},
		}
		for _, tt := range tests {
			rec := serve(t, s, http.MethodPost, "/api/screenshots", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
			assert.Contains(t, decodeBody(t, rec)["error"], tt.want, tt.name)
		}
	})

	t.Run("returns 404 when uploads are disabled", func(t *testing.T) {
		t.Parallel()

		s := sitecrawlhttp.NewServer()

		rec := serve(t, s, http.MethodPost, "/api/screenshots", `{"screenshot":"`+encoded+`"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	rec := serve(t, sitecrawlhttp.NewServer(), http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	t.Run("shuts down when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		s := sitecrawlhttp.NewServer()
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Serve(ctx, ln) }()

		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})

	t.Run("lets in-flight crawls finish", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		started := make(chan struct{})
		release := make(chan struct{})
		var finished atomic.Bool
		s := sitecrawlhttp.NewServer()
		s.Crawler = &mock.Crawler{
			CrawlFn: func(_ context.Context, _ string, _ sitecrawl.CrawlOptions) (*sitecrawl.CrawlResult, error) {
				close(started)
				<-release
				finished.Store(true)
				return &sitecrawl.CrawlResult{Links: []string{}}, nil
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Serve(ctx, ln) }()

		respc := make(chan int, 1)
		go func() {
			resp, err := http.Post("http://"+ln.Addr().String()+"/api/crawl", "application/json", strings.NewReader(`{"url":"https://example.com/"}`))
			if err != nil {
				respc <- 0
				return
			}
			resp.Body.Close()
			respc <- resp.StatusCode
		}()

		<-started
		cancel()
		time.Sleep(50 * time.Millisecond)
		close(release)

		assert.Equal(t, http.StatusOK, <-respc)
		require.NoError(t, <-done)
		assert.True(t, finished.Load())
	})

	t.Run("reports listen errors", func(t *testing.T) {
		t.Parallel()

		err := sitecrawlhttp.NewServer().ListenAndServe(context.Background(), "256.0.0.1:bad")
		require.Error(t, err)
	})
}
