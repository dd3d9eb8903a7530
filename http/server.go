package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/go-playground/validator/v10"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 30 * time.Second

	// MaxRequestConcurrency is the largest maxConcurrency a caller may ask for.
	MaxRequestConcurrency = 100

	// maxRequestBody caps JSON request bodies; screenshots dominate.
	maxRequestBody = 32 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldLabels names request fields in validation messages.
var fieldLabels = map[string]string{
	"URL":            "URL",
	"MaxConcurrency": "maxConcurrency",
	"Screenshot":     "screenshot",
	"Limit":          "limit",
	"Offset":         "offset",
}

// Server is the JSON API in front of the crawler. Optional services left
// nil disable the features that need them.
type Server struct {
	Crawler         sitecrawl.Crawler
	CrawlService    sitecrawl.CrawlService    // optional: history endpoints and recording
	Notifier        sitecrawl.Notifier        // optional: webhook forwarding
	ScreenshotStore sitecrawl.ScreenshotStore // optional: screenshot uploads
	Limiter         *ClientLimiter            // optional: limits POST endpoints

	Logger          *slog.Logger
	ShutdownTimeout time.Duration

	mux *http.ServeMux
}

// NewServer creates a Server with its routes registered.
func NewServer() *Server {
	s := &Server{
		Logger:          slog.New(slog.DiscardHandler),
		ShutdownTimeout: DefaultShutdownTimeout,
		mux:             http.NewServeMux(),
	}

	s.mux.Handle("POST /api/crawl", s.limit(http.HandlerFunc(s.handleCrawl)))
	s.mux.HandleFunc("GET /api/crawls", s.handleListCrawls)
	s.mux.HandleFunc("GET /api/crawls/{id}", s.handleGetCrawl)
	s.mux.Handle("POST /api/screenshots", s.limit(http.HandlerFunc(s.handleScreenshot)))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully, letting in-flight requests finish within ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// limit applies the client limiter, if one is set, to next.
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		s.Limiter.Middleware(next).ServeHTTP(w, r)
	})
}

type crawlRequest struct {
	URL            string `json:"url" validate:"required"`
	MaxConcurrency int    `json:"maxConcurrency" validate:"gte=0,lte=100"`
}

type crawlResponse struct {
	ID    string   `json:"id,omitempty"`
	Links []string `json:"links"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	result, err := s.Crawler.Crawl(r.Context(), req.URL, sitecrawl.CrawlOptions{
		MaxConcurrency: req.MaxConcurrency,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, f := range result.Failed {
		s.Logger.Debug("page skipped", "seed", req.URL, "url", f.URL, "err", f.Err)
	}

	resp := crawlResponse{Links: result.Links}
	if resp.Links == nil {
		resp.Links = []string{}
	}
	if s.CrawlService != nil {
		crawl := &sitecrawl.Crawl{
			SeedURL:  req.URL,
			Links:    result.Links,
			Fetched:  result.Fetched,
			Failed:   len(result.Failed),
			Duration: time.Since(start),
		}
		if err := s.CrawlService.CreateCrawl(r.Context(), crawl); err != nil {
			s.Logger.Error("record crawl", "seed", req.URL, "err", err)
		} else {
			resp.ID = crawl.ID
		}
	}

	if s.Notifier != nil && len(result.Links) > 0 {
		if err := s.Notifier.Notify(r.Context(), req.URL, result.Links); err != nil {
			s.Logger.Error("webhook failed", "seed", req.URL, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type listCrawlsResponse struct {
	Crawls []*sitecrawl.Crawl `json:"crawls"`
}

func (s *Server) handleListCrawls(w http.ResponseWriter, r *http.Request) {
	if s.CrawlService == nil {
		s.writeError(w, r, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "crawl history is not enabled"))
		return
	}

	filter, err := parseCrawlFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	crawls, err := s.CrawlService.FindCrawls(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if crawls == nil {
		crawls = []*sitecrawl.Crawl{}
	}
	writeJSON(w, http.StatusOK, listCrawlsResponse{Crawls: crawls})
}

func parseCrawlFilter(r *http.Request) (sitecrawl.CrawlFilter, error) {
	var filter sitecrawl.CrawlFilter
	q := r.URL.Query()
	if seed := q.Get("seed"); seed != "" {
		filter.SeedURL = &seed
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, sitecrawl.Errorf(sitecrawl.EINVALID, "%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return filter, nil
}

func (s *Server) handleGetCrawl(w http.ResponseWriter, r *http.Request) {
	if s.CrawlService == nil {
		s.writeError(w, r, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "crawl history is not enabled"))
		return
	}

	crawl, err := s.CrawlService.FindCrawlByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crawl)
}

type screenshotRequest struct {
	URL        string `json:"url"`
	Screenshot string `json:"screenshot" validate:"required"`
}

type screenshotResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if s.ScreenshotStore == nil {
		s.writeError(w, r, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "screenshot uploads are not enabled"))
		return
	}

	var req screenshotRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := decodeImage(req.Screenshot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	shot := &sitecrawl.Screenshot{URL: req.URL, Data: data}
	if err := shot.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	path, err := s.ScreenshotStore.SaveScreenshot(r.Context(), shot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Logger.Info("screenshot saved", "url", req.URL, "path", path, "bytes", len(data))

	writeJSON(w, http.StatusOK, screenshotResponse{Success: true})
}

// decodeImage decodes standard base64, with or without a data URL prefix.
func decodeImage(encoded string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		_, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "malformed data URL")
		}
		encoded = payload
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid base64 screenshot: %v", err)
	}
	return data, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// decodeRequest reads a JSON body into dst and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "invalid JSON body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns the first validator failure into an EINVALID error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.StructField()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return sitecrawl.Errorf(sitecrawl.EINVALID, "%s is required", label)
	case "gte", "lte":
		return sitecrawl.Errorf(sitecrawl.EINVALID, "%s must be between 0 and %d", label, MaxRequestConcurrency)
	default:
		return sitecrawl.Errorf(sitecrawl.EINVALID, "%s is invalid", label)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps application error codes to HTTP status codes. Internal
// errors are logged and their details hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := sitecrawl.ErrorCode(err), sitecrawl.ErrorMessage(err)
	if code == sitecrawl.EINTERNAL {
		s.Logger.Error("http error", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, errorStatusCode(code), errorResponse{Error: message})
}

func errorStatusCode(code string) int {
	switch code {
	case sitecrawl.EINVALID:
		return http.StatusBadRequest
	case sitecrawl.ENOTFOUND:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
