package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/fs"
	"github.com/fwojciec/sitecrawl/goquery"
	schttp "github.com/fwojciec/sitecrawl/http"
	"github.com/fwojciec/sitecrawl/rod"
	scslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/fwojciec/sitecrawl/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when --db is not given. Set before calling Run().
	DBPath string

	// Screenshot directory used when --screenshots is not given.
	ScreenshotDir string

	// Configuration file loaded before flags are resolved. Empty disables it.
	ConfigPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Fetcher overrides the fetcher built from flags. Used for end-to-end testing.
	Fetcher sitecrawl.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:        defaultDBPath(),
		ScreenshotDir: filepath.Join(xdg.DataHome, appName, "screenshots"),
		ConfigPath:    os.Getenv("SITECRAWL_CONFIG"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	options := []kong.Option{
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	}
	var configPaths []string
	if m.ConfigPath != "" {
		configPaths = append(configPaths, m.ConfigPath)
	}
	options = append(options, kong.Configuration(loadYAMLConfig, configPaths...))

	cli := &CLI{}
	parser, err := NewParser(cli, options...)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sitecrawl --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	logger := newLogger(stderr, cmd, cli.Verbose)
	deps.Logger = logger

	if needsDB(cmd, cli) {
		path := cli.DB
		if path == "" {
			path = m.DBPath
		}
		m.DB = sqlite.NewDB(path)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set SITECRAWL_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", path, err)
		}
		defer m.Close()

		deps.Crawls = scslog.NewLoggingCrawlService(sqlite.NewCrawlService(m.DB), logger)
	}

	switch cmd {
	case "crawl":
		crawler, closeFn, err := m.newCrawler(cli.Crawl.Render, cli.Crawl.Timeout, cli.Crawl.Concurrency, logger)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
			return err
		}
		defer closeFn()
		deps.Crawler = crawler

	case "serve":
		crawler, closeFn, err := m.newCrawler(cli.Serve.Render, cli.Serve.Timeout, 0, logger)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
			return err
		}
		defer closeFn()

		server := schttp.NewServer()
		server.Crawler = crawler
		server.CrawlService = deps.Crawls
		server.Logger = logger
		server.Limiter = schttp.NewClientLimiter(cli.Serve.RateLimit, cli.Serve.Burst)
		if cli.Serve.WebhookURL != "" {
			server.Notifier = scslog.NewLoggingNotifier(schttp.NewNotifier(cli.Serve.WebhookURL), logger)
		}
		dir := cli.Serve.Screenshots
		if dir == "" {
			dir = m.ScreenshotDir
		}
		server.ScreenshotStore = fs.NewScreenshotStore(dir)
		deps.Server = server
	}

	return kongCtx.Run(deps)
}

// newCrawler builds the crawl engine with either the plain HTTP fetcher or
// the headless browser fetcher. The returned func releases the fetcher.
func (m *Main) newCrawler(render bool, timeout time.Duration, concurrency int, logger *slog.Logger) (sitecrawl.Crawler, func(), error) {
	fetcher := m.Fetcher
	if fetcher == nil {
		if render {
			f, err := rod.NewFetcher(rod.WithFetchTimeout(timeout))
			if err != nil {
				return nil, nil, fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = f
		} else {
			fetcher = schttp.NewFetcher(schttp.WithTimeout(timeout))
		}
	}
	fetcher = scslog.NewLoggingFetcher(fetcher, logger)

	crawler := &crawl.Crawler{
		Fetcher:      fetcher,
		Extractor:    goquery.NewLinkExtractor(),
		Concurrency:  concurrency,
		FetchTimeout: timeout,
	}
	return scslog.NewLoggingCrawler(crawler, logger), func() { _ = fetcher.Close() }, nil
}

const appName = "sitecrawl"

// NewParser creates the kong parser for cli with the program's name and
// flag defaults, followed by options.
func NewParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name(appName),
		kong.Description("Discover every same-domain link reachable from a seed URL."),
		kong.Vars{"default_addr": schttp.DefaultAddr},
	}
	return kong.New(cli, append(base, options...)...)
}

func needsDB(cmd string, cli *CLI) bool {
	switch cmd {
	case "history", "show", "serve":
		return true
	case "crawl":
		return cli.Crawl.Save
	}
	return false
}

// newLogger writes text logs to stderr. The server logs requests at info
// level; the one-shot commands stay quiet unless --verbose is set.
func newLogger(w io.Writer, cmd string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if cmd == "serve" {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultDBPath() string {
	if path := os.Getenv("SITECRAWL_DB"); path != "" {
		return path
	}
	path, err := xdg.DataFile(filepath.Join(appName, "history.db"))
	if err != nil {
		return appName + ".db"
	}
	return path
}
