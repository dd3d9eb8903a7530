package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitecrawl"
	schttp "github.com/fwojciec/sitecrawl/http"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Crawler sitecrawl.Crawler
	Crawls  sitecrawl.CrawlService
	Server  *schttp.Server
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool            `short:"v" help:"Enable debug logging"`
	DB      string          `name:"db" help:"History database path (default: $XDG_DATA_HOME/sitecrawl/history.db or $SITECRAWL_DB)"`
	Config  kong.ConfigFlag `help:"YAML file of flag values" placeholder:"FILE"`

	Crawl   CrawlCmd   `cmd:"" help:"Crawl a site and print every same-domain link"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API"`
	History HistoryCmd `cmd:"" help:"List recorded crawls"`
	Show    ShowCmd    `cmd:"" help:"Show a recorded crawl"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL         string        `arg:"" help:"Seed URL"`
	Concurrency int           `short:"c" default:"5" help:"Concurrent fetch limit"`
	Timeout     time.Duration `short:"t" default:"10s" help:"Per-page fetch timeout"`
	Render      bool          `help:"Render pages in headless Chrome before extracting links"`
	Save        bool          `help:"Record the crawl in the history database"`
	Progress    bool          `short:"p" help:"Report each fetched page on stderr"`
	Format      string        `short:"f" enum:"text,json,csv" default:"text" help:"Output format (text, json, csv)"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr        string        `default:"${default_addr}" env:"SITECRAWL_ADDR" help:"Listen address"`
	WebhookURL  string        `name:"webhook-url" env:"MAKE_WEBHOOK_URL" help:"Forward discovered links to this webhook"`
	Screenshots string        `env:"SITECRAWL_SCREENSHOTS" help:"Screenshot directory (default: $XDG_DATA_HOME/sitecrawl/screenshots)"`
	Timeout     time.Duration `short:"t" default:"10s" help:"Per-page fetch timeout"`
	Render      bool          `help:"Render pages in headless Chrome before extracting links"`
	RateLimit   float64       `name:"rate-limit" default:"1" help:"Requests per second per client on POST endpoints"`
	Burst       int           `default:"5" help:"Request burst per client on POST endpoints"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Seed  string `help:"Only show crawls of this seed URL"`
	Limit int    `short:"n" default:"20" help:"Maximum number of crawls to list"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID     string `arg:"" help:"Crawl ID"`
	Format string `short:"f" enum:"text,json,markdown" default:"text" help:"Output format (text, json, markdown)"`
}
