package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ sitecrawl.CrawlService = (*CrawlService)(nil)

// CrawlService implements sitecrawl.CrawlService using SQLite.
type CrawlService struct {
	db *DB
}

// NewCrawlService creates a new CrawlService.
func NewCrawlService(db *DB) *CrawlService {
	return &CrawlService{db: db}
}

// CreateCrawl stores a finished crawl with its links in one transaction.
// It assigns ID and CreatedAt, and fills LinksHash when it is empty.
func (s *CrawlService) CreateCrawl(ctx context.Context, c *sitecrawl.Crawl) error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	if c.LinksHash == "" {
		c.LinksHash = crawl.LinksHash(c.Links)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crawls (id, seed_url, links_hash, fetched, failed, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SeedURL, c.LinksHash, c.Fetched, c.Failed,
		c.Duration.Milliseconds(), c.CreatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to insert crawl: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO crawl_links (crawl_id, position, url) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, link := range c.Links {
		if _, err := stmt.ExecContext(ctx, c.ID, i, link); err != nil {
			return fmt.Errorf("failed to insert link: %w", err)
		}
	}

	return tx.Commit()
}

// FindCrawlByID retrieves a crawl and its links by ID.
func (s *CrawlService) FindCrawlByID(ctx context.Context, id string) (*sitecrawl.Crawl, error) {
	c, err := scanCrawl(s.db.QueryRowContext(ctx, `
		SELECT id, seed_url, links_hash, fetched, failed, duration_ms, created_at
		FROM crawls
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "crawl not found")
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachLinks(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FindCrawls retrieves crawls matching the filter, newest first.
func (s *CrawlService) FindCrawls(ctx context.Context, filter sitecrawl.CrawlFilter) ([]*sitecrawl.Crawl, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, seed_url, links_hash, fetched, failed, duration_ms, created_at FROM crawls WHERE 1=1")

	if filter.SeedURL != nil {
		query.WriteString(" AND seed_url = ?")
		args = append(args, *filter.SeedURL)
	}

	// rowid breaks ties between crawls created in the same second.
	query.WriteString(" ORDER BY created_at DESC, rowid DESC")

	// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crawls []*sitecrawl.Crawl
	for rows.Next() {
		c, err := scanCrawl(rows)
		if err != nil {
			return nil, err
		}
		crawls = append(crawls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Close before issuing more queries; the pool holds one connection.
	rows.Close()

	for _, c := range crawls {
		if err := s.attachLinks(ctx, c); err != nil {
			return nil, err
		}
	}
	return crawls, nil
}

// attachLinks loads the ordered links of c.
func (s *CrawlService) attachLinks(ctx context.Context, c *sitecrawl.Crawl) error {
	rows, err := s.db.QueryContext(ctx, "SELECT url FROM crawl_links WHERE crawl_id = ? ORDER BY position", c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Links = []string{}
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return err
		}
		c.Links = append(c.Links, link)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrawl(row scanner) (*sitecrawl.Crawl, error) {
	var c sitecrawl.Crawl
	var durationMS int64
	var createdAt string

	if err := row.Scan(&c.ID, &c.SeedURL, &c.LinksHash, &c.Fetched, &c.Failed, &durationMS, &createdAt); err != nil {
		return nil, err
	}

	var err error
	c.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	c.Duration = time.Duration(durationMS) * time.Millisecond
	return &c, nil
}
