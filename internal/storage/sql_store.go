package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/deusflow/haulnews/internal/logger"
	"github.com/deusflow/haulnews/internal/news"
)

const articlesTable = "articles"

var articleColumns = []string{
	"id", "content_hash", "title", "url", "summary", "source", "source_category",
	"category", "relevance_score", "segment", "collected_at", "used_in_issue",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		source_category TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		relevance_score INTEGER NOT NULL DEFAULT 0,
		segment TEXT NOT NULL DEFAULT 'both',
		collected_at BIGINT NOT NULL,
		used_in_issue TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_collected_at ON articles(collected_at)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_used_in_issue ON articles(used_in_issue)`,
}

// SQLStore keeps the archive in Postgres or SQLite.
type SQLStore struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// NewSQLStore opens driver ("postgres" or "sqlite") at dsn and creates the
// schema if needed.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var placeholder sq.PlaceholderFormat
	switch driver {
	case "postgres":
		placeholder = sq.Dollar
	case "sqlite":
		placeholder = sq.Question
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// each connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(placeholder),
		now: func() time.Time { return time.Now().UTC() },
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("article store connected", "driver", driver)
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetExistingHashes(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("content_hash").From(articlesTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build hash query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return hashes, nil
}

// SaveArticles inserts inside one transaction. Rows that hit the unique
// content_hash constraint are skipped, not updated.
func (s *SQLStore) SaveArticles(ctx context.Context, articles []news.Article) ([]news.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	saved := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		a = prepare(a, now)

		query, args, err := s.sb.Insert(articlesTable).
			Columns(articleColumns...).
			Values(a.ID, a.ContentHash, a.Title, a.URL, a.Summary, a.Source, a.SourceCategory,
				a.Category, a.RelevanceScore, string(a.Segment), a.CollectedAt.Unix(), a.UsedInIssue).
			Suffix("ON CONFLICT (content_hash) DO NOTHING").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert article %q: %w", a.Title, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			saved = append(saved, a)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (s *SQLStore) GetRecentArticles(ctx context.Context, days int, segment news.Segment) ([]news.Article, error) {
	q := s.sb.Select(articleColumns...).
		From(articlesTable).
		Where(sq.GtOrEq{"collected_at": cutoff(s.now(), days).Unix()}).
		Where(sq.Eq{"used_in_issue": ""}).
		OrderBy("collected_at DESC", "id")
	if segment != "" && segment != news.SegmentBoth {
		q = q.Where(sq.Or{
			sq.Eq{"segment": string(news.SegmentBoth)},
			sq.Like{"segment": "%" + strings.ToLower(string(segment)) + "%"},
		})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []news.Article
	for rows.Next() {
		var (
			a         news.Article
			seg       string
			collected int64
		)
		if err := rows.Scan(&a.ID, &a.ContentHash, &a.Title, &a.URL, &a.Summary, &a.Source,
			&a.SourceCategory, &a.Category, &a.RelevanceScore, &seg, &collected, &a.UsedInIssue); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Segment = news.Segment(seg)
		a.CollectedAt = time.Unix(collected, 0).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s *SQLStore) MarkArticlesAsUsed(ctx context.Context, ids []string, issueID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := s.sb.Update(articlesTable).
		Set("used_in_issue", issueID).
		Where(sq.Eq{"id": ids, "used_in_issue": ""}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
