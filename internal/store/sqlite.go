package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pricebook/internal/db"
	"github.com/sells-group/pricebook/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. SQLite has no row
// locks; the pool is capped at one connection so write transactions serialize,
// which is what the primary invariant needs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	sqldb.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqldb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS source_urls (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	normalized_url TEXT NOT NULL UNIQUE,
	title          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS prices (
	id            TEXT PRIMARY KEY,
	item_id       TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	condition     TEXT NOT NULL CHECK (condition IN ('new', 'used')),
	amount        TEXT NOT NULL,
	currency      TEXT NOT NULL CHECK (currency GLOB '[A-Z][A-Z][A-Z]'),
	source_type   TEXT NOT NULL CHECK (source_type IN ('url', 'manual')),
	source_url_id TEXT REFERENCES source_urls(id),
	source_note   TEXT NOT NULL DEFAULT '',
	note          TEXT NOT NULL DEFAULT '',
	is_primary    INTEGER NOT NULL DEFAULT 0,
	observed_at   DATETIME NOT NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	CONSTRAINT prices_source_url_chk CHECK ((source_type = 'url') = (source_url_id IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_items_project_id ON items(project_id);
CREATE INDEX IF NOT EXISTS idx_prices_item_observed ON prices(item_id, observed_at DESC);

CREATE UNIQUE INDEX IF NOT EXISTS idx_prices_one_primary
	ON prices(item_id, condition) WHERE is_primary = 1;
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// translateSQLite maps driver errors onto the shared storage error kinds.
// modernc reports constraint failures as text, so matching is string-based.
func translateSQLite(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return eris.Wrap(db.ErrForeignKey, op)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return eris.Wrap(db.ErrConflict, op)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return eris.Wrap(db.ErrTransient, op)
	}
	return eris.Wrap(err, op)
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	now := time.Now().UTC()
	p := &model.Project{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: create project")
	}
	return p, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM projects WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateSQLite(err, "sqlite: get project")
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, translateSQLite(err, "sqlite: delete project")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: delete project rows affected")
	}
	return n > 0, nil
}

// --- Items ---

func (s *SQLiteStore) CreateItem(ctx context.Context, projectID string, in model.ItemInput) (*model.Item, error) {
	now := time.Now().UTC()
	it := &model.Item{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      in.Name,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, project_id, name, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		it.ID, it.ProjectID, it.Name, it.Notes, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: create item")
	}
	return it, nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	it := &model.Item{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, notes, created_at, updated_at FROM items WHERE id = ?`,
		id,
	).Scan(&it.ID, &it.ProjectID, &it.Name, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateSQLite(err, "sqlite: get item")
	}
	return it, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, projectID string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, notes, created_at, updated_at
		 FROM items WHERE project_id = ? ORDER BY created_at DESC`,
		projectID)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: list items")
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.Name, &it.Notes, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list items iterate")
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, translateSQLite(err, "sqlite: delete item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: delete item rows affected")
	}
	return n > 0, nil
}

// --- Source URL registry ---

func (s *SQLiteStore) EnsureSourceURL(ctx context.Context, rawURL, normalized, title string) (*model.SourceURL, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_urls (id, url, normalized_url, title, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (normalized_url) DO UPDATE SET
			title = CASE WHEN excluded.title <> '' THEN excluded.title ELSE source_urls.title END`,
		uuid.New().String(), rawURL, normalized, title, time.Now().UTC(),
	)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: ensure source url")
	}

	su := &model.SourceURL{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, url, normalized_url, title, created_at FROM source_urls WHERE normalized_url = ?`,
		normalized,
	).Scan(&su.ID, &su.URL, &su.NormalizedURL, &su.Title, &su.CreatedAt)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: read back source url")
	}
	return su, nil
}

func (s *SQLiteStore) GetSourceURL(ctx context.Context, id string) (*model.SourceURL, error) {
	su := &model.SourceURL{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, normalized_url, title, created_at FROM source_urls WHERE id = ?`,
		id,
	).Scan(&su.ID, &su.URL, &su.NormalizedURL, &su.Title, &su.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateSQLite(err, "sqlite: get source url")
	}
	return su, nil
}
