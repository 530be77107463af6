package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pricebook/internal/db"
	"github.com/sells-group/pricebook/internal/model"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a tuned connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.NewPool(ctx, connString, poolCfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller owns the pool's
// lifecycle; Close is a no-op.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// migrationLockKey serializes Migrate across overlapping deploys.
const migrationLockKey = 7305441

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS source_urls (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	normalized_url TEXT NOT NULL UNIQUE,
	title          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prices (
	id            TEXT PRIMARY KEY,
	item_id       TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	condition     TEXT NOT NULL CHECK (condition IN ('new', 'used')),
	amount        NUMERIC NOT NULL CHECK (amount >= 0),
	currency      TEXT NOT NULL CHECK (currency ~ '^[A-Z]{3}$'),
	source_type   TEXT NOT NULL CHECK (source_type IN ('url', 'manual')),
	source_url_id TEXT REFERENCES source_urls(id),
	source_note   TEXT NOT NULL DEFAULT '',
	note          TEXT NOT NULL DEFAULT '',
	is_primary    BOOLEAN NOT NULL DEFAULT false,
	observed_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT prices_source_url_chk CHECK ((source_type = 'url') = (source_url_id IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_items_project_id ON items(project_id);
CREATE INDEX IF NOT EXISTS idx_prices_item_observed ON prices(item_id, observed_at DESC);
CREATE INDEX IF NOT EXISTS idx_source_urls_normalized ON source_urls(normalized_url);

-- Defense in depth for the primary invariant: the transactional demotion logic
-- keeps this index satisfied, and the index makes a lost race a hard error
-- instead of a silent second primary.
CREATE UNIQUE INDEX IF NOT EXISTS idx_prices_one_primary
	ON prices(item_id, condition) WHERE is_primary;
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.migrate"))

	// Advisory lock prevents concurrent migration runs (e.g. overlapping deploys).
	if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return eris.Wrap(err, "postgres: acquire migration advisory lock")
	}
	defer func() {
		if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			log.Warn("failed to release migration advisory lock", zap.Error(err))
		}
	}()

	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	log.Info("schema up to date")
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Projects ---

func (s *PostgresStore) CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error) {
	p := &model.Project{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (id, name, description) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err, "postgres: create project")
	}
	return p, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Translate(err, "postgres: get project")
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Translate(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, db.Translate(err, "postgres: delete project")
	}
	return tag.RowsAffected() > 0, nil
}

// --- Items ---

func (s *PostgresStore) CreateItem(ctx context.Context, projectID string, in model.ItemInput) (*model.Item, error) {
	it := &model.Item{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      in.Name,
		Notes:     in.Notes,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO items (id, project_id, name, notes) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		it.ID, it.ProjectID, it.Name, it.Notes,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err, "postgres: create item")
	}
	return it, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	it := &model.Item{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, name, notes, created_at, updated_at FROM items WHERE id = $1`,
		id,
	).Scan(&it.ID, &it.ProjectID, &it.Name, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Translate(err, "postgres: get item")
	}
	return it, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, projectID string) ([]model.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, name, notes, created_at, updated_at
		 FROM items WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID)
	if err != nil {
		return nil, db.Translate(err, "postgres: list items")
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.Name, &it.Notes, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list items iterate")
}

func (s *PostgresStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, db.Translate(err, "postgres: delete item")
	}
	return tag.RowsAffected() > 0, nil
}

// --- Source URL registry ---

// EnsureSourceURL registers a URL keyed by its normalized form, returning the
// existing row when the URL was seen before.
func (s *PostgresStore) EnsureSourceURL(ctx context.Context, rawURL, normalized, title string) (*model.SourceURL, error) {
	su := &model.SourceURL{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO source_urls (id, url, normalized_url, title) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (normalized_url) DO UPDATE SET
			title = COALESCE(NULLIF(EXCLUDED.title, ''), source_urls.title)
		 RETURNING id, url, normalized_url, title, created_at`,
		uuid.New().String(), rawURL, normalized, title,
	).Scan(&su.ID, &su.URL, &su.NormalizedURL, &su.Title, &su.CreatedAt)
	if err != nil {
		return nil, db.Translate(err, "postgres: ensure source url")
	}
	return su, nil
}

func (s *PostgresStore) GetSourceURL(ctx context.Context, id string) (*model.SourceURL, error) {
	su := &model.SourceURL{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, url, normalized_url, title, created_at FROM source_urls WHERE id = $1`,
		id,
	).Scan(&su.ID, &su.URL, &su.NormalizedURL, &su.Title, &su.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Translate(err, "postgres: get source url")
	}
	return su, nil
}
