package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pricebook/internal/model"
)

const sqlitePriceColumns = `p.id, p.item_id, p.condition, p.amount, p.currency, p.source_type,
	p.source_url_id, su.url, p.source_note, p.note, p.is_primary, p.observed_at, p.created_at, p.updated_at`

const sqliteSelectPriceByID = `SELECT ` + sqlitePriceColumns + `
	FROM prices p LEFT JOIN source_urls su ON su.id = p.source_url_id
	WHERE p.id = ?`

type sqliteRow interface {
	Scan(dest ...any) error
}

func scanSQLitePrice(row sqliteRow) (*model.PriceRecord, error) {
	rec := &model.PriceRecord{}
	var sourceURL *string
	err := row.Scan(&rec.ID, &rec.ItemID, &rec.Condition, &rec.Amount, &rec.Currency, &rec.SourceType,
		&rec.SourceURLID, &sourceURL, &rec.SourceNote, &rec.Note, &rec.IsPrimary,
		&rec.ObservedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sourceURL != nil {
		rec.SourceURL = *sourceURL
	}
	return rec, nil
}

// CreatePrice inserts one price record, demoting any existing primary for the
// same (item, condition) first when the new record is marked primary. The
// single-connection pool serializes the transaction against other writers.
func (s *SQLiteStore) CreatePrice(ctx context.Context, itemID string, in model.PriceInput) (*model.PriceRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	observed := now
	if in.ObservedAt != nil {
		observed = in.ObservedAt.UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: begin create price")
	}
	defer tx.Rollback() //nolint:errcheck

	if in.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE prices SET is_primary = 0, updated_at = ?
			 WHERE item_id = ? AND condition = ? AND is_primary = 1`,
			now, itemID, string(in.Condition),
		); err != nil {
			return nil, translateSQLite(err, "sqlite: demote primary prices")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO prices (id, item_id, condition, amount, currency, source_type,
			source_url_id, source_note, note, is_primary, observed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, itemID, string(in.Condition), in.Amount, in.Currency, string(in.SourceType),
		in.SourceURLID, in.SourceNote, in.Note, in.IsPrimary, observed, now, now,
	); err != nil {
		return nil, translateSQLite(err, "sqlite: insert price")
	}

	rec, err := scanSQLitePrice(tx.QueryRowContext(ctx, sqliteSelectPriceByID, id))
	if err != nil {
		return nil, translateSQLite(err, "sqlite: read back price")
	}

	if err := tx.Commit(); err != nil {
		return nil, translateSQLite(err, "sqlite: commit create price")
	}
	return rec, nil
}

func (s *SQLiteStore) GetPrice(ctx context.Context, id string) (*model.PriceRecord, error) {
	rec, err := scanSQLitePrice(s.db.QueryRowContext(ctx, sqliteSelectPriceByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateSQLite(err, "sqlite: get price")
	}
	return rec, nil
}

func (s *SQLiteStore) ListPrices(ctx context.Context, filter PriceFilter) ([]model.PriceRecord, error) {
	query := `SELECT ` + sqlitePriceColumns + `
		FROM prices p LEFT JOIN source_urls su ON su.id = p.source_url_id
		WHERE p.item_id = ?`
	args := []any{filter.ItemID}

	if filter.Condition != "" {
		query += ` AND p.condition = ?`
		args = append(args, string(filter.Condition))
	}
	query += ` ORDER BY p.observed_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: list prices")
	}
	defer rows.Close()
	return collectSQLitePrices(rows)
}

func (s *SQLiteStore) PricesForItem(ctx context.Context, itemID string) ([]model.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqlitePriceColumns+`
		 FROM prices p LEFT JOIN source_urls su ON su.id = p.source_url_id
		 WHERE p.item_id = ? ORDER BY p.observed_at DESC`,
		itemID)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: prices for item")
	}
	defer rows.Close()
	return collectSQLitePrices(rows)
}

func collectSQLitePrices(rows *sql.Rows) ([]model.PriceRecord, error) {
	var recs []model.PriceRecord
	for rows.Next() {
		rec, err := scanSQLitePrice(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: iterate prices")
}

// UpdatePrice applies a partial update inside a write transaction. SQLite has
// no FOR UPDATE; the single writer connection provides the same serialization.
func (s *SQLiteStore) UpdatePrice(ctx context.Context, id string, patch model.PricePatch) (*model.PriceRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translateSQLite(err, "sqlite: begin update price")
	}
	defer tx.Rollback() //nolint:errcheck

	cur := model.PriceRecord{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, item_id, condition, amount, currency, source_type, source_url_id,
			source_note, note, is_primary, observed_at, created_at, updated_at
		 FROM prices WHERE id = ?`,
		id,
	).Scan(&cur.ID, &cur.ItemID, &cur.Condition, &cur.Amount, &cur.Currency, &cur.SourceType,
		&cur.SourceURLID, &cur.SourceNote, &cur.Note, &cur.IsPrimary,
		&cur.ObservedAt, &cur.CreatedAt, &cur.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateSQLite(err, "sqlite: load price")
	}

	merged := applyPatch(cur, patch)
	if err := validateMerged(merged); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if merged.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			`UPDATE prices SET is_primary = 0, updated_at = ?
			 WHERE item_id = ? AND condition = ? AND id <> ? AND is_primary = 1`,
			now, merged.ItemID, string(merged.Condition), id,
		); err != nil {
			return nil, translateSQLite(err, "sqlite: demote primary prices")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE prices SET condition = ?, amount = ?, currency = ?, source_type = ?,
			source_url_id = ?, source_note = ?, note = ?, is_primary = ?,
			observed_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(merged.Condition), merged.Amount, merged.Currency, string(merged.SourceType),
		merged.SourceURLID, merged.SourceNote, merged.Note, merged.IsPrimary,
		merged.ObservedAt, now, id,
	); err != nil {
		return nil, translateSQLite(err, "sqlite: update price")
	}

	rec, err := scanSQLitePrice(tx.QueryRowContext(ctx, sqliteSelectPriceByID, id))
	if err != nil {
		return nil, translateSQLite(err, "sqlite: read back price")
	}

	if err := tx.Commit(); err != nil {
		return nil, translateSQLite(err, "sqlite: commit update price")
	}
	return rec, nil
}

func (s *SQLiteStore) DeletePrice(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prices WHERE id = ?`, id)
	if err != nil {
		return false, translateSQLite(err, "sqlite: delete price")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: delete price rows affected")
	}
	return n > 0, nil
}
