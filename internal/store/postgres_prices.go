package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pricebook/internal/db"
	"github.com/sells-group/pricebook/internal/model"
)

// priceColumns is the standard column list for price reads, including the
// denormalized source URL.
const priceColumns = `p.id, p.item_id, p.condition, p.amount, p.currency, p.source_type,
	p.source_url_id, su.url, p.source_note, p.note, p.is_primary, p.observed_at, p.created_at, p.updated_at`

const selectPriceByID = `SELECT ` + priceColumns + `
	FROM prices p LEFT JOIN source_urls su ON su.id = p.source_url_id
	WHERE p.id = $1`

// priceDests returns scan destinations matching priceColumns.
func priceDests(rec *model.PriceRecord, sourceURL **string) []any {
	return []any{
		&rec.ID, &rec.ItemID, &rec.Condition, &rec.Amount, &rec.Currency, &rec.SourceType,
		&rec.SourceURLID, sourceURL, &rec.SourceNote, &rec.Note, &rec.IsPrimary,
		&rec.ObservedAt, &rec.CreatedAt, &rec.UpdatedAt,
	}
}

func scanPrice(row pgx.Row) (*model.PriceRecord, error) {
	rec := &model.PriceRecord{}
	var sourceURL *string
	if err := row.Scan(priceDests(rec, &sourceURL)...); err != nil {
		return nil, err
	}
	if sourceURL != nil {
		rec.SourceURL = *sourceURL
	}
	return rec, nil
}

// CreatePrice inserts one price record. When the record is marked primary, any
// existing primary for the same (item, condition) is demoted first inside the
// same transaction, so the partial unique index never observes two primaries.
func (s *PostgresStore) CreatePrice(ctx context.Context, itemID string, in model.PriceInput) (*model.PriceRecord, error) {
	id := uuid.New().String()
	observed := time.Now().UTC()
	if in.ObservedAt != nil {
		observed = in.ObservedAt.UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, db.Translate(err, "postgres: begin create price")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if in.IsPrimary {
		if _, err := tx.Exec(ctx,
			`UPDATE prices SET is_primary = false, updated_at = now()
			 WHERE item_id = $1 AND condition = $2 AND is_primary`,
			itemID, string(in.Condition),
		); err != nil {
			return nil, db.Translate(err, "postgres: demote primary prices")
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO prices (id, item_id, condition, amount, currency, source_type,
			source_url_id, source_note, note, is_primary, observed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, itemID, string(in.Condition), in.Amount, in.Currency, string(in.SourceType),
		in.SourceURLID, in.SourceNote, in.Note, in.IsPrimary, observed,
	); err != nil {
		return nil, db.Translate(err, "postgres: insert price")
	}

	// Read back the committed state rather than echoing caller input.
	rec, err := scanPrice(tx.QueryRow(ctx, selectPriceByID, id))
	if err != nil {
		return nil, db.Translate(err, "postgres: read back price")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, db.Translate(err, "postgres: commit create price")
	}
	return rec, nil
}

func (s *PostgresStore) GetPrice(ctx context.Context, id string) (*model.PriceRecord, error) {
	rec, err := scanPrice(s.pool.QueryRow(ctx, selectPriceByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Translate(err, "postgres: get price")
	}
	return rec, nil
}

func (s *PostgresStore) ListPrices(ctx context.Context, filter PriceFilter) ([]model.PriceRecord, error) {
	query := `SELECT ` + priceColumns + `
		FROM prices p LEFT JOIN source_urls su ON su.id = p.source_url_id
		WHERE p.item_id = $1`
	args := []any{filter.ItemID}
	argIdx := 2

	if filter.Condition != "" {
		query += fmt.Sprintf(` AND p.condition = $%d`, argIdx)
		args = append(args, string(filter.Condition))
		argIdx++
	}
	query += ` ORDER BY p.observed_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err, "postgres: list prices")
	}
	defer rows.Close()
	return collectPrices(rows)
}

// PricesForItem returns the item's full price set, newest observation first.
// The summary aggregator depends on this being unpaginated.
func (s *PostgresStore) PricesForItem(ctx context.Context, itemID string) ([]model.PriceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+priceColumns+`
		 FROM prices p LEFT JOIN source_urls su ON su.id = p.source_url_id
		 WHERE p.item_id = $1 ORDER BY p.observed_at DESC`,
		itemID)
	if err != nil {
		return nil, db.Translate(err, "postgres: prices for item")
	}
	defer rows.Close()
	return collectPrices(rows)
}

func collectPrices(rows pgx.Rows) ([]model.PriceRecord, error) {
	var recs []model.PriceRecord
	for rows.Next() {
		rec := model.PriceRecord{}
		var sourceURL *string
		if err := rows.Scan(priceDests(&rec, &sourceURL)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price")
		}
		if sourceURL != nil {
			rec.SourceURL = *sourceURL
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: iterate prices")
}

// UpdatePrice applies a partial update under a row lock. The effective
// condition and primary flag are derived from the locked row plus the patch;
// when the effective flag is primary, every other record sharing the effective
// (item, condition) is demoted before the target row is written.
func (s *PostgresStore) UpdatePrice(ctx context.Context, id string, patch model.PricePatch) (*model.PriceRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, db.Translate(err, "postgres: begin update price")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cur := model.PriceRecord{}
	err = tx.QueryRow(ctx,
		`SELECT id, item_id, condition, amount, currency, source_type, source_url_id,
			source_note, note, is_primary, observed_at, created_at, updated_at
		 FROM prices WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&cur.ID, &cur.ItemID, &cur.Condition, &cur.Amount, &cur.Currency, &cur.SourceType,
		&cur.SourceURLID, &cur.SourceNote, &cur.Note, &cur.IsPrimary,
		&cur.ObservedAt, &cur.CreatedAt, &cur.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.Translate(err, "postgres: lock price")
	}

	merged := applyPatch(cur, patch)
	if err := validateMerged(merged); err != nil {
		return nil, err
	}

	if merged.IsPrimary {
		// Demote competitors first; the target row is excluded because it is
		// written with the correct value below.
		if _, err := tx.Exec(ctx,
			`UPDATE prices SET is_primary = false, updated_at = now()
			 WHERE item_id = $1 AND condition = $2 AND id <> $3 AND is_primary`,
			merged.ItemID, string(merged.Condition), id,
		); err != nil {
			return nil, db.Translate(err, "postgres: demote primary prices")
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE prices SET condition = $2, amount = $3, currency = $4, source_type = $5,
			source_url_id = $6, source_note = $7, note = $8, is_primary = $9,
			observed_at = $10, updated_at = now()
		 WHERE id = $1`,
		id, string(merged.Condition), merged.Amount, merged.Currency, string(merged.SourceType),
		merged.SourceURLID, merged.SourceNote, merged.Note, merged.IsPrimary, merged.ObservedAt,
	); err != nil {
		return nil, db.Translate(err, "postgres: update price")
	}

	rec, err := scanPrice(tx.QueryRow(ctx, selectPriceByID, id))
	if err != nil {
		return nil, db.Translate(err, "postgres: read back price")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, db.Translate(err, "postgres: commit update price")
	}
	return rec, nil
}

// DeletePrice removes a record by id. Deleting an absent id is not an error;
// it reports that nothing was deleted.
func (s *PostgresStore) DeletePrice(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM prices WHERE id = $1`, id)
	if err != nil {
		return false, db.Translate(err, "postgres: delete price")
	}
	return tag.RowsAffected() > 0, nil
}
