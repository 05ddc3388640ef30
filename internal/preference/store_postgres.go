package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"unify/pkg/domain"
)

// PostgresStore persists preference records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `muuid, uuid, brand_id, region_id, market_id, username, first_name, last_name,
	country, language, opt_in_newsletter, opt_in_sms, newsletter_opt_in_at,
	demographic_trades, interests, tool_usage, role, created_at, updated_at`

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	now := time.Now()

	// Update-first keeps the identity fields of an existing row untouched;
	// a miss falls through to insert.
	var (
		where string
		key   any
	)
	if rec.MUUID.IsNil() {
		where = "uuid = $1"
		key = rec.UUID
	} else {
		where = "muuid = $1"
		key = rec.MUUID.String()
	}
	updateQuery := `
		UPDATE preferences
		SET uuid = $4, username = $5, first_name = $6, last_name = $7, country = $8,
			language = $9, opt_in_newsletter = $10, opt_in_sms = $11,
			newsletter_opt_in_at = $12, demographic_trades = $13, interests = $14,
			tool_usage = $15, role = $16, updated_at = $17
		WHERE ` + where + ` AND brand_id = $2 AND region_id = $3 AND market_id = $18
		RETURNING ` + recordColumns
	row := s.db.QueryRowContext(ctx, updateQuery, key, rec.BrandID, rec.RegionID,
		rec.UUID, rec.Username, rec.FirstName, rec.LastName, rec.Country, rec.Language,
		rec.OptInNewsletter, rec.OptInSMS, rec.NewsletterOptInAt,
		pq.Array(rec.DemographicTrades), pq.Array(rec.Interests), pq.Array(rec.ToolUsage),
		rec.Role, now, rec.MarketID)
	updated, err := scanRecord(row)
	if err == nil {
		return *updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("update preference record: %w", err)
	}

	insertQuery := `
		INSERT INTO preferences (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		RETURNING ` + recordColumns
	var muuid any
	if !rec.MUUID.IsNil() {
		muuid = rec.MUUID.String()
	}
	row = s.db.QueryRowContext(ctx, insertQuery, muuid, rec.UUID, rec.BrandID,
		rec.RegionID, rec.MarketID, rec.Username, rec.FirstName, rec.LastName,
		rec.Country, rec.Language, rec.OptInNewsletter, rec.OptInSMS,
		rec.NewsletterOptInAt, pq.Array(rec.DemographicTrades), pq.Array(rec.Interests),
		pq.Array(rec.ToolUsage), rec.Role, now)
	inserted, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("insert preference record: %w", err)
	}
	return *inserted, nil
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Record, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)
	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, cond+" = $"+strconv.Itoa(len(args)))
	}

	if q.Selector.HasMUUID() {
		add("muuid", q.Selector.MUUID.String())
	} else if q.Selector.UUID != "" {
		add("uuid", q.Selector.UUID)
	}
	if q.BrandID != "" {
		add("brand_id", q.BrandID)
	}
	if q.RegionID != "" {
		add("region_id", q.RegionID)
	}
	if q.MarketID != "" {
		add("market_id", q.MarketID)
	}
	if len(conditions) == 0 {
		return nil, fmt.Errorf("preference query requires at least one condition")
	}

	query := "SELECT " + recordColumns + " FROM preferences WHERE " + conditions[0]
	for _, cond := range conditions[1:] {
		query += " AND " + cond
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query preference records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preference record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, muuid domain.MUUID, market string) (int64, error) {
	query := `DELETE FROM preferences WHERE muuid = $1`
	args := []any{muuid.String()}
	if market != "" {
		query += ` AND market_id = $2`
		args = append(args, market)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete preference records: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var muuid sql.NullString
	err := row.Scan(&muuid, &rec.UUID, &rec.BrandID, &rec.RegionID, &rec.MarketID,
		&rec.Username, &rec.FirstName, &rec.LastName, &rec.Country, &rec.Language,
		&rec.OptInNewsletter, &rec.OptInSMS, &rec.NewsletterOptInAt,
		pq.Array(&rec.DemographicTrades), pq.Array(&rec.Interests), pq.Array(&rec.ToolUsage),
		&rec.Role, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if muuid.Valid {
		parsed, err := domain.ParseMUUID(muuid.String)
		if err != nil {
			return nil, err
		}
		rec.MUUID = parsed
	}
	return &rec, nil
}
