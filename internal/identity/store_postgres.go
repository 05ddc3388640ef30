package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"unify/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists the identity graph in PostgreSQL. Email uniqueness
// is enforced by the unique index on email_records(email); concurrent
// first-writers are resolved there, not with application locks.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindIdentityByEmail(ctx context.Context, email string) (domain.MUUID, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT muuid FROM email_records WHERE email = $1`, email).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MUUID{}, ErrNotFound
	}
	if err != nil {
		return domain.MUUID{}, fmt.Errorf("find identity by email: %w", err)
	}
	return domain.ParseMUUID(raw)
}

func (s *PostgresStore) CreateIdentity(ctx context.Context, muuid domain.MUUID, email string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create identity: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO global_identities (muuid, created_at) VALUES ($1, $2)`,
		muuid.String(), now); err != nil {
		return fmt.Errorf("insert global identity: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO email_records (muuid, email, ord, created_at) VALUES ($1, $2, 1, $3)`,
		muuid.String(), email, now); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert email record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("commit create identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) EmailExists(ctx context.Context, muuid domain.MUUID, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM email_records WHERE muuid = $1 AND email = $2)`,
		muuid.String(), email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email record: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AppendEmail(ctx context.Context, muuid domain.MUUID, email string) error {
	// ord is computed in the insert so two appenders cannot both read the
	// same count; the (muuid, ord) unique index backs this up.
	query := `
		INSERT INTO email_records (muuid, email, ord, created_at)
		SELECT $1, $2, COALESCE(MAX(ord), 0) + 1, $3
		FROM email_records WHERE muuid = $1
	`
	_, err := s.db.ExecContext(ctx, query, muuid.String(), email, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("append email record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEmails(ctx context.Context, muuid domain.MUUID) ([]EmailRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT muuid, email, ord, created_at FROM email_records WHERE muuid = $1 ORDER BY ord`,
		muuid.String())
	if err != nil {
		return nil, fmt.Errorf("list email records: %w", err)
	}
	defer rows.Close()

	var records []EmailRecord
	for rows.Next() {
		var rec EmailRecord
		var raw string
		if err := rows.Scan(&raw, &rec.Email, &rec.Ord, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email record: %w", err)
		}
		if rec.MUUID, err = domain.ParseMUUID(raw); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) FindAccountIdentityByUUID(ctx context.Context, uuid string) (*AccountIdentity, error) {
	query := `
		SELECT a.muuid, a.brand_id, a.region_id, e.email
		FROM local_accounts a
		JOIN email_records e ON e.muuid = a.muuid
		WHERE a.uuid = $1
		ORDER BY e.ord DESC
		LIMIT 1
	`
	var raw string
	var result AccountIdentity
	err := s.db.QueryRowContext(ctx, query, uuid).Scan(&raw, &result.BrandID, &result.RegionID, &result.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account identity: %w", err)
	}
	if result.MUUID, err = domain.ParseMUUID(raw); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *PostgresStore) FindLocalAccount(ctx context.Context, muuid domain.MUUID, brand, region string) (*LocalAccount, error) {
	query := `
		SELECT muuid, brand_id, region_id, uuid, tool_usage, company, source, account_type, shop, retailers, created_at, updated_at
		FROM local_accounts
		WHERE muuid = $1 AND brand_id = $2 AND region_id = $3
	`
	row := s.db.QueryRowContext(ctx, query, muuid.String(), brand, region)
	acc, err := scanLocalAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find local account: %w", err)
	}
	return acc, nil
}

func (s *PostgresStore) UpsertLocalAccount(ctx context.Context, acc LocalAccount) (LocalAccount, error) {
	now := time.Now()
	if acc.MUUID.IsNil() {
		// Without an MUUID only an existing binding can be addressed.
		query := `
			UPDATE local_accounts
			SET tool_usage = $4, company = $5, source = $6, account_type = $7, shop = $8, retailers = $9, updated_at = $10
			WHERE uuid = $1 AND brand_id = $2 AND region_id = $3
			RETURNING muuid, brand_id, region_id, uuid, tool_usage, company, source, account_type, shop, retailers, created_at, updated_at
		`
		row := s.db.QueryRowContext(ctx, query, acc.UUID, acc.BrandID, acc.RegionID,
			pq.Array(acc.ToolUsage), acc.Company, acc.Source, acc.AccountType, acc.Shop,
			pq.Array(acc.Retailers), now)
		updated, err := scanLocalAccount(row)
		if errors.Is(err, sql.ErrNoRows) {
			return LocalAccount{}, ErrNotFound
		}
		if err != nil {
			return LocalAccount{}, fmt.Errorf("update local account by uuid: %w", err)
		}
		return *updated, nil
	}

	// MUUID/brand/region are set-on-insert; everything else follows the
	// latest upsert.
	query := `
		INSERT INTO local_accounts (muuid, brand_id, region_id, uuid, tool_usage, company, source, account_type, shop, retailers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (muuid, brand_id, region_id)
		DO UPDATE SET uuid = EXCLUDED.uuid, tool_usage = EXCLUDED.tool_usage,
			company = EXCLUDED.company, source = EXCLUDED.source,
			account_type = EXCLUDED.account_type, shop = EXCLUDED.shop,
			retailers = EXCLUDED.retailers, updated_at = EXCLUDED.updated_at
		RETURNING muuid, brand_id, region_id, uuid, tool_usage, company, source, account_type, shop, retailers, created_at, updated_at
	`
	row := s.db.QueryRowContext(ctx, query, acc.MUUID.String(), acc.BrandID, acc.RegionID,
		acc.UUID, pq.Array(acc.ToolUsage), acc.Company, acc.Source, acc.AccountType,
		acc.Shop, pq.Array(acc.Retailers), now)
	upserted, err := scanLocalAccount(row)
	if err != nil {
		return LocalAccount{}, fmt.Errorf("upsert local account: %w", err)
	}
	return *upserted, nil
}

func (s *PostgresStore) DeleteLocalAccounts(ctx context.Context, muuid domain.MUUID) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM local_accounts WHERE muuid = $1`, muuid.String())
	if err != nil {
		return 0, fmt.Errorf("delete local accounts: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocalAccount(row rowScanner) (*LocalAccount, error) {
	var acc LocalAccount
	var raw string
	err := row.Scan(&raw, &acc.BrandID, &acc.RegionID, &acc.UUID,
		pq.Array(&acc.ToolUsage), &acc.Company, &acc.Source, &acc.AccountType,
		&acc.Shop, pq.Array(&acc.Retailers), &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	muuid, err := domain.ParseMUUID(raw)
	if err != nil {
		return nil, err
	}
	acc.MUUID = muuid
	return &acc, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
