package tenantconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists tenant configuration in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByApp(ctx context.Context, appID string) ([]Config, error) {
	query := `
		SELECT app_id, brand_id, region_id, market_id, locale, cfg_group, settings, created_at, updated_at
		FROM tenant_configs
		WHERE app_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("list tenant configs: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		var cfg Config
		var settings []byte
		if err := rows.Scan(&cfg.AppID, &cfg.BrandID, &cfg.RegionID, &cfg.MarketID,
			&cfg.Locale, &cfg.Group, &settings, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant config: %w", err)
		}
		if err := json.Unmarshal(settings, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("decode tenant config settings: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant configs: %w", err)
	}
	return configs, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, cfg Config) error {
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return fmt.Errorf("encode tenant config settings: %w", err)
	}
	query := `
		INSERT INTO tenant_configs (app_id, brand_id, region_id, market_id, locale, cfg_group, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (app_id, brand_id, region_id, market_id, locale, cfg_group)
		DO UPDATE SET settings = EXCLUDED.settings, updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, cfg.AppID, cfg.BrandID, cfg.RegionID,
		cfg.MarketID, cfg.Locale, cfg.Group, settings, time.Now())
	if err != nil {
		return fmt.Errorf("upsert tenant config: %w", err)
	}
	return nil
}
