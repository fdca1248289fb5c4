package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/litescript/ls-galaxy/internal/config"
	"github.com/litescript/ls-galaxy/internal/logging"
)

// Postgres is a Store backed by a galaxy_presets table.
type Postgres struct {
	db     *sql.DB
	logger *logging.Logger
}

const schema = `
	CREATE TABLE IF NOT EXISTS galaxy_presets (
		name        VARCHAR(40) PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		config      JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Open connects to Postgres and creates the presets table if needed. It
// returns nil and no error when no database URL is configured.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (*Postgres, error) {
	logger = logger.With("store")
	if cfg.URL == "" {
		logger.Info("No DATABASE_URL, user presets kept in memory")
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: db, logger: logger}
	if err := p.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Database connection established")
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create galaxy_presets table: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]Preset, error) {
	query := `
		SELECT name, description, config, created_at, updated_at
		FROM galaxy_presets
		ORDER BY name
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *preset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	p.logger.Debug("Listed %d presets", len(out))
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, name string) (*Preset, error) {
	query := `
		SELECT name, description, config, created_at, updated_at
		FROM galaxy_presets
		WHERE name = $1
	`
	preset, err := scanPreset(p.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return preset, err
}

func (p *Postgres) Save(ctx context.Context, preset Preset) (*Preset, error) {
	if err := ValidateName(preset.Name); err != nil {
		return nil, err
	}
	data, err := json.Marshal(preset.Config)
	if err != nil {
		return nil, fmt.Errorf("encode preset config: %w", err)
	}

	query := `
		INSERT INTO galaxy_presets (name, description, config)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, config = EXCLUDED.config, updated_at = NOW()
		RETURNING name, description, config, created_at, updated_at
	`
	saved, err := scanPreset(p.db.QueryRowContext(ctx, query, preset.Name, preset.Description, data))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			p.logger.Error("Saving preset %q failed with %s: %s", preset.Name, pqErr.Code.Name(), pqErr.Message)
		}
		return nil, err
	}
	p.logger.Info("Saved preset %q", saved.Name)
	return saved, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*Preset, error) {
	var (
		preset Preset
		data   []byte
	)
	if err := row.Scan(&preset.Name, &preset.Description, &data, &preset.CreatedAt, &preset.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan preset: %w", err)
	}
	if err := json.Unmarshal(data, &preset.Config); err != nil {
		return nil, fmt.Errorf("decode preset %q config: %w", preset.Name, err)
	}
	return &preset, nil
}
