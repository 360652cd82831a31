package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// ConfigRepository implements the ConfigRepository interface over the
// single-row config_state table.
type ConfigRepository struct {
	q Queryable
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *database.DB) *ConfigRepository {
	return &ConfigRepository{q: db.Pool}
}

func newConfigRepository(tx Queryable) interfaces.ConfigRepository {
	return &ConfigRepository{q: tx}
}

type configMaps struct {
	names      []byte
	strings    []byte
	assets     []byte
	timestamps []byte
	ints       []byte
	floats     []byte
	actions    []byte
}

func marshalConfig(cfg *entities.ConfigState) (*configMaps, error) {
	var m configMaps
	var err error
	if m.names, err = json.Marshal(cfg.Names); err != nil {
		return nil, fmt.Errorf("failed to marshal config names: %w", err)
	}
	if m.strings, err = json.Marshal(cfg.Strings); err != nil {
		return nil, fmt.Errorf("failed to marshal config strings: %w", err)
	}
	if m.assets, err = json.Marshal(cfg.Assets); err != nil {
		return nil, fmt.Errorf("failed to marshal config assets: %w", err)
	}
	if m.timestamps, err = json.Marshal(cfg.Timestamps); err != nil {
		return nil, fmt.Errorf("failed to marshal config timestamps: %w", err)
	}
	if m.ints, err = json.Marshal(cfg.Ints); err != nil {
		return nil, fmt.Errorf("failed to marshal config ints: %w", err)
	}
	if m.floats, err = json.Marshal(cfg.Floats); err != nil {
		return nil, fmt.Errorf("failed to marshal config floats: %w", err)
	}
	if m.actions, err = json.Marshal(cfg.Actions); err != nil {
		return nil, fmt.Errorf("failed to marshal config actions: %w", err)
	}
	return &m, nil
}

func unmarshalConfig(m *configMaps, cfg *entities.ConfigState) error {
	if err := json.Unmarshal(m.names, &cfg.Names); err != nil {
		return fmt.Errorf("failed to unmarshal config names: %w", err)
	}
	if err := json.Unmarshal(m.strings, &cfg.Strings); err != nil {
		return fmt.Errorf("failed to unmarshal config strings: %w", err)
	}
	if err := json.Unmarshal(m.assets, &cfg.Assets); err != nil {
		return fmt.Errorf("failed to unmarshal config assets: %w", err)
	}
	if err := json.Unmarshal(m.timestamps, &cfg.Timestamps); err != nil {
		return fmt.Errorf("failed to unmarshal config timestamps: %w", err)
	}
	if err := json.Unmarshal(m.ints, &cfg.Ints); err != nil {
		return fmt.Errorf("failed to unmarshal config ints: %w", err)
	}
	if err := json.Unmarshal(m.floats, &cfg.Floats); err != nil {
		return fmt.Errorf("failed to unmarshal config floats: %w", err)
	}
	if err := json.Unmarshal(m.actions, &cfg.Actions); err != nil {
		return fmt.Errorf("failed to unmarshal config actions: %w", err)
	}
	return nil
}

// GetOrCreate loads the config, creating an empty one if absent.
func (r *ConfigRepository) GetOrCreate(ctx context.Context) (*entities.ConfigState, error) {
	cfg := entities.NewConfigState()
	var m configMaps

	query := `
		SELECT version, names, strings, assets, timestamps, ints, floats, actions, updated_at
		FROM config_state WHERE id = 1
	`
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.Version, &m.names, &m.strings, &m.assets, &m.timestamps, &m.ints, &m.floats, &m.actions, &cfg.UpdatedAt)
	if err == pgx.ErrNoRows {
		insert := `
			INSERT INTO config_state (id) VALUES (1)
			ON CONFLICT (id) DO NOTHING
			RETURNING updated_at
		`
		if err := r.q.QueryRow(ctx, insert).Scan(&cfg.UpdatedAt); err != nil && err != pgx.ErrNoRows {
			return nil, fmt.Errorf("failed to initialize config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	if err := unmarshalConfig(&m, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Set persists the config, bumping its version.
func (r *ConfigRepository) Set(ctx context.Context, cfg *entities.ConfigState) error {
	m, err := marshalConfig(cfg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO config_state (id, version, names, strings, assets, timestamps, ints, floats, actions, updated_at)
		VALUES (1, 1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			version = config_state.version + 1,
			names = EXCLUDED.names,
			strings = EXCLUDED.strings,
			assets = EXCLUDED.assets,
			timestamps = EXCLUDED.timestamps,
			ints = EXCLUDED.ints,
			floats = EXCLUDED.floats,
			actions = EXCLUDED.actions,
			updated_at = NOW()
		RETURNING version, updated_at
	`
	err = r.q.QueryRow(ctx, query,
		m.names, m.strings, m.assets, m.timestamps, m.ints, m.floats, m.actions,
	).Scan(&cfg.Version, &cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set config: %w", err)
	}
	return nil
}
