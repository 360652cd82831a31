package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govpay/database"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// RecordRepository implements the RecordRepository interface over the
// scoped records table. Each scope has its own id space; ids are allocated
// as max+1 inside the caller's transaction, which the single-writer
// execution model makes safe.
type RecordRepository struct {
	q Queryable
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB) *RecordRepository {
	return &RecordRepository{q: db.Pool}
}

func newRecordRepository(tx Queryable) interfaces.RecordRepository {
	return &RecordRepository{q: tx}
}

// recordAttrs is the JSONB wire form of the six attribute maps.
type recordAttrs struct {
	names      []byte
	strings    []byte
	assets     []byte
	timestamps []byte
	ints       []byte
	floats     []byte
	actions    []byte
}

func marshalAttrs(r *entities.Record) (*recordAttrs, error) {
	r.EnsureMaps()
	var a recordAttrs
	var err error
	if a.names, err = json.Marshal(r.Names); err != nil {
		return nil, fmt.Errorf("failed to marshal names: %w", err)
	}
	if a.strings, err = json.Marshal(r.Strings); err != nil {
		return nil, fmt.Errorf("failed to marshal strings: %w", err)
	}
	if a.assets, err = json.Marshal(r.Assets); err != nil {
		return nil, fmt.Errorf("failed to marshal assets: %w", err)
	}
	if a.timestamps, err = json.Marshal(r.Timestamps); err != nil {
		return nil, fmt.Errorf("failed to marshal timestamps: %w", err)
	}
	if a.ints, err = json.Marshal(r.Ints); err != nil {
		return nil, fmt.Errorf("failed to marshal ints: %w", err)
	}
	if a.floats, err = json.Marshal(r.Floats); err != nil {
		return nil, fmt.Errorf("failed to marshal floats: %w", err)
	}
	if a.actions, err = json.Marshal(r.Actions); err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	return &a, nil
}

func scanRecord(row pgx.Row) (*entities.Record, error) {
	var r entities.Record
	var a recordAttrs
	err := row.Scan(
		&r.Scope,
		&r.ID,
		&a.names,
		&a.strings,
		&a.assets,
		&a.timestamps,
		&a.ints,
		&a.floats,
		&a.actions,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(a.names, &r.Names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal names: %w", err)
	}
	if err := json.Unmarshal(a.strings, &r.Strings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strings: %w", err)
	}
	if err := json.Unmarshal(a.assets, &r.Assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
	}
	if err := json.Unmarshal(a.timestamps, &r.Timestamps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal timestamps: %w", err)
	}
	if err := json.Unmarshal(a.ints, &r.Ints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ints: %w", err)
	}
	if err := json.Unmarshal(a.floats, &r.Floats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal floats: %w", err)
	}
	if err := json.Unmarshal(a.actions, &r.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}
	r.EnsureMaps()
	return &r, nil
}

const recordColumns = `scope, id, names, strings, assets, timestamps, ints, floats, actions, created_at, updated_at`

// Create allocates the next id within the record's scope and stores the
// attribute maps verbatim.
func (r *RecordRepository) Create(ctx context.Context, record *entities.Record) error {
	attrs, err := marshalAttrs(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO records (scope, id, names, strings, assets, timestamps, ints, floats, actions)
		VALUES ($1, COALESCE((SELECT MAX(id) + 1 FROM records WHERE scope = $1), 1), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = r.q.QueryRow(ctx, query, record.Scope,
		attrs.names, attrs.strings, attrs.assets, attrs.timestamps, attrs.ints, attrs.floats, attrs.actions,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create record in scope %s: %w", record.Scope, err)
	}
	return nil
}

// Get retrieves a record by scope and id. Returns (nil, nil) if absent.
func (r *RecordRepository) Get(ctx context.Context, scope string, id int64) (*entities.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE scope = $1 AND id = $2`
	record, err := scanRecord(r.q.QueryRow(ctx, query, scope, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%d: %w", scope, id, err)
	}
	return record, nil
}

func (r *RecordRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*entities.Record, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*entities.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// FindByOwner returns records in scope with a matching owner, ordered by id.
func (r *RecordRepository) FindByOwner(ctx context.Context, scope, owner string) ([]*entities.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE scope = $1 AND names->>'owner' = $2 ORDER BY id`
	records, err := r.queryRecords(ctx, query, scope, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find records in %s by owner %s: %w", scope, owner, err)
	}
	return records, nil
}

// FindByType returns records in scope with a matching type, ordered by id.
func (r *RecordRepository) FindByType(ctx context.Context, scope, typeName string) ([]*entities.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE scope = $1 AND names->>'type' = $2 ORDER BY id`
	records, err := r.queryRecords(ctx, query, scope, typeName)
	if err != nil {
		return nil, fmt.Errorf("failed to find records in %s by type %s: %w", scope, typeName, err)
	}
	return records, nil
}

// FindByFK returns records in scope with a matching foreign key, ordered by id.
func (r *RecordRepository) FindByFK(ctx context.Context, scope string, fk int64) ([]*entities.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE scope = $1 AND (ints->>'fk')::bigint = $2 ORDER BY id`
	records, err := r.queryRecords(ctx, query, scope, fk)
	if err != nil {
		return nil, fmt.Errorf("failed to find records in %s by fk %d: %w", scope, fk, err)
	}
	return records, nil
}

// FindCreatedSince returns records created at or after the given time.
func (r *RecordRepository) FindCreatedSince(ctx context.Context, scope string, since time.Time) ([]*entities.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE scope = $1 AND created_at >= $2 ORDER BY created_at, id`
	records, err := r.queryRecords(ctx, query, scope, since)
	if err != nil {
		return nil, fmt.Errorf("failed to find records in %s created since %s: %w", scope, since, err)
	}
	return records, nil
}

// FindUpdatedSince returns records updated at or after the given time.
func (r *RecordRepository) FindUpdatedSince(ctx context.Context, scope string, since time.Time) ([]*entities.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE scope = $1 AND updated_at >= $2 ORDER BY updated_at, id`
	records, err := r.queryRecords(ctx, query, scope, since)
	if err != nil {
		return nil, fmt.Errorf("failed to find records in %s updated since %s: %w", scope, since, err)
	}
	return records, nil
}

// Update applies an in-place field patch and refreshes the update
// timestamp. Fails with ErrNotFound if the record is absent.
func (r *RecordRepository) Update(ctx context.Context, scope string, id int64, mutate func(*entities.Record) error) error {
	record, err := r.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: scope %s, object id %d does not exist", entities.ErrNotFound, scope, id)
	}

	if err := mutate(record); err != nil {
		return err
	}
	attrs, err := marshalAttrs(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE records
		SET names = $3, strings = $4, assets = $5, timestamps = $6, ints = $7, floats = $8, actions = $9, updated_at = NOW()
		WHERE scope = $1 AND id = $2
	`
	tag, err := r.q.Exec(ctx, query, scope, id,
		attrs.names, attrs.strings, attrs.assets, attrs.timestamps, attrs.ints, attrs.floats, attrs.actions)
	if err != nil {
		return fmt.Errorf("failed to update record %s/%d: %w", scope, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: scope %s, object id %d does not exist", entities.ErrNotFound, scope, id)
	}
	return nil
}

// Move copies a record into a new scope with a prior-scope trail and
// optionally deletes the source. Returns the new id.
func (r *RecordRepository) Move(ctx context.Context, fromScope string, id int64, toScope string, deleteOriginal bool) (int64, error) {
	source, err := r.Get(ctx, fromScope, id)
	if err != nil {
		return 0, err
	}
	if source == nil {
		return 0, fmt.Errorf("%w: scope %s, object id %d does not exist", entities.ErrNotFound, fromScope, id)
	}

	clone := source.CloneInto(toScope)
	if err := r.Create(ctx, clone); err != nil {
		return 0, err
	}

	if deleteOriginal {
		if err := r.Delete(ctx, fromScope, id); err != nil {
			return 0, err
		}
	}
	return clone.ID, nil
}

// Delete removes a single record. Fails with ErrNotFound if absent.
func (r *RecordRepository) Delete(ctx context.Context, scope string, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM records WHERE scope = $1 AND id = $2`, scope, id)
	if err != nil {
		return fmt.Errorf("failed to delete record %s/%d: %w", scope, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: scope %s, object id %d does not exist", entities.ErrNotFound, scope, id)
	}
	return nil
}

// DeleteRange removes records with id in [begin, end] inclusive, skipping
// gaps. Returns the number removed.
func (r *RecordRepository) DeleteRange(ctx context.Context, scope string, begin, end int64) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM records WHERE scope = $1 AND id BETWEEN $2 AND $3`,
		scope, begin, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records %s/[%d,%d]: %w", scope, begin, end, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every record in a scope. Returns the number removed.
func (r *RecordRepository) DeleteAll(ctx context.Context, scope string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM records WHERE scope = $1`, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records in scope %s: %w", scope, err)
	}
	return tag.RowsAffected(), nil
}
