package interfaces

import (
	"context"
	"time"

	"govpay/domain/entities"
	"govpay/domain/events"
)

// RecordRepository defines data access for the scoped, schema-flexible
// record store. Find results are ordered by the index's sort key and are
// restartable by re-querying.
type RecordRepository interface {
	// Create allocates the next id within the record's scope, stores the
	// attribute maps verbatim and stamps creation/update times.
	Create(ctx context.Context, record *entities.Record) error

	// Get retrieves a record by scope and id. Returns (nil, nil) if absent.
	Get(ctx context.Context, scope string, id int64) (*entities.Record, error)

	// FindByOwner returns records in scope with a matching owner name.
	FindByOwner(ctx context.Context, scope, owner string) ([]*entities.Record, error)

	// FindByType returns records in scope with a matching type name.
	FindByType(ctx context.Context, scope, typeName string) ([]*entities.Record, error)

	// FindByFK returns records in scope with a matching foreign-key int.
	FindByFK(ctx context.Context, scope string, fk int64) ([]*entities.Record, error)

	// FindCreatedSince returns records created at or after the given time,
	// ordered by creation time.
	FindCreatedSince(ctx context.Context, scope string, since time.Time) ([]*entities.Record, error)

	// FindUpdatedSince returns records updated at or after the given time,
	// ordered by update time.
	FindUpdatedSince(ctx context.Context, scope string, since time.Time) ([]*entities.Record, error)

	// Update applies an in-place field patch and refreshes the update
	// timestamp. Fails with ErrNotFound if the record is absent.
	Update(ctx context.Context, scope string, id int64, mutate func(*entities.Record) error) error

	// Move copies a record into a new scope, stamping prior_scope and
	// prior_id, and optionally deletes the source. Returns the new id.
	Move(ctx context.Context, fromScope string, id int64, toScope string, deleteOriginal bool) (int64, error)

	// Delete removes a single record. Fails with ErrNotFound if absent.
	Delete(ctx context.Context, scope string, id int64) error

	// DeleteRange removes records with id in [begin, end] inclusive,
	// skipping gaps. Returns the number removed.
	DeleteRange(ctx context.Context, scope string, begin, end int64) (int64, error)

	// DeleteAll removes every record in a scope, one row at a time, with no
	// cross-row atomicity promise. Returns the number removed.
	DeleteAll(ctx context.Context, scope string) (int64, error)
}

// PeriodRepository defines data access for payroll periods.
type PeriodRepository interface {
	// Create appends a new period with the next id.
	Create(ctx context.Context, start, end time.Time) (*entities.Period, error)

	// Get retrieves a period by id. Returns (nil, nil) if absent.
	Get(ctx context.Context, id int64) (*entities.Period, error)

	// DeleteRange removes periods with id in [begin, end] inclusive,
	// skipping gaps. Returns the number removed.
	DeleteRange(ctx context.Context, begin, end int64) (int64, error)

	// DeleteAll removes every period.
	DeleteAll(ctx context.Context) (int64, error)
}

// PaymentRepository defines data access for general ledger lines.
type PaymentRepository interface {
	// Create appends a ledger line, assigning the next id.
	Create(ctx context.Context, payment *entities.Payment) error

	// GetByPeriod returns payments for a period, ordered by id.
	GetByPeriod(ctx context.Context, periodID int64) ([]*entities.Payment, error)

	// GetByRecipient returns payments to a recipient, newest first.
	GetByRecipient(ctx context.Context, recipient string, limit int) ([]*entities.Payment, error)

	// GetByAssignment returns payments tied to an assignment, ordered by id.
	GetByAssignment(ctx context.Context, assignmentID int64) ([]*entities.Payment, error)

	// DeleteAll removes every ledger line.
	DeleteAll(ctx context.Context) (int64, error)
}

// AssignmentPaymentRepository defines data access for the payroll
// idempotency records.
type AssignmentPaymentRepository interface {
	// Create records one assignment payment. Fails with ErrDuplicateKey if
	// one already exists for the (assignment, period) pair.
	Create(ctx context.Context, payment *entities.AssignmentPayment) error

	// GetByPeriod returns assignment payments for a period, ordered by id.
	GetByPeriod(ctx context.Context, periodID int64) ([]*entities.AssignmentPayment, error)
}

// ConfigRepository defines access to the domain configuration singleton.
type ConfigRepository interface {
	// GetOrCreate loads the config, creating an empty one if absent.
	GetOrCreate(ctx context.Context) (*entities.ConfigState, error)

	// Set persists the config, bumping its version.
	Set(ctx context.Context, cfg *entities.ConfigState) error
}

// MemberRepository defines data access for the membership registry.
type MemberRepository interface {
	// Get retrieves a member by account. Returns (nil, nil) if absent.
	Get(ctx context.Context, account string) (*entities.Member, error)

	// Create adds a member. Fails with ErrDuplicateKey if already present.
	Create(ctx context.Context, account string) (*entities.Member, error)

	// Update persists the completed-challenge list.
	Update(ctx context.Context, member *entities.Member) error

	// Delete removes a member. Fails with ErrNotFound if absent.
	Delete(ctx context.Context, account string) error
}

// ApplicantRepository defines data access for pending applications.
type ApplicantRepository interface {
	// Get retrieves an applicant by account. Returns (nil, nil) if absent.
	Get(ctx context.Context, account string) (*entities.Applicant, error)

	// Upsert creates the application or refreshes its content.
	Upsert(ctx context.Context, account, content string) (*entities.Applicant, error)

	// Delete removes an application. Fails with ErrNotFound if absent.
	Delete(ctx context.Context, account string) error
}

// AuditLogRepository defines the append-only domain note log.
type AuditLogRepository interface {
	// Append adds one note line.
	Append(ctx context.Context, notes string) error

	// DeleteBatch removes notes with id in [startingID, startingID+batchSize]
	// and returns the smallest remaining id above the batch, or 0 when the
	// log is drained past that point.
	DeleteBatch(ctx context.Context, startingID, batchSize int64) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the enclosing unit of
// work commits.
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
