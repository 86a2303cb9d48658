package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one row of the organization's audit timeline.
type Entry struct {
	ID             int64
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	Action         string
	Module         string
	Entity         string
	EntityID       string
	OldValues      map[string]any
	NewValues      map[string]any
	OccurredAt     time.Time
}

// Filters narrows timeline queries.
type Filters struct {
	Module   string
	Entity   string
	EntityID string
	ActorID  *uuid.UUID
	Page     int
	PerPage  int
}

// Repository reads the audit_logs table the shared writer appends to.
type Repository interface {
	List(ctx context.Context, orgID uuid.UUID, filters Filters) ([]Entry, int, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filters Filters) ([]Entry, int, error) {
	where := `WHERE organization_id=$1`
	args := []any{orgID}
	if filters.Module != "" {
		args = append(args, filters.Module)
		where += fmt.Sprintf(" AND module=$%d", len(args))
	}
	if filters.Entity != "" {
		args = append(args, filters.Entity)
		where += fmt.Sprintf(" AND entity=$%d", len(args))
	}
	if filters.EntityID != "" {
		args = append(args, filters.EntityID)
		where += fmt.Sprintf(" AND entity_id=$%d", len(args))
	}
	if filters.ActorID != nil {
		args = append(args, *filters.ActorID)
		where += fmt.Sprintf(" AND actor_id=$%d", len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT id, organization_id, actor_id, action, module, entity, entity_id, old_values, new_values, occurred_at
FROM audit_logs %s ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var oldJSON, newJSON []byte
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.ActorID, &e.Action, &e.Module, &e.Entity, &e.EntityID, &oldJSON, &newJSON, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		if len(oldJSON) > 0 {
			_ = json.Unmarshal(oldJSON, &e.OldValues)
		}
		if len(newJSON) > 0 {
			_ = json.Unmarshal(newJSON, &e.NewValues)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// PruneBefore deletes entries older than the cutoff. Called from the
// maintenance worker, never from request paths.
func (r *repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
