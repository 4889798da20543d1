package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drjagan/e-logbook/internal/domain"
	"github.com/drjagan/e-logbook/internal/events"
	"github.com/drjagan/e-logbook/internal/observability"
)

const activityColumns = `activity_id, owner_id, title, activity_type, report, activity_date, last_modified, created_at, updated_at`

// Repository provides Postgres-backed persistence for activities and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// withOwner runs fn in a transaction with the row-level security owner set.
func (r *Repository) withOwner(ctx context.Context, ownerID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.owner_id', $1, true)", ownerID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Create persists the activity and records the created event in a single transaction.
func (r *Repository) Create(ctx context.Context, activity domain.Activity) error {
	err := r.withOwner(ctx, activity.OwnerID, func(tx pgx.Tx) error {
		const insertActivity = `INSERT INTO activities (` + activityColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

		if _, err := tx.Exec(ctx, insertActivity,
			activity.ID,
			activity.OwnerID,
			activity.Title,
			string(activity.Type),
			activity.Report,
			activity.ActivityDate,
			activity.LastModified,
			activity.CreatedAt,
			activity.UpdatedAt,
		); err != nil {
			return err
		}

		return r.insertOutbox(ctx, tx, activity.OwnerID, activity.ID, events.TypeActivityCreated, events.ActivityCreated{
			ActivityID:   activity.ID,
			OwnerID:      activity.OwnerID,
			Title:        activity.Title,
			ActivityType: string(activity.Type),
			ActivityDate: activity.ActivityDate,
			OccurredAt:   activity.CreatedAt,
		})
	})
	if err != nil {
		return err
	}
	observability.RecordActivityPersisted(activity.LastModified)
	return nil
}

// Get retrieves an owned activity by ID.
func (r *Repository) Get(ctx context.Context, ownerID, activityID string) (*domain.Activity, error) {
	var found *domain.Activity
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE owner_id=$1 AND activity_id::text=$2`, ownerID, activityID)
		activity, err := scanActivity(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		found = &activity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update applies the supplied fields with one conditional UPDATE so the ownership
// check and the write cannot interleave with another writer.
func (r *Repository) Update(ctx context.Context, ownerID, activityID string, input domain.UpdateActivityInput, now time.Time) (*domain.Activity, error) {
	var updated *domain.Activity
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		const stmt = `UPDATE activities SET
            title = COALESCE($3::text, title),
            activity_type = COALESCE($4::text, activity_type),
            report = COALESCE($5::text, report),
            activity_date = COALESCE($6::timestamptz, activity_date),
            last_modified = GREATEST(last_modified, $7::timestamptz),
            updated_at = GREATEST(last_modified, $7::timestamptz)
        WHERE owner_id=$1 AND activity_id::text=$2
        RETURNING ` + activityColumns

		var activityType *string
		if input.Type != nil {
			value := string(*input.Type)
			activityType = &value
		}
		var activityDate *time.Time
		if input.ActivityDate != nil {
			value := input.ActivityDate.UTC()
			activityDate = &value
		}

		row := tx.QueryRow(ctx, stmt, ownerID, activityID, input.Title, activityType, input.Report, activityDate, now)
		activity, err := scanActivity(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		updated = &activity

		return r.insertOutbox(ctx, tx, ownerID, activity.ID, events.TypeActivityUpdated, events.ActivityUpdated{
			ActivityID:   activity.ID,
			OwnerID:      activity.OwnerID,
			Title:        activity.Title,
			ActivityType: string(activity.Type),
			ActivityDate: activity.ActivityDate,
			LastModified: activity.LastModified,
		})
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		observability.RecordActivityPersisted(updated.LastModified)
	}
	return updated, nil
}

// Delete hard-deletes an owned activity.
func (r *Repository) Delete(ctx context.Context, ownerID, activityID string) (bool, error) {
	deleted := false
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE owner_id=$1 AND activity_id::text=$2`, ownerID, activityID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		deleted = true

		return r.insertOutbox(ctx, tx, ownerID, activityID, events.TypeActivityDeleted, events.ActivityDeleted{
			ActivityID: activityID,
			OwnerID:    ownerID,
			DeletedAt:  time.Now().UTC(),
		})
	})
	return deleted, err
}

// List returns one page of matching activities, newest first, and the total match count.
func (r *Repository) List(ctx context.Context, ownerID string, query domain.ListQuery) ([]domain.Activity, int, error) {
	query = query.Normalized()
	where, args := buildFilter(ownerID, query)

	var (
		results []domain.Activity
		total   int
	)
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE `+where, args...).Scan(&total); err != nil {
			return err
		}

		pageArgs := append(append([]interface{}{}, args...), query.Limit, query.Offset())
		stmt := fmt.Sprintf(`SELECT %s FROM activities WHERE %s ORDER BY activity_date DESC, activity_id DESC LIMIT $%d OFFSET $%d`,
			activityColumns, where, len(args)+1, len(args)+2)

		rows, err := tx.Query(ctx, stmt, pageArgs...)
		if err != nil {
			return err
		}
		results, err = collectActivities(rows, query.Limit)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// ListAll returns every activity of the owner, newest first.
func (r *Repository) ListAll(ctx context.Context, ownerID string) ([]domain.Activity, error) {
	var results []domain.Activity
	err := r.withOwner(ctx, ownerID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+activityColumns+` FROM activities WHERE owner_id=$1 ORDER BY activity_date DESC, activity_id DESC`, ownerID)
		if err != nil {
			return err
		}
		results, err = collectActivities(rows, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func buildFilter(ownerID string, query domain.ListQuery) (string, []interface{}) {
	clauses := []string{"owner_id=$1"}
	args := []interface{}{ownerID}

	if query.Type != nil {
		args = append(args, string(*query.Type))
		clauses = append(clauses, fmt.Sprintf("activity_type=$%d", len(args)))
	}
	if query.StartDate != nil {
		args = append(args, *query.StartDate)
		clauses = append(clauses, fmt.Sprintf("activity_date >= $%d", len(args)))
	}
	if query.EndDate != nil {
		args = append(args, *query.EndDate)
		clauses = append(clauses, fmt.Sprintf("activity_date <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var (
		a            domain.Activity
		activityType string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &activityType, &a.Report, &a.ActivityDate, &a.LastModified, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Activity{}, err
	}
	a.Type = domain.ActivityType(activityType)
	a.ActivityDate = a.ActivityDate.UTC()
	a.LastModified = a.LastModified.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func collectActivities(rows pgx.Rows, capacity int) ([]domain.Activity, error) {
	defer rows.Close()

	results := make([]domain.Activity, 0, capacity)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, ownerID, activityID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (owner_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt,
		ownerID,
		"activity",
		activityID,
		eventType,
		meta.Topic,
		meta.PartitionKeyFn(ownerID, activityID),
		body,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	PartitionKeyFn func(ownerID, activityID string) string
}

// Every lifecycle event of one activity shares a partition so consumers see them in order.
func byActivity(_, activityID string) string { return activityID }

var eventCatalog = map[string]EventMetadata{
	events.TypeActivityCreated: {Topic: "activity_events", PartitionKeyFn: byActivity},
	events.TypeActivityUpdated: {Topic: "activity_events", PartitionKeyFn: byActivity},
	events.TypeActivityDeleted: {Topic: "activity_events", PartitionKeyFn: byActivity},
}
