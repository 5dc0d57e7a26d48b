package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/theater-rt/theater/internal/permission"
	"github.com/theater-rt/theater/internal/theaterid"
)

// ErrNotFound is returned when a lookup finds no matching actor process.
var ErrNotFound = errors.New("actor process not found")

// ActorProcessStatus mirrors spec §3's ActorProcess.status field.
type ActorProcessStatus string

const (
	StatusRunning ActorProcessStatus = "running"
	StatusPaused  ActorProcessStatus = "paused"
	StatusFailed  ActorProcessStatus = "failed"
	StatusStopped ActorProcessStatus = "stopped"
)

// ActorProcessRecord is the persisted projection of spec §4.9's
// ActorProcess: enough to reconstruct the supervision tree and re-validate
// permissions on restart, without any of the live task handles (those are
// always recreated fresh).
type ActorProcessRecord struct {
	ActorID      theaterid.ActorId
	ParentID     *theaterid.ActorId
	ComponentRef theaterid.ContentRef
	ManifestName string
	Permissions  permission.Permissions
	Status       ActorProcessStatus
	CreatedAt    int64
	UpdatedAt    int64
}

// Save inserts or replaces the record for rec.ActorID.
func (s *Store) Save(ctx context.Context, rec ActorProcessRecord) error {
	permJSON, err := marshalPermissions(rec.Permissions)
	if err != nil {
		return fmt.Errorf("encoding permissions: %w", err)
	}

	var parentID any
	if rec.ParentID != nil {
		parentID = rec.ParentID.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actor_processes (
			actor_id, parent_id, component_ref, manifest_name,
			permissions_json, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET
			parent_id = excluded.parent_id,
			component_ref = excluded.component_ref,
			manifest_name = excluded.manifest_name,
			permissions_json = excluded.permissions_json,
			status = excluded.status,
			updated_at = excluded.updated_at
	`,
		rec.ActorID.String(), parentID, rec.ComponentRef.String(),
		rec.ManifestName, string(permJSON), string(rec.Status),
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving actor process: %w", err)
	}

	return nil
}

// UpdateStatus updates only the status and updatedAt columns for actorID.
func (s *Store) UpdateStatus(
	ctx context.Context, actorID theaterid.ActorId, status ActorProcessStatus,
	updatedAt int64,
) error {

	res, err := s.db.ExecContext(ctx, `
		UPDATE actor_processes
		SET status = ?, updated_at = ?
		WHERE actor_id = ?
	`, string(status), updatedAt, actorID.String())
	if err != nil {
		return fmt.Errorf("updating actor process status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Get fetches the record for actorID.
func (s *Store) Get(
	ctx context.Context, actorID theaterid.ActorId,
) (ActorProcessRecord, error) {

	row := s.db.QueryRowContext(ctx, `
		SELECT actor_id, parent_id, component_ref, manifest_name,
		       permissions_json, status, created_at, updated_at
		FROM actor_processes
		WHERE actor_id = ?
	`, actorID.String())

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return ActorProcessRecord{}, ErrNotFound
	}
	if err != nil {
		return ActorProcessRecord{}, fmt.Errorf("reading actor process: %w", err)
	}

	return rec, nil
}

// ListChildren returns every record whose parent is parentID.
func (s *Store) ListChildren(
	ctx context.Context, parentID theaterid.ActorId,
) ([]ActorProcessRecord, error) {

	return s.query(ctx, `
		SELECT actor_id, parent_id, component_ref, manifest_name,
		       permissions_json, status, created_at, updated_at
		FROM actor_processes
		WHERE parent_id = ?
	`, parentID.String())
}

// ListAll returns every persisted actor process, for restart recovery.
func (s *Store) ListAll(ctx context.Context) ([]ActorProcessRecord, error) {
	return s.query(ctx, `
		SELECT actor_id, parent_id, component_ref, manifest_name,
		       permissions_json, status, created_at, updated_at
		FROM actor_processes
	`)
}

// Delete removes the record for actorID, e.g. once its shutdown sequence
// completes.
func (s *Store) Delete(ctx context.Context, actorID theaterid.ActorId) error {
	_, err := s.db.ExecContext(
		ctx, `DELETE FROM actor_processes WHERE actor_id = ?`,
		actorID.String(),
	)
	if err != nil {
		return fmt.Errorf("deleting actor process: %w", err)
	}

	return nil
}

func (s *Store) query(
	ctx context.Context, query string, args ...any,
) ([]ActorProcessRecord, error) {

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actor processes: %w", err)
	}
	defer rows.Close()

	var out []ActorProcessRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("reading actor process: %w", err)
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

func scanRecord(scan func(dest ...any) error) (ActorProcessRecord, error) {
	var (
		actorIDStr, componentRefStr, manifestName, status, permJSON string
		parentIDStr                                                 sql.NullString
		createdAt, updatedAt                                        int64
	)

	err := scan(
		&actorIDStr, &parentIDStr, &componentRefStr, &manifestName,
		&permJSON, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return ActorProcessRecord{}, err
	}

	actorID, err := theaterid.ParseActorId(actorIDStr)
	if err != nil {
		return ActorProcessRecord{}, fmt.Errorf("parsing actor id: %w", err)
	}

	componentRef, err := theaterid.ParseContentRef(componentRefStr)
	if err != nil {
		return ActorProcessRecord{}, fmt.Errorf("parsing component ref: %w", err)
	}

	perms, err := unmarshalPermissions([]byte(permJSON))
	if err != nil {
		return ActorProcessRecord{}, fmt.Errorf("decoding permissions: %w", err)
	}

	rec := ActorProcessRecord{
		ActorID:      actorID,
		ComponentRef: componentRef,
		ManifestName: manifestName,
		Permissions:  perms,
		Status:       ActorProcessStatus(status),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}

	if parentIDStr.Valid {
		parentID, err := theaterid.ParseActorId(parentIDStr.String)
		if err != nil {
			return ActorProcessRecord{}, fmt.Errorf("parsing parent id: %w", err)
		}

		rec.ParentID = &parentID
	}

	return rec, nil
}
