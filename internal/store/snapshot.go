package store

import (
	"database/sql"
	"errors"
	"time"
)

// Snapshot is an encoded image of the canvas saved on request.
type Snapshot struct {
	ID        string
	Width     int
	Height    int
	Format    string
	Data      []byte
	CreatedAt time.Time
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a new snapshot.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	snap.CreatedAt = time.Now()
	if snap.Format == "" {
		snap.Format = "png"
	}

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, width, height, format, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Width, snap.Height, snap.Format, snap.Data, snap.CreatedAt,
	)
	return err
}

// GetByID retrieves a snapshot, including its image data.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap := &Snapshot{}

	err := r.db.QueryRow(
		`SELECT id, width, height, format, data, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	).Scan(&snap.ID, &snap.Width, &snap.Height, &snap.Format, &snap.Data, &snap.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return snap, nil
}

// List returns all snapshots, newest first, without image data.
func (r *SnapshotRepository) List() ([]*Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, width, height, format, created_at
		 FROM snapshots ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Width, &snap.Height, &snap.Format, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Delete removes a snapshot by its ID.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
