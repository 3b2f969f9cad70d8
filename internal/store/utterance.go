package store

import (
	"database/sql"
	"strings"
	"time"
)

// DefaultHistoryLimit is the number of utterances returned when no limit is
// given.
const DefaultHistoryLimit = 50

// Utterance is a final transcript and the actions it triggered.
type Utterance struct {
	ID         int64
	Transcript string
	Actions    []string
	CreatedAt  time.Time
}

// UtteranceRepository records transcript history.
type UtteranceRepository struct {
	db *sql.DB
}

// Utterances returns the utterance repository for this store.
func (s *Store) Utterances() *UtteranceRepository {
	return &UtteranceRepository{db: s.db}
}

// Create inserts an utterance and sets its ID.
func (r *UtteranceRepository) Create(u *Utterance) error {
	u.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO utterances (transcript, actions, created_at) VALUES (?, ?, ?)`,
		u.Transcript, strings.Join(u.Actions, ","), u.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// Recent returns up to limit utterances, newest first.
func (r *UtteranceRepository) Recent(limit int) ([]*Utterance, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.Query(
		`SELECT id, transcript, actions, created_at
		 FROM utterances ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var utterances []*Utterance
	for rows.Next() {
		u := &Utterance{}
		var actions string
		if err := rows.Scan(&u.ID, &u.Transcript, &actions, &u.CreatedAt); err != nil {
			return nil, err
		}
		if actions != "" {
			u.Actions = strings.Split(actions, ",")
		}
		utterances = append(utterances, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return utterances, nil
}

// Prune keeps the newest keep utterances and deletes the rest.
func (r *UtteranceRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM utterances WHERE id NOT IN (
			SELECT id FROM utterances ORDER BY id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
