package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - persisted configuration overrides
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Snapshots table - encoded canvas images saved on request
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			format TEXT NOT NULL DEFAULT 'png',
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Utterances table - final transcripts and the actions they triggered
		`CREATE TABLE IF NOT EXISTS utterances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transcript TEXT NOT NULL,
			actions TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_utterances_created_at ON utterances(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
