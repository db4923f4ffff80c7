package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/database"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/security"
	"github.com/VendorLens/vendorlens-go/pkg/config"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ui_state (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, key)
);
CREATE INDEX IF NOT EXISTS idx_ui_state_updated_at ON ui_state(updated_at);
`

// SQLStore persists UI state in a relational database. The default driver is
// sqlite3; libsql is supported for hosted deployments via DB_DRIVER. When an
// AES key is configured, values are encrypted at rest.
type SQLStore struct {
	db     *database.DB
	logger *logging.ChanneledLogger
	aesKey string
}

// NewSQLStore opens the database, ensures the schema, and returns the store.
func NewSQLStore(db *database.DB, logger *logging.ChanneledLogger) (*SQLStore, error) {
	s := &SQLStore{db: db, logger: logger, aesKey: config.AESKey}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize ui_state schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}

// Get retrieves a value for a session-scoped key.
func (s *SQLStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	start := time.Now()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ui_state WHERE session_id = ? AND key = ?`,
		sessionID, key,
	).Scan(&value)

	s.observe("storage:get", key, sessionID, start)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	if s.aesKey != "" {
		plaintext, decErr := security.Decrypt(string(value), s.aesKey)
		if decErr != nil {
			// Rows written before encryption was enabled stay readable.
			if s.logger != nil {
				s.logger.Storage().Warn("Stored value not decryptable, treating as plaintext",
					"key", key,
					"sessionId", logging.SanitizeSessionID(sessionID),
				)
			}
			return value, true, nil
		}
		return []byte(plaintext), true, nil
	}
	return value, true, nil
}

// Set writes a value for a session-scoped key, replacing any prior value.
func (s *SQLStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	start := time.Now()

	if s.aesKey != "" {
		ciphertext, err := security.Encrypt(string(value), s.aesKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt value for key %s: %w", key, err)
		}
		value = []byte(ciphertext)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ui_state (session_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		sessionID, key, value, time.Now().UTC(),
	)

	s.observe("storage:set", key, sessionID, start)

	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Remove deletes a session-scoped key. Removing a missing key is not an error.
func (s *SQLStore) Remove(ctx context.Context, sessionID, key string) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ui_state WHERE session_id = ? AND key = ?`,
		sessionID, key,
	)

	s.observe("storage:remove", key, sessionID, start)

	if err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

// RemoveSession deletes every key belonging to a session.
func (s *SQLStore) RemoveSession(ctx context.Context, sessionID string) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ui_state WHERE session_id = ?`,
		sessionID,
	)

	s.observe("storage:remove_session", "*", sessionID, start)

	if err != nil {
		return fmt.Errorf("failed to remove session state: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) observe(operation, key, sessionID string, start time.Time) {
	if s.logger == nil {
		return
	}
	duration := time.Since(start)
	s.logger.Storage().Debug("Storage operation",
		"operation", operation,
		"key", key,
		"sessionId", logging.SanitizeSessionID(sessionID),
		"duration", duration,
	)
	if duration > config.SlowQueryThreshold {
		s.logger.Perf().Warn("Slow storage operation",
			"operation", operation,
			"key", key,
			"duration", duration,
		)
	}
}
