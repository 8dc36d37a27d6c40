// Package persist stores table snapshots and player balances in SQLite.
package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/decred/slog"
	_ "github.com/mattn/go-sqlite3"

	"github.com/felttable/holdem/pkg/poker"
)

// SQLiteSink implements poker.PersistenceSink on a local SQLite database.
// Every snapshot is appended to the snapshots table as a JSON blob and the
// per-player chip balances are upserted, so a restarted operator can read
// the latest state without replaying events. Writes are fire-and-forget
// from the engine's point of view; failures are logged, never surfaced.
type SQLiteSink struct {
	log slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteSink opens (and if needed creates) the database at path. The
// string ":memory:" yields a throwaway in-memory database for tests.
func NewSQLiteSink(path string, log slog.Logger) (*SQLiteSink, error) {
	if log == nil {
		log = slog.Disabled
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %q: %w", path, err)
	}
	// The engine serializes writes already; a single connection avoids
	// SQLITE_BUSY on the file-backed driver.
	db.SetMaxOpenConns(1)

	s := &SQLiteSink{log: log, db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) createTables() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		table_id    TEXT NOT NULL,
		hand_id     TEXT,
		phase       TEXT NOT NULL,
		state       TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_table ON snapshots(table_id, id);

	CREATE TABLE IF NOT EXISTS balances (
		player_id   TEXT PRIMARY KEY,
		table_id    TEXT NOT NULL,
		chips       INTEGER NOT NULL,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// SyncState implements poker.PersistenceSink.
func (s *SQLiteSink) SyncState(snapshot poker.TableSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Errorf("marshal snapshot for table %s: %v", snapshot.TableID, err)
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		s.log.Errorf("begin snapshot tx for table %s: %v", snapshot.TableID, err)
		return
	}

	_, err = tx.Exec(`INSERT INTO snapshots (table_id, hand_id, phase, state) VALUES (?, ?, ?, ?)`,
		snapshot.TableID, snapshot.HandID, snapshot.PhaseName, string(blob))
	if err != nil {
		tx.Rollback()
		s.log.Errorf("insert snapshot for table %s: %v", snapshot.TableID, err)
		return
	}

	for _, seat := range snapshot.Seats {
		_, err = tx.Exec(`INSERT INTO balances (player_id, table_id, chips, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(player_id) DO UPDATE SET
				table_id = excluded.table_id,
				chips = excluded.chips,
				updated_at = CURRENT_TIMESTAMP`,
			seat.ID, snapshot.TableID, seat.Stack)
		if err != nil {
			tx.Rollback()
			s.log.Errorf("upsert balance for player %s: %v", seat.ID, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.log.Errorf("commit snapshot for table %s: %v", snapshot.TableID, err)
	}
}

// LatestSnapshot returns the most recent snapshot stored for a table.
func (s *SQLiteSink) LatestSnapshot(tableID string) (poker.TableSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob string
	err := s.db.QueryRow(
		`SELECT state FROM snapshots WHERE table_id = ? ORDER BY id DESC LIMIT 1`,
		tableID).Scan(&blob)
	if err != nil {
		return poker.TableSnapshot{}, fmt.Errorf("load latest snapshot for %s: %w", tableID, err)
	}

	var snap poker.TableSnapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return poker.TableSnapshot{}, fmt.Errorf("decode snapshot for %s: %w", tableID, err)
	}
	return snap, nil
}

// Balance returns a player's last persisted chip count.
func (s *SQLiteSink) Balance(playerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var chips int64
	err := s.db.QueryRow(`SELECT chips FROM balances WHERE player_id = ?`, playerID).Scan(&chips)
	if err != nil {
		return 0, fmt.Errorf("load balance for %s: %w", playerID, err)
	}
	return chips, nil
}

// SnapshotCount reports how many snapshots a table has accumulated.
func (s *SQLiteSink) SnapshotCount(tableID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE table_id = ?`, tableID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshots for %s: %w", tableID, err)
	}
	return n, nil
}

// Close flushes and closes the underlying database.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
