package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/downtime/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ScanHistoryDB journals scan passes in SQLite. Only per-pass counters are kept.
type ScanHistoryDB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// ScanHistoryEntry represents a record in the scan_history table.
type ScanHistoryEntry struct {
	ID            int64      `json:"id"`
	ScanSessionID string     `json:"scan_session_id"`
	Trigger       string     `json:"trigger"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Status        string     `json:"status"`
	NumTargets    int        `json:"num_targets"`
	SitesUp       int        `json:"sites_up"`
	SitesDown     int        `json:"sites_down"`
	Notifications int        `json:"notifications"`
	LogSummary    string     `json:"log_summary,omitempty"`
}

// NewScanHistoryDB opens (creating if needed) the database and ensures the schema.
func NewScanHistoryDB(dataSourceName string, logger zerolog.Logger) (*ScanHistoryDB, error) {
	logger = logger.With().Str("component", "ScanHistoryDB").Logger()
	logger.Info().Str("db_path", dataSourceName).Msg("Initializing scan history database")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scan history directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// one writer avoids SQLITE_BUSY between overlapping updates
	dbInstance.SetMaxOpenConns(1)

	h := &ScanHistoryDB{
		db:     dbInstance,
		logger: logger,
	}

	if err := h.InitSchema(context.Background()); err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return h, nil
}

// Close closes the database connection.
func (h *ScanHistoryDB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// InitSchema creates the scan_history table if it doesn't already exist.
func (h *ScanHistoryDB) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_session_id TEXT UNIQUE,
		scan_trigger TEXT NOT NULL,
		scan_start_time DATETIME NOT NULL,
		scan_end_time DATETIME,
		status TEXT NOT NULL,
		num_targets INTEGER NOT NULL DEFAULT 0,
		sites_up INTEGER NOT NULL DEFAULT 0,
		sites_down INTEGER NOT NULL DEFAULT 0,
		notifications INTEGER NOT NULL DEFAULT 0,
		log_summary TEXT
	);
	`
	if _, err := h.db.ExecContext(ctx, query); err != nil {
		h.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// RecordScanStart inserts a STARTED row and returns its id.
func (h *ScanHistoryDB) RecordScanStart(ctx context.Context, scanSessionID string, trigger models.ScanTrigger, numTargets int, startTime time.Time) (int64, error) {
	query := `INSERT INTO scan_history (scan_session_id, scan_trigger, num_targets, scan_start_time, status) VALUES (?, ?, ?, ?, ?)`
	result, err := h.db.ExecContext(ctx, query, scanSessionID, string(trigger), numTargets, startTime.UTC(), string(models.ScanStatusStarted))
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	h.logger.Debug().Int64("db_id", id).Str("scan_session_id", scanSessionID).Msg("Recorded scan start")
	return id, nil
}

// UpdateScanCompletion stores the outcome of the pass identified by dbScanID.
func (h *ScanHistoryDB) UpdateScanCompletion(ctx context.Context, dbScanID int64, summary models.ScanSummary) error {
	endTime := summary.StartedAt.Add(summary.Duration).UTC()
	query := `UPDATE scan_history SET scan_end_time = ?, status = ?, num_targets = ?, sites_up = ?, sites_down = ?, notifications = ?, log_summary = ? WHERE id = ?`
	logSummary := sql.NullString{String: summary.PersistErrMessage, Valid: summary.PersistErrMessage != ""}

	res, err := h.db.ExecContext(ctx, query, endTime, string(summary.Status), summary.SitesChecked,
		summary.SitesUp, summary.SitesDown, summary.Notifications, logSummary, dbScanID)
	if err != nil {
		return fmt.Errorf("failed to update scan completion for ID %d: %w", dbScanID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no scan history row with ID %d", dbScanID)
	}
	h.logger.Debug().Int64("db_id", dbScanID).Str("status", string(summary.Status)).Msg("Updated scan completion")
	return nil
}

// GetLastScanTime returns the start time of the most recent completed pass,
// or nil when there is none.
func (h *ScanHistoryDB) GetLastScanTime(ctx context.Context) (*time.Time, error) {
	query := `SELECT scan_start_time FROM scan_history WHERE status = ? ORDER BY scan_start_time DESC LIMIT 1`
	var scanStartTime time.Time
	err := h.db.QueryRowContext(ctx, query, string(models.ScanStatusCompleted)).Scan(&scanStartTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last scan start time: %w", err)
	}
	return &scanStartTime, nil
}

// RecentScans returns up to limit entries, newest first.
func (h *ScanHistoryDB) RecentScans(ctx context.Context, limit int) ([]ScanHistoryEntry, error) {
	query := `SELECT id, scan_session_id, scan_trigger, scan_start_time, scan_end_time, status, num_targets, sites_up, sites_down, notifications, log_summary
		FROM scan_history ORDER BY id DESC LIMIT ?`
	rows, err := h.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var entries []ScanHistoryEntry
	for rows.Next() {
		var (
			e          ScanHistoryEntry
			endTime    sql.NullTime
			logSummary sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ScanSessionID, &e.Trigger, &e.StartTime, &endTime, &e.Status,
			&e.NumTargets, &e.SitesUp, &e.SitesDown, &e.Notifications, &logSummary); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if endTime.Valid {
			e.EndTime = &endTime.Time
		}
		e.LogSummary = logSummary.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
