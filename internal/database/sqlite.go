package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"smartguard/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Repository is the durable alarm history, one append-only log per user.
type Repository struct {
	db  *sql.DB
	cap int
}

func NewRepository(dbPath string, historyCap int) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	repo := &Repository{db: db, cap: historyCap}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initSchema() error {
	createAlarmsTable := `
    CREATE TABLE IF NOT EXISTS alarms (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        userId TEXT NOT NULL,
        alarmId TEXT NOT NULL,
        timestamp INTEGER NOT NULL,
        kinds TEXT NOT NULL,
        hr REAL,
        spo2 REAL,
        systolic REAL,
        diastolic REAL,
        ax REAL,
        ay REAL,
        az REAL,
        createdAt DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_userId ON alarms(userId);
    CREATE INDEX IF NOT EXISTS idx_timestamp ON alarms(timestamp DESC);`
	_, err := r.db.Exec(createAlarmsTable)
	return err
}

// SaveAlarm appends one event. Appending the same timestamp as the user's
// most recent entry is a no-op, which guards against double submission
// from overlapping delivery paths.
func (r *Repository) SaveAlarm(ctx context.Context, userID string, ev models.AlarmEvent) error {
	var lastTs sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT timestamp FROM alarms WHERE userId = ? ORDER BY timestamp DESC LIMIT 1`,
		userID,
	).Scan(&lastTs)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if lastTs.Valid && lastTs.Int64 == ev.Timestamp {
		return nil
	}

	kindsJSON, err := json.Marshal(ev.Kinds)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO alarms (userId, alarmId, timestamp, kinds, hr, spo2, systolic, diastolic, ax, ay, az)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, ev.ID, ev.Timestamp, string(kindsJSON),
		ev.HR, ev.SpO2, ev.Systolic, ev.Diastolic, ev.AX, ev.AY, ev.AZ,
	)
	return err
}

// HistoryByUser returns the user's alarms newest first, capped.
func (r *Repository) HistoryByUser(ctx context.Context, userID string) ([]models.AlarmEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT alarmId, timestamp, kinds, hr, spo2, systolic, diastolic, ax, ay, az
         FROM alarms WHERE userId = ? ORDER BY timestamp DESC LIMIT ?`,
		userID, r.cap,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlarmEvent
	for rows.Next() {
		var ev models.AlarmEvent
		var kindsJSON string
		if err := rows.Scan(
			&ev.ID,
			&ev.Timestamp,
			&kindsJSON,
			&ev.HR,
			&ev.SpO2,
			&ev.Systolic,
			&ev.Diastolic,
			&ev.AX,
			&ev.AY,
			&ev.AZ,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(kindsJSON), &ev.Kinds); err != nil {
			log.Printf("Warning: could not parse kinds %q from DB: %v", kindsJSON, err)
			continue
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *Repository) Close() {
	r.db.Close()
}
