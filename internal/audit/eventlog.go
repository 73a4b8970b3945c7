package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Log appends domain events (enrollment transitions, exam submissions) to
// the event_log table. Recording is best-effort; callers decide whether a
// failed append matters.
type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

func (l *Log) Record(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}
