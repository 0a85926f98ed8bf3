package store

import (
	"database/sql"
	"encoding/json"

	_ "github.com/glebarez/go-sqlite"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
)

// Journal is the agent's sqlite memory: the conversation transcript, an
// audit record of every executed plan, and the scheduled job queue. Plans
// are recorded for history, never resumed.
type Journal struct {
	DB *sql.DB
}

func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			chat_id TEXT,
			request TEXT,
			title TEXT,
			status TEXT,
			note TEXT,
			steps_total INTEGER,
			steps_completed INTEGER,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id TEXT,
			description TEXT,
			interval_seconds INTEGER,
			last_run DATETIME,
			status TEXT DEFAULT 'active'
		);`,
	}
	for _, q := range queries {
		if _, err = db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &Journal{DB: db}, nil
}

func (j *Journal) Close() error {
	return j.DB.Close()
}

// ------------------------------------------------------------
// Transcript
// ------------------------------------------------------------

func (j *Journal) AddMessage(chatID string, role string, content string) error {
	query := `INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`
	_, err := j.DB.Exec(query, chatID, role, content)
	return err
}

// RecentMessages returns up to limit messages for a chat in chronological
// order.
func (j *Journal) RecentMessages(chatID string, limit int) ([]Message, error) {
	query := `SELECT role, content, timestamp FROM messages WHERE chat_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := j.DB.Query(query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, k := 0, len(messages)-1; i < k; i, k = i+1, k-1 {
		messages[i], messages[k] = messages[k], messages[i]
	}
	return messages, nil
}

func (j *Journal) ClearMessages(chatID string) error {
	_, err := j.DB.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID)
	return err
}

// ------------------------------------------------------------
// Plan audit trail
// ------------------------------------------------------------

// RecordPlan stores the outcome of an executed plan. The full plan is kept
// as JSON in the detail column for debugging.
func (j *Journal) RecordPlan(chatID string, p *task.Plan) error {
	detail, err := json.Marshal(p)
	if err != nil {
		detail = []byte("{}")
	}

	done := 0
	for _, s := range p.Steps {
		if s.Status == task.StatusCompleted {
			done++
		}
	}

	query := `INSERT OR REPLACE INTO plans
		(id, chat_id, request, title, status, note, steps_total, steps_completed, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = j.DB.Exec(query, p.ID, chatID, p.Request, p.Title, string(p.Status), p.Note,
		len(p.Steps), done, string(detail), p.CreatedAt)
	return err
}

// RecentPlans returns up to limit plan records for a chat, newest first.
func (j *Journal) RecentPlans(chatID string, limit int) ([]PlanRecord, error) {
	query := `SELECT id, chat_id, request, title, status, note, steps_total, steps_completed, created_at
		FROM plans WHERE chat_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := j.DB.Query(query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		var r PlanRecord
		if err := rows.Scan(&r.ID, &r.ChatID, &r.Request, &r.Title, &r.Status, &r.Note,
			&r.StepsTotal, &r.StepsCompleted, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ------------------------------------------------------------
// Scheduled jobs
// ------------------------------------------------------------

func (j *Journal) AddJob(chatID string, description string, intervalSeconds int) error {
	query := `INSERT INTO jobs (chat_id, description, interval_seconds, last_run) VALUES (?, ?, ?, datetime('now', '-365 days'))`
	_, err := j.DB.Exec(query, chatID, description, intervalSeconds)
	return err
}

// DueJobs returns active jobs whose interval has elapsed since their last
// run.
func (j *Journal) DueJobs() ([]Job, error) {
	query := `
		SELECT id, chat_id, description, interval_seconds
		FROM jobs
		WHERE status = 'active'
		AND (last_run IS NULL OR (julianday('now') - julianday(last_run)) * 86400 >= interval_seconds)`
	rows, err := j.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.ChatID, &job.Description, &job.IntervalSeconds); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (j *Journal) MarkJobRun(id int) error {
	_, err := j.DB.Exec(`UPDATE jobs SET last_run = datetime('now') WHERE id = ?`, id)
	return err
}

func (j *Journal) DeleteJob(id int) error {
	_, err := j.DB.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	return err
}

func (j *Journal) ClearJobs(chatID string) error {
	_, err := j.DB.Exec(`DELETE FROM jobs WHERE chat_id = ?`, chatID)
	return err
}
