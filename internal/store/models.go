package store

import "time"

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PlanRecord is the audit summary of one executed plan.
type PlanRecord struct {
	ID             string    `json:"id"`
	ChatID         string    `json:"chat_id"`
	Request        string    `json:"request"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	Note           string    `json:"note"`
	StepsTotal     int       `json:"steps_total"`
	StepsCompleted int       `json:"steps_completed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Job is a scheduled request waiting for its next run.
type Job struct {
	ID              int    `json:"id"`
	ChatID          string `json:"chat_id"`
	Description     string `json:"description"`
	IntervalSeconds int    `json:"interval_seconds"`
}
