package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
)

// Notifier delivers scheduler output to whatever surface the job came from.
type Notifier interface {
	Send(chatID string, text string) error
}

// Scheduler polls the job table and pushes due jobs through the agent as if
// the user had typed them.
type Scheduler struct {
	Agent    *Agent
	Journal  *store.Journal
	Notify   Notifier
	Interval time.Duration
}

func NewScheduler(agent *Agent, journal *store.Journal, notify Notifier) *Scheduler {
	return &Scheduler{
		Agent:    agent,
		Journal:  journal,
		Notify:   notify,
		Interval: 30 * time.Second,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Println("Job scheduler started...")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollAndRun(ctx)
		}
	}
}

func (s *Scheduler) pollAndRun(ctx context.Context) {
	jobs, err := s.Journal.DueJobs()
	if err != nil {
		log.Printf("Error polling jobs: %v", err)
		return
	}

	for _, job := range jobs {
		log.Printf("Running scheduled job %d for chat %s: %s", job.ID, job.ChatID, job.Description)

		request := fmt.Sprintf(
			"Scheduled task is due now: %q. Carry it out and report the outcome. Do not schedule it again.",
			job.Description)
		reply, err := s.Agent.Submit(ctx, job.ChatID, request)
		if err != nil {
			log.Printf("Error running scheduled job %d: %v", job.ID, err)
			continue
		}

		if err := s.Journal.MarkJobRun(job.ID); err != nil {
			log.Printf("Error updating last run for job %d: %v", job.ID, err)
		}
		// Interval 0 means run once.
		if job.IntervalSeconds == 0 {
			if err := s.Journal.DeleteJob(job.ID); err != nil {
				log.Printf("Error deleting one-time job %d: %v", job.ID, err)
			}
		}

		if s.Notify != nil {
			text := reply.Text
			if !reply.Conversational() {
				text = Report(reply.Plan)
			}
			if err := s.Notify.Send(job.ChatID, "⏰ Scheduled task finished\n\n"+text); err != nil {
				log.Printf("Error notifying chat %s: %v", job.ChatID, err)
			}
		}
	}
}
