package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PromptSender posts the daily export question.
type PromptSender interface {
	SendDailyPrompt(ctx context.Context) error
}

type PromptScheduler struct {
	cronEngine *cron.Cron
	prompts    PromptSender
	logger     *logrus.Entry
	cronSpec   string // e.g., "0 9 * * 1-5" (9 AM on weekdays)
	jobTimeout time.Duration
}

func NewPromptScheduler(prompts PromptSender, logger *logrus.Entry, cronSpec string) *PromptScheduler {
	return &PromptScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		prompts:    prompts,
		logger:     logger,
		cronSpec:   cronSpec,
		jobTimeout: 1 * time.Minute,
	}
}

func (s *PromptScheduler) Start() error {
	s.logger.Info("Starting prompt scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.runPrompt); err != nil {
		return fmt.Errorf("could not add daily prompt cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Prompt scheduler started.")
	return nil
}

func (s *PromptScheduler) runPrompt() {
	s.logger.Info("Cron job triggered for daily export prompt.")
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()
	if err := s.prompts.SendDailyPrompt(ctx); err != nil {
		s.logger.WithError(err).Error("Error during daily prompt")
	}
}

func (s *PromptScheduler) Stop() {
	s.logger.Info("Stopping prompt scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Prompt scheduler gracefully stopped.")
}
