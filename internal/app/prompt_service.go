package app

import (
	"context"
	"fmt"
	"time"

	"export_stats_bot/internal/domain/chat"

	"github.com/sirupsen/logrus"
)

// PromptService posts the daily question whose buttons feed InteractionService.
type PromptService struct {
	responder  chat.Responder
	webhookURL string
	now        func() time.Time
	logger     *logrus.Entry
}

func NewPromptService(responder chat.Responder, webhookURL string, now func() time.Time, logger *logrus.Entry) *PromptService {
	if now == nil {
		now = time.Now
	}
	return &PromptService{
		responder:  responder,
		webhookURL: webhookURL,
		now:        now,
		logger:     logger,
	}
}

// SendDailyPrompt asks about the previous business day.
func (s *PromptService) SendDailyPrompt(ctx context.Context) error {
	day := PreviousBusinessDay(s.now())
	msg := BuildPrompt(day)
	if err := s.responder.Post(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post daily prompt: %w", err)
	}
	s.logger.WithField("date", day.Format("2006-01-02")).Info("Daily export prompt posted")
	return nil
}

// PreviousBusinessDay returns the UTC day before now, skipping back over weekends to Friday.
func PreviousBusinessDay(now time.Time) time.Time {
	utc := now.UTC()
	day := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// BuildPrompt builds the interactive message with ok/fail buttons for day.
func BuildPrompt(day time.Time) chat.Message {
	return chat.Message{
		Text:         fmt.Sprintf("Did %s's export (%s) run successfully?", DayLabel(day), day.Format("Mon 2 Jan")),
		ResponseType: chat.ResponseInChannel,
		Attachments: []chat.Attachment{{
			Fallback:   "Please record the export outcome.",
			CallbackID: "export_outcome",
			Actions: []chat.Button{
				{Name: "outcome", Text: "Yes :+1:", Type: "button", Value: ActionValue(day, true), Style: "primary"},
				{Name: "outcome", Text: "No :-1:", Type: "button", Value: ActionValue(day, false), Style: "danger"},
			},
		}},
	}
}
