// internal/app/interaction_service.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"export_stats_bot/internal/domain/chat"
	"export_stats_bot/internal/domain/export"

	"github.com/sirupsen/logrus"
)

const (
	actionDateLayout       = "20060102"
	defaultAnnounceTimeout = 10 * time.Second
)

// Outcome suffixes of an action value such as "20240105-ok".
const (
	outcomeOK   = "ok"
	outcomeFail = "fail"
)

// InteractionPayload is the JSON carried in the "payload" form field of an interactive callback.
type InteractionPayload struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Actions []struct {
		Value string `json:"value"`
	} `json:"actions"`
	ResponseURL string `json:"response_url"`
}

// InteractionService turns button clicks into export records and answers them.
type InteractionService struct {
	recorder  *Recorder
	responder chat.Responder
	announcer chat.Announcer // Optional
	reportURL string
	logger    *logrus.Entry

	announceTimeout time.Duration
}

func NewInteractionService(recorder *Recorder, responder chat.Responder, announcer chat.Announcer, reportURL string, logger *logrus.Entry) *InteractionService {
	return &InteractionService{
		recorder:  recorder,
		responder: responder,
		announcer: announcer,
		reportURL: reportURL,
		logger:    logger,

		announceTimeout: defaultAnnounceTimeout,
	}
}

// HandleCallback processes a form-encoded callback body. It is meant to run after
// the callback has been acknowledged; every outcome is reported through response_url
// before any announcement goes out.
func (s *InteractionService) HandleCallback(ctx context.Context, body []byte) error {
	payload, err := ParseCallbackBody(body)
	if err != nil {
		s.logger.WithError(err).Warn("Dropping malformed interaction")
		return err
	}
	if len(payload.Actions) == 0 {
		err := fmt.Errorf("%w: no actions", export.ErrMalformedPayload)
		s.logger.WithError(err).Warn("Dropping malformed interaction")
		return err
	}
	date, successful, err := ParseActionValue(payload.Actions[0].Value)
	if err != nil {
		s.logger.WithError(err).Warn("Dropping malformed interaction")
		return err
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":    payload.User.ID,
		"date":       date.Format("2006-01-02"),
		"successful": successful,
	})
	log.Info("Processing export interaction")

	params := ReplyParams{
		UserID:     payload.User.ID,
		Date:       date,
		Successful: successful,
		ReportURL:  s.reportURL,
	}

	kind := ReplyRecorded
	result, err := s.recorder.RecordOutcome(ctx, date, successful)
	switch {
	case err != nil:
		kind = ReplyStoreFailed
		params.Err = err
	case result.AlreadyExisted:
		kind = ReplyDuplicateIgnored
	}

	var postErr error
	if payload.ResponseURL == "" {
		log.Warn("Interaction has no response_url, skipping follow-up message")
	} else if err := s.responder.Post(ctx, payload.ResponseURL, FormatReply(kind, params)); err != nil {
		log.WithError(err).Error("Failed to send follow-up message")
		postErr = fmt.Errorf("failed to send follow-up message: %w", err)
	} else {
		log.WithField("reply", string(kind)).Info("Follow-up message sent")
	}

	if kind == ReplyRecorded && s.announcer != nil {
		s.announce(ctx, date, successful, payload.User.ID, log)
	}
	return postErr
}

// announce runs after the reply under its own deadline.
func (s *InteractionService) announce(ctx context.Context, date time.Time, successful bool, userID string, log *logrus.Entry) {
	announceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.announceTimeout)
	defer cancel()
	text := fmt.Sprintf("Export for %s recorded as %s by %s.", date.Format("Mon 2006-01-02"), outcomeWord(successful), userID)
	if err := s.announcer.Announce(announceCtx, text); err != nil {
		log.WithError(err).Warn("Failed to announce recorded export")
	}
}

// ParseCallbackBody decodes the form body and its JSON payload field.
func ParseCallbackBody(body []byte) (*InteractionPayload, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: body is not form-encoded: %w", export.ErrMalformedPayload, err)
	}
	raw := form.Get("payload")
	if raw == "" {
		return nil, fmt.Errorf("%w: missing payload field", export.ErrMalformedPayload)
	}
	payload := &InteractionPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON: %w", export.ErrMalformedPayload, err)
	}
	return payload, nil
}

// ParseActionValue splits "YYYYMMDD-ok" or "YYYYMMDD-fail" into a UTC date and outcome.
func ParseActionValue(value string) (time.Time, bool, error) {
	dateStr, outcome, ok := strings.Cut(value, "-")
	if !ok {
		return time.Time{}, false, fmt.Errorf("%w: action value %q has no outcome", export.ErrMalformedPayload, value)
	}
	date, err := time.ParseInLocation(actionDateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: invalid action date %q: %w", export.ErrMalformedPayload, dateStr, err)
	}
	switch outcome {
	case outcomeOK:
		return date, true, nil
	case outcomeFail:
		return date, false, nil
	default:
		return time.Time{}, false, fmt.Errorf("%w: unknown outcome %q", export.ErrMalformedPayload, outcome)
	}
}

// ActionValue is the inverse of ParseActionValue.
func ActionValue(date time.Time, successful bool) string {
	outcome := outcomeFail
	if successful {
		outcome = outcomeOK
	}
	return date.UTC().Format(actionDateLayout) + "-" + outcome
}

func outcomeWord(successful bool) string {
	if successful {
		return "successful"
	}
	return "failed"
}
