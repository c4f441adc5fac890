// internal/app/recorder.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"export_stats_bot/internal/domain/export"

	"github.com/sirupsen/logrus"
)

// RecordResult reports what RecordOutcome did.
type RecordResult struct {
	Created        bool
	AlreadyExisted bool
	Record         *export.Record // Set when Created
}

const defaultPublishTimeout = 10 * time.Second

// Recorder is the only writer of export records. It keeps at most one record per UTC day.
type Recorder struct {
	store          export.Store
	publisher      export.Publisher // Optional
	logger         *logrus.Entry
	publishTimeout time.Duration
	publishing     sync.WaitGroup
}

func NewRecorder(store export.Store, publisher export.Publisher, logger *logrus.Entry) *Recorder {
	return &Recorder{
		store:          store,
		publisher:      publisher,
		logger:         logger,
		publishTimeout: defaultPublishTimeout,
	}
}

// Wait blocks until every event publish started by RecordOutcome has finished.
func (r *Recorder) Wait() {
	r.publishing.Wait()
}

// RecordOutcome stores the outcome for date's day unless that day is already recorded.
// The first write wins; later submissions for the same day are ignored, not merged.
func (r *Recorder) RecordOutcome(ctx context.Context, date time.Time, successful bool) (RecordResult, error) {
	log := r.logger.WithFields(logrus.Fields{
		"date":       date.UTC().Format("2006-01-02"),
		"successful": successful,
	})

	start, end := export.DayBounds(date)
	existing, err := r.store.FindInRange(ctx, start, end)
	if err != nil {
		log.WithError(err).Error("Failed to check for an existing export record")
		return RecordResult{}, fmt.Errorf("failed to check existing record: %w", err)
	}
	if len(existing) > 0 {
		log.WithField("existing", len(existing)).Info("Export already recorded for this day, not adding another")
		return RecordResult{AlreadyExisted: true}, nil
	}

	rec := export.NewRecord(date, successful)
	if err := r.store.Insert(ctx, rec); err != nil {
		// Lost the race against a concurrent submission for the same day.
		if errors.Is(err, export.ErrDuplicateRecord) {
			log.Info("Export recorded concurrently for this day, treating as already existing")
			return RecordResult{AlreadyExisted: true}, nil
		}
		log.WithError(err).Error("Failed to save export record")
		return RecordResult{}, fmt.Errorf("failed to save export record: %w", err)
	}
	log.WithField("record_id", rec.ID).Info("Export record saved")

	if r.publisher != nil {
		r.publish(ctx, rec, log)
	}

	return RecordResult{Created: true, Record: rec}, nil
}

// publish sends the recorded event in the background under its own deadline.
func (r *Recorder) publish(ctx context.Context, rec *export.Record, log *logrus.Entry) {
	r.publishing.Add(1)
	go func() {
		defer r.publishing.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.publishTimeout)
		defer cancel()
		if err := r.publisher.Publish(pubCtx, export.EventRecorded, rec); err != nil {
			log.WithError(err).Warn("Failed to publish export recorded event")
		}
	}()
}
