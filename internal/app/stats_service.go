// internal/app/stats_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"export_stats_bot/internal/domain/export"
)

// Window is a most-recent-N-records slice. Size 0 covers all records.
type Window struct {
	Name string
	Size int
}

// WindowStats are the counts over one window.
type WindowStats struct {
	Total                   int `json:"total"`
	SuccessCount            int `json:"successCount"`
	CurrentYearTotal        int `json:"currentYearTotal"`
	CurrentYearSuccessCount int `json:"currentYearSuccessCount"`
}

// HeatmapCell is one day of the heatmap.
type HeatmapCell struct {
	Date   time.Time `json:"date"`
	Marker int       `json:"marker"`
}

// StatsService derives read-only summaries from the export history.
type StatsService struct {
	store export.Store
}

func NewStatsService(store export.Store) *StatsService {
	return &StatsService{store: store}
}

// ComputeStats counts records in each window. Current-year counts compare the
// stored Year field with asOfYear.
func (s *StatsService) ComputeStats(ctx context.Context, windows []Window, asOfYear int) (map[string]WindowStats, error) {
	// Every window is a prefix of the largest one, so load that once.
	limit := 0
	for _, w := range windows {
		if w.Size == 0 {
			limit = 0
			break
		}
		if w.Size > limit {
			limit = w.Size
		}
	}

	latest, err := s.store.FindLatest(ctx, export.Filter{}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest exports: %w", err)
	}

	stats := make(map[string]WindowStats, len(windows))
	for _, w := range windows {
		slice := latest
		if w.Size > 0 && w.Size < len(slice) {
			slice = slice[:w.Size]
		}
		stats[w.Name] = summarize(slice, asOfYear)
	}
	return stats, nil
}

func summarize(records []*export.Record, asOfYear int) WindowStats {
	var ws WindowStats
	for _, rec := range records {
		ws.Total++
		if rec.Successful {
			ws.SuccessCount++
		}
		if rec.Year == asOfYear {
			ws.CurrentYearTotal++
			if rec.Successful {
				ws.CurrentYearSuccessCount++
			}
		}
	}
	return ws
}

// BuildHeatmap groups the whole history by stored year, ascending by date within a year.
func (s *StatsService) BuildHeatmap(ctx context.Context) (map[int][]HeatmapCell, error) {
	records, err := s.store.FindInRange(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load export history: %w", err)
	}

	heatmap := make(map[int][]HeatmapCell)
	for _, rec := range records {
		heatmap[rec.Year] = append(heatmap[rec.Year], HeatmapCell{Date: rec.Date, Marker: rec.Marker()})
	}
	return heatmap, nil
}

// CurrentStreak counts successful records dated at or after the most recent failure.
// With no failure on record every success counts.
func (s *StatsService) CurrentStreak(ctx context.Context) (int, error) {
	failures, err := s.store.FindLatest(ctx, export.Filter{Successful: export.OnlySuccessful(false)}, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to find latest failed export: %w", err)
	}

	filter := export.Filter{Successful: export.OnlySuccessful(true)}
	if len(failures) > 0 {
		filter.From = failures[0].Date
	}

	streak, err := s.store.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count successful exports: %w", err)
	}
	return streak, nil
}
