package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"export_stats_bot/internal/domain/chat"
	"export_stats_bot/internal/domain/export"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// memStore is an in-memory export.Store enforcing one record per UTC day on Insert.
type memStore struct {
	mu      sync.Mutex
	records []*export.Record
	nextID  int64
	err     error // Returned by every call when set
	blind   bool  // FindInRange sees nothing, simulating a concurrent writer
}

func (m *memStore) seed(date time.Time, ok bool) {
	rec := export.NewRecord(date, ok)
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, rec)
}

func (m *memStore) FindInRange(_ context.Context, start, end time.Time) ([]*export.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.blind {
		return nil, nil
	}
	var out []*export.Record
	for _, r := range m.records {
		if (!start.IsZero() && r.Date.Before(start)) || (!end.IsZero() && r.Date.After(end)) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) matching(filter export.Filter) []*export.Record {
	var out []*export.Record
	for _, r := range m.records {
		if filter.Successful != nil && r.Successful != *filter.Successful {
			continue
		}
		if !filter.From.IsZero() && r.Date.Before(filter.From) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *memStore) FindLatest(_ context.Context, filter export.Filter, limit int) ([]*export.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := m.matching(filter)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Count(_ context.Context, filter export.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.matching(filter)), nil
}

func (m *memStore) Insert(_ context.Context, rec *export.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	start, end := export.DayBounds(rec.Date)
	for _, r := range m.records {
		if !r.Date.Before(start) && !r.Date.After(end) {
			return export.ErrDuplicateRecord
		}
	}
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now()
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type postedMessage struct {
	URL string
	Msg chat.Message
}

type fakeResponder struct {
	mu    sync.Mutex
	posts []postedMessage
	err   error
}

func (f *fakeResponder) Post(_ context.Context, url string, msg chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postedMessage{URL: url, Msg: msg})
	return f.err
}

type fakeAnnouncer struct {
	texts []string
}

func (f *fakeAnnouncer) Announce(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, rec *export.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("%s:%s", eventType, rec.Date.Format("20060102")))
	return f.err
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// stalledPublisher never reaches its broker and gives up only when ctx ends.
type stalledPublisher struct {
	mu     sync.Mutex
	gaveUp []error
}

func (p *stalledPublisher) Publish(ctx context.Context, _ string, _ *export.Record) error {
	<-ctx.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gaveUp = append(p.gaveUp, ctx.Err())
	return ctx.Err()
}

func (p *stalledPublisher) attempts() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.gaveUp...)
}

// stalledAnnouncer blocks like stalledPublisher.
type stalledAnnouncer struct {
	calls int
}

func (a *stalledAnnouncer) Announce(ctx context.Context, _ string) error {
	a.calls++
	<-ctx.Done()
	return ctx.Err()
}

type fakeCaptioner struct {
	calls []string
	url   string
	err   error
}

func (f *fakeCaptioner) Caption(_ context.Context, templateID int, top, bottom string) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%d|%s|%s", templateID, top, bottom))
	return f.url, f.err
}

type mapCache struct {
	urls map[int]string
}

func (c *mapCache) GetCaption(_ context.Context, streak int) (string, bool, error) {
	url, ok := c.urls[streak]
	return url, ok, nil
}

func (c *mapCache) SetCaption(_ context.Context, streak int, url string) error {
	if c.urls == nil {
		c.urls = map[int]string{}
	}
	c.urls[streak] = url
	return nil
}

type fixedStreak int

func (f fixedStreak) CurrentStreak(context.Context) (int, error) { return int(f), nil }
