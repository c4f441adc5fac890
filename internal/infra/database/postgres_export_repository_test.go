package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"export_stats_bot/internal/app"
	"export_stats_bot/internal/domain/export"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereClause(t *testing.T) {
	assert.Equal(t, "", whereClause(nil))
	assert.Equal(t, " WHERE a = $1 AND b = $2", whereClause([]string{"a = $1", "b = $2"}))
}

func TestFilterConditions(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	conds, args := filterConditions(export.Filter{Successful: export.OnlySuccessful(true), From: from})

	assert.Equal(t, []string{"successful = $1", "export_date >= $2"}, conds)
	assert.Equal(t, []interface{}{true, from}, args)

	conds, args = filterConditions(export.Filter{})
	assert.Empty(t, conds)
	assert.Empty(t, args)
}

func TestBoundsStayWithinStoredPrecision(t *testing.T) {
	nextDay := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	end := upperBound(nextDay.Add(-time.Nanosecond))
	assert.Equal(t, time.Date(2024, 1, 5, 23, 59, 59, 999999000, time.UTC), end)
	assert.True(t, end.Before(nextDay))

	start := lowerBound(time.Date(2024, 1, 5, 23, 59, 59, 999999001, time.UTC))
	assert.Equal(t, nextDay, start)

	exact := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, exact, lowerBound(exact))
	assert.Equal(t, exact, upperBound(exact))
}

func TestFindInRangeArgsExcludeNextDay(t *testing.T) {
	start, end := export.DayBounds(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-05 23:59:59.999999Z", string(pq.FormatTimestamp(upperBound(end))))
	assert.Equal(t, "2024-01-05 00:00:00Z", string(pq.FormatTimestamp(lowerBound(start))))
}

func TestNewPostgresExportRepositoryQuotesTable(t *testing.T) {
	repo := NewPostgresExportRepository(nil, `exp"orts`)
	assert.Equal(t, `"exp""orts"`, repo.table)
	assert.Equal(t, `"exp""orts_day_unique"`, repo.index)
}

// Integration tests run only when EXPORT_STATS_TEST_DATABASE_URL points at a disposable database.
func integrationRepository(t *testing.T) *PostgresExportRepository {
	t.Helper()
	dsn := os.Getenv("EXPORT_STATS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EXPORT_STATS_TEST_DATABASE_URL not set")
	}

	db, err := NewPostgresConnection(context.Background(), dsn, PoolOptions{MaxConns: 2})
	require.NoError(t, err)

	table := fmt.Sprintf("exports_it_%d", time.Now().UnixNano())
	repo := NewPostgresExportRepository(db, table)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	t.Cleanup(func() {
		_, _ = db.Exec(`DROP TABLE IF EXISTS ` + pq.QuoteIdentifier(table))
		db.Close()
	})
	return repo
}

func TestPostgresIntegrationInsertAndQuery(t *testing.T) {
	repo := integrationRepository(t)
	ctx := context.Background()

	days := []struct {
		date time.Time
		ok   bool
	}{
		{time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), true},
	}
	for _, d := range days {
		rec := export.NewRecord(d.date, d.ok)
		require.NoError(t, repo.Insert(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	all, err := repo.FindInRange(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.Before(all[1].Date))
	assert.Equal(t, 2023, all[0].Year)

	latestFailure, err := repo.FindLatest(ctx, export.Filter{Successful: export.OnlySuccessful(false)}, 1)
	require.NoError(t, err)
	require.Len(t, latestFailure, 1)
	assert.Equal(t, days[1].date, latestFailure[0].Date)

	count, err := repo.Count(ctx, export.Filter{Successful: export.OnlySuccessful(true), From: days[1].date})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	start, end := export.DayBounds(days[2].date)
	sameDay, err := repo.FindInRange(ctx, start, end)
	require.NoError(t, err)
	assert.Len(t, sameDay, 1)
}

func TestPostgresIntegrationRejectsSecondRecordForDay(t *testing.T) {
	repo := integrationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, export.NewRecord(time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), true)))
	err := repo.Insert(ctx, export.NewRecord(time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC), false))
	assert.ErrorIs(t, err, export.ErrDuplicateRecord)
}

func TestPostgresIntegrationBackfillBeforeLaterDay(t *testing.T) {
	repo := integrationRepository(t)
	ctx := context.Background()
	recorder := app.NewRecorder(repo, nil, logrus.NewEntry(logrus.New()))

	_, err := recorder.RecordOutcome(ctx, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)

	result, err := recorder.RecordOutcome(ctx, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.False(t, result.AlreadyExisted)

	start, end := export.DayBounds(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	sameDay, err := repo.FindInRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, sameDay, 1)
	assert.False(t, sameDay[0].Successful)
}
