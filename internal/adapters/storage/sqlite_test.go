package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/ritmaker/internal/adapters/storage"
	"github.com/alejandrodnm/ritmaker/internal/domain"
)

func makeTick(tick int, skip domain.SkipReason) domain.TickReport {
	return domain.TickReport{
		Tick:      tick,
		At:        time.Now().UTC().Truncate(time.Second),
		Ticker:    "ALGO",
		Phase:     domain.PhaseNormal,
		Skip:      skip,
		BestBid:   24.99,
		BestAsk:   25.05,
		Position:  tick * 100,
		AllowBuy:  true,
		AllowSell: true,
	}
}

func TestSQLiteJournal_SummaryAggregatesRun(t *testing.T) {
	j, err := storage.NewSQLiteJournal(":memory:", "liquidity")
	require.NoError(t, err)
	defer j.Close()
	ctx := context.Background()

	quoted := makeTick(10, domain.SkipNone)
	quoted.Placed, quoted.Cancelled, quoted.Filled = 2, 1, true
	require.NoError(t, j.RecordTick(ctx, quoted))

	require.NoError(t, j.RecordTick(ctx, makeTick(11, domain.SkipSpreadTooThin)))
	require.NoError(t, j.RecordTick(ctx, makeTick(12, domain.SkipSpreadTooThin)))

	last := makeTick(13, domain.SkipNone)
	last.Placed = 1
	require.NoError(t, j.RecordTick(ctx, last))

	sum, err := j.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, j.RunID(), sum.RunID)
	assert.Equal(t, "liquidity", sum.Variant)
	assert.Equal(t, 4, sum.Ticks)
	assert.Equal(t, 2, sum.QuotedTicks)
	assert.Equal(t, 2, sum.SkippedTicks)
	assert.Equal(t, 1, sum.FillTicks)
	assert.Equal(t, 3, sum.Placed)
	assert.Equal(t, 1, sum.Cancelled)
	assert.Equal(t, map[domain.SkipReason]int{domain.SkipSpreadTooThin: 2}, sum.SkipsByReason)
	assert.Equal(t, map[string]int{"ALGO": 1300}, sum.FinalPosition)
}

func TestSQLiteJournal_EmptyRun(t *testing.T) {
	j, err := storage.NewSQLiteJournal(":memory:", "basic")
	require.NoError(t, err)
	defer j.Close()

	sum, err := j.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Ticks)
	assert.Empty(t, sum.FinalPosition)
	assert.Empty(t, sum.SkipsByReason)
}

func TestSQLiteJournal_SkippedWithoutTickerHasNoPosition(t *testing.T) {
	j, err := storage.NewSQLiteJournal(":memory:", "liquidity")
	require.NoError(t, err)
	defer j.Close()

	r := domain.TickReport{Tick: 7, Skip: domain.SkipNoTicker}
	require.NoError(t, j.RecordTick(context.Background(), r))

	sum, err := j.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SkippedTicks)
	assert.Empty(t, sum.FinalPosition)
}

func TestSQLiteJournal_RunsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	first, err := storage.NewSQLiteJournal(path, "target")
	require.NoError(t, err)
	require.NoError(t, first.RecordTick(ctx, makeTick(10, domain.SkipNone)))
	require.NoError(t, first.Close())

	second, err := storage.NewSQLiteJournal(path, "target")
	require.NoError(t, err)
	defer second.Close()
	assert.NotEqual(t, first.RunID(), second.RunID())

	sum, err := second.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Ticks, "previous run is not read back")
}
