package departures

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 18, 0, 0, 0, sydney)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func ptr(t time.Time) *time.Time { return &t }

func TestRank(t *testing.T) {
	records := []Record{
		{Line: "late", Scheduled: at(90), Seq: 0},
		{Line: "b", Scheduled: at(10), Seq: 1},
		{Line: "cancelled", Scheduled: at(1), Cancelled: true, Seq: 2},
		{Line: "a", Scheduled: at(20), Estimated: ptr(at(5)), RealtimeControlled: true, Seq: 3},
		{Line: "edge", Scheduled: at(60), Seq: 4},
		{Line: "untracked", Scheduled: at(15), Estimated: ptr(at(2)), Seq: 5},
	}

	got := Rank(records, base, time.Hour)

	lines := make([]string, len(got))
	for i, r := range got {
		lines[i] = r.Line
	}
	assert.Equal(t, []string{"a", "b", "untracked", "edge"}, lines)
}

func TestRankKeepsFeedOrderForTies(t *testing.T) {
	records := []Record{
		{Line: "first", Scheduled: at(5), Seq: 0},
		{Line: "second", Scheduled: at(5), Seq: 1},
		{Line: "third", Scheduled: at(5), Seq: 2},
		{Line: "early", Scheduled: at(1), Seq: 3},
	}
	got := Rank(records, base, time.Hour)
	require.Len(t, got, 4)
	assert.Equal(t, "early", got[0].Line)
	assert.Equal(t, "first", got[1].Line)
	assert.Equal(t, "second", got[2].Line)
	assert.Equal(t, "third", got[3].Line)
}

func TestRankImposesNoCountLimit(t *testing.T) {
	records := make([]Record, 250)
	for i := range records {
		records[i] = Record{Line: "x", Scheduled: base.Add(time.Duration(i) * 10 * time.Second), Seq: i}
	}
	assert.Len(t, Rank(records, base, time.Hour), 250)
}

func TestRankKeepsDepartedRecords(t *testing.T) {
	got := Rank([]Record{{Line: "gone", Scheduled: at(-3)}}, base, time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, -3, got[0].MinutesUntil(base))
}

func TestRankProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 100; round++ {
		records := make([]Record, rng.Intn(40))
		for i := range records {
			r := Record{
				Line:               "r",
				Scheduled:          at(rng.Intn(180) - 30),
				RealtimeControlled: rng.Intn(2) == 0,
				Cancelled:          rng.Intn(5) == 0,
				Seq:                i,
			}
			if rng.Intn(2) == 0 {
				r.Estimated = ptr(at(rng.Intn(180) - 30))
			}
			records[i] = r
		}

		got := Rank(records, base, time.Hour)
		for i, r := range got {
			assert.False(t, r.Cancelled)
			assert.False(t, r.Effective().After(base.Add(time.Hour)))
			if i > 0 {
				assert.False(t, r.Effective().Before(got[i-1].Effective()))
			}
		}
	}
}

func TestMinutesUntil(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"exact minutes", 5 * time.Minute, 5},
		{"rounds down", 5*time.Minute + 59*time.Second, 5},
		{"under a minute", 30 * time.Second, 0},
		{"just departed", -30 * time.Second, -1},
		{"stale feed", -10 * time.Minute, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Scheduled: base.Add(tt.offset)}
			assert.Equal(t, tt.want, r.MinutesUntil(base))
		})
	}
}
