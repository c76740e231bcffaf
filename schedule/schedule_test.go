package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitSchedule(t *testing.T) {
	cfg := NewConfig(3_600_000)

	sched := cfg.Init(3_600_000)
	require.Equal(t, Schedule{Start: 3_600_000, End: 7_200_000}, sched)

	sched = cfg.Init(0)
	require.Equal(t, Schedule{Start: 0, End: 3_600_000}, sched)

	sched = cfg.Init(3_599_999)
	require.Equal(t, Schedule{Start: 0, End: 3_600_000}, sched)
}

func TestContains(t *testing.T) {
	cfg := NewConfig(3_600_000)
	sched := cfg.Init(0)

	require.True(t, sched.Contains(0))
	require.True(t, sched.Contains(3_599_999))
	require.False(t, sched.Contains(3_600_000))
	require.False(t, sched.Contains(-1))
}

func TestDefaultConfigFallback(t *testing.T) {
	cfg := NewConfig(0)
	require.Equal(t, DefaultChunkSize, cfg.ChunkSize())

	cfg = NewConfig(-5)
	require.Equal(t, DefaultChunkSize, cfg.ChunkSize())
}

func TestSaturatingAddAtMaxInt64(t *testing.T) {
	cfg := NewConfig(100)
	start := (math.MaxInt64 / 100) * 100
	sched := cfg.Init(start)
	require.Equal(t, start, sched.Start)
	require.True(t, sched.End >= start)
}
