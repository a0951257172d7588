package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/streakwatch/internal/storage"
)

func TestRecordDetection_IdempotentPerDay(t *testing.T) {
	st := storage.PersistedState{}

	RecordDetection(&st, "2024-01-10")
	RecordDetection(&st, "2024-01-10")

	assert.Equal(t, "2024-01-10", st.LastVisitDate)
	assert.Equal(t, []string{"2024-01-10"}, st.VisitHistory)
}

func TestRecordDetection_AppendsNewDays(t *testing.T) {
	st := storage.PersistedState{
		LastVisitDate: "2024-01-01",
		VisitHistory:  []string{"2024-01-01"},
	}

	RecordDetection(&st, "2024-01-05")

	assert.Equal(t, "2024-01-05", st.LastVisitDate)
	assert.Equal(t, []string{"2024-01-01", "2024-01-05"}, st.VisitHistory)
}

func TestComputeStreak(t *testing.T) {
	today := "2024-01-10"

	t.Run("never detected is undefined", func(t *testing.T) {
		sum := ComputeStreak(storage.PersistedState{}, today)
		assert.Nil(t, sum.StreakDays)
		assert.Empty(t, sum.LastVisitDate)
	})

	t.Run("detection today is zero", func(t *testing.T) {
		sum := ComputeStreak(storage.PersistedState{LastVisitDate: today}, today)
		require.NotNil(t, sum.StreakDays)
		assert.Equal(t, 0, *sum.StreakDays)
	})

	t.Run("five clean days", func(t *testing.T) {
		sum := ComputeStreak(storage.PersistedState{LastVisitDate: "2024-01-05"}, today)
		require.NotNil(t, sum.StreakDays)
		assert.Equal(t, 5, *sum.StreakDays)
	})

	t.Run("nine clean days across the scenario dates", func(t *testing.T) {
		sum := ComputeStreak(storage.PersistedState{LastVisitDate: "2024-01-01"}, "2024-01-10")
		require.NotNil(t, sum.StreakDays)
		assert.Equal(t, 9, *sum.StreakDays)
	})

	t.Run("clock skew clamps to zero", func(t *testing.T) {
		sum := ComputeStreak(storage.PersistedState{LastVisitDate: "2024-03-01"}, "2024-02-20")
		require.NotNil(t, sum.StreakDays)
		assert.Equal(t, 0, *sum.StreakDays)
	})
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween("2024-01-10", "2024-01-10"))
	assert.Equal(t, 31, DaysBetween("2024-01-01", "2024-02-01"))
	// crosses a DST change in most local zones; UTC arithmetic must not care
	assert.Equal(t, 1, DaysBetween("2024-03-30", "2024-03-31"))
	assert.Equal(t, 0, DaysBetween("garbage", "2024-01-01"))
}

func TestToday_UsesUTC(t *testing.T) {
	loc := time.FixedZone("West", -10*60*60)
	// 23:30 local on Jan 1 is already Jan 2 in UTC
	now := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-01-02", Today(now))
}
