package business

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
)

func TestStatsEmpty(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "nobody")

	total, err := b.GetTotalSubmissions(user.ID)
	require.NoError(t, err)
	assert.Zero(t, total.TotalSubmissions)

	avg, err := b.GetAverageCompletionTime(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00 seconds", avg.AverageTime)
}

func TestStats(t *testing.T) {
	b := newTestBusiness(t)
	user := createTestUser(t, b, "filler")
	other := createTestUser(t, b, "neighbor")

	base := time.Now().Add(-time.Hour)
	durations := []time.Duration{10 * time.Second, 20 * time.Second}
	for _, d := range durations {
		started := base
		completed := base.Add(d)
		form := dao.Form{
			Name:        "Форма",
			OwnerID:     user.ID,
			StartedAt:   &started,
			CompletedAt: &completed,
		}
		require.NoError(t, b.db.Create(&form).Error)
	}

	// Incomplete forms count towards totals but not towards the average
	require.NoError(t, b.db.Create(&dao.Form{Name: "Черновик", OwnerID: user.ID}).Error)
	require.NoError(t, b.db.Create(&dao.Form{Name: "Чужая", OwnerID: other.ID}).Error)

	total, err := b.GetTotalSubmissions(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total.TotalSubmissions)

	avg, err := b.GetAverageCompletionTime(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.00 seconds", avg.AverageTime)
}
