package inmate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detention/internal/inmate"
)

func TestReductionForPoints_TierTable(t *testing.T) {
	cases := []struct {
		points int
		want   int
	}{
		{-50, 0},
		{0, 0},
		{99, 0},
		{100, 3},
		{150, 3},
		{200, 7},
		{250, 7},
		{300, 14},
		{399, 14},
		{400, 21},
		{500, 30},
		{501, 30},
		{10000, 30},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, inmate.ReductionForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestReductionForPoints_Monotonic(t *testing.T) {
	// More points never earn a smaller reduction.
	prev := 0
	for p := -10; p <= 600; p++ {
		r := inmate.ReductionForPoints(p)
		assert.GreaterOrEqual(t, r, prev, "reduction dropped at points=%d", p)
		prev = r
	}
}

func TestCurrentTier(t *testing.T) {
	assert.Equal(t, inmate.NoTier, inmate.CurrentTier(0))
	assert.Equal(t, "None", inmate.CurrentTier(99).Label)
	assert.Equal(t, "Basic", inmate.CurrentTier(100).Label)
	assert.Equal(t, "Fair", inmate.CurrentTier(299).Label)
	assert.Equal(t, "Good", inmate.CurrentTier(300).Label)
	assert.Equal(t, "Excellent", inmate.CurrentTier(499).Label)
	assert.Equal(t, "Maximum", inmate.CurrentTier(500).Label)
	assert.Equal(t, "Maximum", inmate.CurrentTier(9999).Label)
}

func TestCurrentTier_Pure(t *testing.T) {
	first := inmate.CurrentTier(250)
	second := inmate.CurrentTier(250)
	assert.Equal(t, first, second)
}

func TestNextTier(t *testing.T) {
	next, needed, ok := inmate.NextTier(0)
	require.True(t, ok)
	assert.Equal(t, 100, next.Threshold)
	assert.Equal(t, 100, needed)

	next, needed, ok = inmate.NextTier(450)
	require.True(t, ok)
	assert.Equal(t, 500, next.Threshold)
	assert.Equal(t, 50, needed)

	_, _, ok = inmate.NextTier(500)
	assert.False(t, ok, "no next tier at the ceiling")

	_, _, ok = inmate.NextTier(700)
	assert.False(t, ok)
}

func TestClampPoints(t *testing.T) {
	assert.Equal(t, 0, inmate.ClampPoints(-20))
	assert.Equal(t, 0, inmate.ClampPoints(0))
	assert.Equal(t, 123, inmate.ClampPoints(123))
	assert.Equal(t, 500, inmate.ClampPoints(500))
	assert.Equal(t, 500, inmate.ClampPoints(730))
}

func TestRecalculate_ReleaseDate(t *testing.T) {
	// GIVEN: admitted 2024-01-01 for 365 days with 300 points
	// THEN: 14 days earned, release on 2024-12-17
	admission := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sentence := 365

	reduced, release := inmate.Recalculate(&admission, &sentence, 300)

	assert.Equal(t, 14, reduced)
	require.NotNil(t, release)
	assert.Equal(t, time.Date(2024, time.December, 17, 0, 0, 0, 0, time.UTC), *release)
}

func TestRecalculate_ReductionExceedsSentence(t *testing.T) {
	// A 10-day sentence with a 30-day reduction releases on admission
	// day, never before it.
	admission := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	sentence := 10

	reduced, release := inmate.Recalculate(&admission, &sentence, 500)

	assert.Equal(t, 30, reduced)
	require.NotNil(t, release)
	assert.Equal(t, admission, *release)
}

func TestRecalculate_MissingInputs(t *testing.T) {
	admission := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sentence := 365

	reduced, release := inmate.Recalculate(nil, &sentence, 300)
	assert.Equal(t, 14, reduced)
	assert.Nil(t, release, "no admission date means no release date")

	reduced, release = inmate.Recalculate(&admission, nil, 300)
	assert.Equal(t, 14, reduced)
	assert.Nil(t, release, "no sentence length means no release date")

	reduced, release = inmate.Recalculate(nil, nil, 0)
	assert.Equal(t, 0, reduced)
	assert.Nil(t, release)
}
