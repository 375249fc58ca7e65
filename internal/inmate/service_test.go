package inmate_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detention/internal/domain"
	"detention/internal/inmate"
	"detention/internal/store"
)

// memStore is an in-memory inmate.Store with snapshot-based rollback,
// so transactional behavior can be asserted without Postgres.
type memStore struct {
	inmates    map[string]inmate.Inmate
	entries    []inmate.PointsEntry
	nextID     int
	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{inmates: make(map[string]inmate.Inmate)}
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapInmates := make(map[string]inmate.Inmate, len(m.inmates))
	for k, v := range m.inmates {
		snapInmates[k] = v
	}
	snapEntries := append([]inmate.PointsEntry(nil), m.entries...)

	if err := fn(ctx); err != nil {
		m.inmates = snapInmates
		m.entries = snapEntries
		return err
	}
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*inmate.Inmate, error) {
	inm, ok := m.inmates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &inm, nil
}

func (m *memStore) Create(ctx context.Context, inm *inmate.Inmate) error {
	if inm.ID == "" {
		m.nextID++
		inm.ID = fmt.Sprintf("inm-%d", m.nextID)
	}
	inm.CreatedAt = time.Now()
	inm.UpdatedAt = inm.CreatedAt
	m.inmates[inm.ID] = *inm
	return nil
}

func (m *memStore) Update(ctx context.Context, inm *inmate.Inmate) error {
	if _, ok := m.inmates[inm.ID]; !ok {
		return store.ErrNotFound
	}
	m.inmates[inm.ID] = *inm
	return nil
}

func (m *memStore) Discharge(ctx context.Context, id string, at time.Time) error {
	inm, ok := m.inmates[id]
	if !ok {
		return store.ErrNotFound
	}
	inm.Status = inmate.StatusReleased
	inm.DischargedAt = &at
	m.inmates[id] = inm
	return nil
}

func (m *memStore) List(ctx context.Context, limit, offset int) ([]inmate.Inmate, error) {
	var res []inmate.Inmate
	for _, inm := range m.inmates {
		if inm.DischargedAt == nil {
			res = append(res, inm)
		}
	}
	return res, nil
}

func (m *memStore) AppendEntry(ctx context.Context, entry *inmate.PointsEntry) error {
	if m.failAppend {
		return errors.New("append failed")
	}
	entry.ID = "entry"
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memStore) Entries(ctx context.Context, inmateID string, limit, offset int) ([]inmate.PointsEntry, error) {
	var res []inmate.PointsEntry
	for _, e := range m.entries {
		if e.InmateID == inmateID {
			res = append(res, e)
		}
	}
	return res, nil
}

func seedInmate(t *testing.T, st *memStore, points int, admission *time.Time, sentenceDays *int) *inmate.Inmate {
	t.Helper()
	inm := &inmate.Inmate{
		BookingNumber: "BK-1001",
		FirstName:     "John",
		LastName:      "Doe",
		Status:        inmate.StatusActive,
		CurrentPoints: points,
		AdmissionDate: admission,
	}
	inm.OriginalSentenceDays = sentenceDays
	require.NoError(t, st.Create(context.Background(), inm))
	return inm
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddPoints_ClampsHigh(t *testing.T) {
	// GIVEN: an inmate at 450 points
	// WHEN: 100 points are added
	// THEN: total clamps to 500 and the entry records the clamp
	st := newMemStore()
	inm := seedInmate(t, st, 450, nil, nil)
	svc := inmate.NewService(st)

	updated, err := svc.AddPoints(context.Background(), inm.ID, inmate.AddPointsInput{
		Delta:      100,
		Activity:   "Vocational training completed",
		RecordedBy: "officer-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 500, updated.CurrentPoints)

	entries, err := svc.History(context.Background(), inm.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 450, entries[0].PointsBefore)
	assert.Equal(t, 500, entries[0].PointsAfter)
	assert.Equal(t, 100, entries[0].Delta)
	assert.Equal(t, "officer-1", entries[0].RecordedBy)
}

func TestAddPoints_ClampsLow(t *testing.T) {
	st := newMemStore()
	inm := seedInmate(t, st, 10, nil, nil)
	svc := inmate.NewService(st)

	updated, err := svc.AddPoints(context.Background(), inm.ID, inmate.AddPointsInput{
		Delta:      -50,
		Activity:   "Disciplinary incident",
		RecordedBy: "officer-2",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentPoints)

	entries, _ := svc.History(context.Background(), inm.ID, 10, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].PointsBefore)
	assert.Equal(t, 0, entries[0].PointsAfter)
}

func TestAddPoints_SequenceStaysInRange(t *testing.T) {
	st := newMemStore()
	inm := seedInmate(t, st, 250, nil, nil)
	svc := inmate.NewService(st)
	ctx := context.Background()

	deltas := []int{200, 200, -700, 50, 9999, -1, 3}
	for _, d := range deltas {
		updated, err := svc.AddPoints(ctx, inm.ID, inmate.AddPointsInput{
			Delta:      d,
			Activity:   "event",
			RecordedBy: "officer-1",
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, updated.CurrentPoints, 0)
		assert.LessOrEqual(t, updated.CurrentPoints, 500)
	}

	entries, _ := svc.History(ctx, inm.ID, 100, 0)
	require.Len(t, entries, len(deltas))
	for _, e := range entries {
		want := e.PointsBefore + e.Delta
		if want < 0 {
			want = 0
		}
		if want > 500 {
			want = 500
		}
		assert.Equal(t, want, e.PointsAfter)
	}
}

func TestAddPoints_RecomputesReleaseDate(t *testing.T) {
	// Crossing into the 300 tier moves the release date forward.
	admission := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sentence := 365
	st := newMemStore()
	inm := seedInmate(t, st, 290, &admission, &sentence)
	svc := inmate.NewService(st)

	updated, err := svc.AddPoints(context.Background(), inm.ID, inmate.AddPointsInput{
		Delta:      10,
		Activity:   "Good behavior",
		RecordedBy: "officer-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 300, updated.CurrentPoints)
	assert.Equal(t, 14, updated.ReducedSentenceDays)
	require.NotNil(t, updated.AdjustedReleaseDate)
	assert.Equal(t, time.Date(2024, time.December, 17, 0, 0, 0, 0, time.UTC), *updated.AdjustedReleaseDate)
}

func TestAddPoints_RollsBackOnHistoryFailure(t *testing.T) {
	// A failed ledger append must leave the inmate untouched.
	st := newMemStore()
	inm := seedInmate(t, st, 200, nil, nil)
	st.failAppend = true
	svc := inmate.NewService(st)

	_, err := svc.AddPoints(context.Background(), inm.ID, inmate.AddPointsInput{
		Delta:      50,
		Activity:   "event",
		RecordedBy: "officer-1",
	})
	require.Error(t, err)

	after, err := st.Get(context.Background(), inm.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, after.CurrentPoints, "points must not change when the entry fails")
	entries, _ := st.Entries(context.Background(), inm.ID, 10, 0)
	assert.Empty(t, entries)
}

func TestAddPoints_RequiresActivity(t *testing.T) {
	st := newMemStore()
	inm := seedInmate(t, st, 100, nil, nil)
	svc := inmate.NewService(st)

	_, err := svc.AddPoints(context.Background(), inm.ID, inmate.AddPointsInput{
		Delta:      5,
		Activity:   "   ",
		RecordedBy: "officer-1",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestAddPoints_UnknownInmate(t *testing.T) {
	svc := inmate.NewService(newMemStore())

	_, err := svc.AddPoints(context.Background(), "missing", inmate.AddPointsInput{
		Delta:      5,
		Activity:   "event",
		RecordedBy: "officer-1",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddPoints_DefaultsActivityDate(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	st := newMemStore()
	inm := seedInmate(t, st, 0, nil, nil)
	svc := inmate.NewService(st).WithClock(fixedClock(now))

	_, err := svc.AddPoints(context.Background(), inm.ID, inmate.AddPointsInput{
		Delta:      5,
		Activity:   "event",
		RecordedBy: "officer-1",
	})
	require.NoError(t, err)

	entries, _ := st.Entries(context.Background(), inm.ID, 10, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, now, entries[0].ActivityDate)
}

func TestUpdateSentenceTerms_ClearsReleaseDate(t *testing.T) {
	admission := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sentence := 365
	st := newMemStore()
	inm := seedInmate(t, st, 300, &admission, &sentence)
	svc := inmate.NewService(st)
	ctx := context.Background()

	updated, err := svc.RecalculateSentence(ctx, inm.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AdjustedReleaseDate)

	// Clearing the admission date must also clear the derived value.
	updated, err = svc.UpdateSentenceTerms(ctx, inm.ID, inmate.UpdateSentenceTermsInput{
		ClearAdmissionDate: true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AdmissionDate)
	assert.Nil(t, updated.AdjustedReleaseDate, "stale release date must not survive")
	assert.Equal(t, 14, updated.ReducedSentenceDays, "reduction still follows points")
}

func TestIntake_ClampsInitialPoints(t *testing.T) {
	st := newMemStore()
	svc := inmate.NewService(st)

	inm, err := svc.Intake(context.Background(), inmate.IntakeInput{
		BookingNumber: "BK-7",
		FirstName:     "Jane",
		LastName:      "Roe",
		InitialPoints: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, 500, inm.CurrentPoints)
	assert.Equal(t, 500, inm.InitialPoints)
	assert.Equal(t, inmate.StatusActive, inm.Status)
}

func TestIntake_Validates(t *testing.T) {
	svc := inmate.NewService(newMemStore())
	ctx := context.Background()

	_, err := svc.Intake(ctx, inmate.IntakeInput{FirstName: "Jane", LastName: "Roe"})
	assert.True(t, domain.IsValidation(err), "booking number required")

	negative := -5
	_, err = svc.Intake(ctx, inmate.IntakeInput{
		BookingNumber:        "BK-8",
		FirstName:            "Jane",
		LastName:             "Roe",
		OriginalSentenceDays: &negative,
	})
	assert.True(t, domain.IsValidation(err), "negative sentence rejected")
}
