package visitation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detention/internal/domain"
	"detention/internal/store"
	"detention/internal/visitation"
)

// memStore is an in-memory visitation.Store with snapshot rollback.
type memStore struct {
	visitors     map[string]visitation.Visitor
	conjugal     map[string]visitation.ConjugalVisit
	logs         []visitation.ConjugalVisitLog
	requests     map[string]visitation.VisitRequest
	nextID       int
	failConjugal bool
}

func newVisitStore() *memStore {
	return &memStore{
		visitors: make(map[string]visitation.Visitor),
		conjugal: make(map[string]visitation.ConjugalVisit),
		requests: make(map[string]visitation.VisitRequest),
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapVisitors := make(map[string]visitation.Visitor, len(m.visitors))
	for k, v := range m.visitors {
		snapVisitors[k] = v
	}
	snapConjugal := make(map[string]visitation.ConjugalVisit, len(m.conjugal))
	for k, v := range m.conjugal {
		snapConjugal[k] = v
	}

	if err := fn(ctx); err != nil {
		m.visitors = snapVisitors
		m.conjugal = snapConjugal
		return err
	}
	return nil
}

func (m *memStore) CreateVisitor(ctx context.Context, v *visitation.Visitor) error {
	v.ID = m.id("vis")
	v.CreatedAt = time.Now()
	m.visitors[v.ID] = *v
	return nil
}

func (m *memStore) GetVisitor(ctx context.Context, id string) (*visitation.Visitor, error) {
	v, ok := m.visitors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *memStore) ListVisitors(ctx context.Context, inmateID string) ([]visitation.Visitor, error) {
	var res []visitation.Visitor
	for _, v := range m.visitors {
		if v.InmateID == inmateID {
			res = append(res, v)
		}
	}
	return res, nil
}

func (m *memStore) SetVisitorFaceEnrolled(ctx context.Context, visitorID string, at time.Time) error {
	v, ok := m.visitors[visitorID]
	if !ok {
		return store.ErrNotFound
	}
	v.FaceEnrolled = true
	v.EnrolledAt = &at
	m.visitors[visitorID] = v
	return nil
}

func (m *memStore) CreateConjugalVisit(ctx context.Context, cv *visitation.ConjugalVisit) error {
	if m.failConjugal {
		return errors.New("conjugal insert failed")
	}
	cv.ID = m.id("cv")
	cv.CreatedAt = time.Now()
	m.conjugal[cv.ID] = *cv
	return nil
}

func (m *memStore) GetConjugalVisit(ctx context.Context, id string) (*visitation.ConjugalVisit, error) {
	cv, ok := m.conjugal[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cv, nil
}

func (m *memStore) GetConjugalVisitByVisitor(ctx context.Context, visitorID string) (*visitation.ConjugalVisit, error) {
	for _, cv := range m.conjugal {
		if cv.VisitorID == visitorID {
			return &cv, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) SetConjugalStatus(ctx context.Context, id string, status visitation.ConjugalStatus) error {
	cv, ok := m.conjugal[id]
	if !ok {
		return store.ErrNotFound
	}
	cv.Status = status
	m.conjugal[id] = cv
	return nil
}

func (m *memStore) AppendVisitLog(ctx context.Context, l *visitation.ConjugalVisitLog) error {
	l.ID = m.id("log")
	l.CreatedAt = time.Now()
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memStore) ListVisitLogs(ctx context.Context, conjugalVisitID string) ([]visitation.ConjugalVisitLog, error) {
	var res []visitation.ConjugalVisitLog
	for _, l := range m.logs {
		if l.ConjugalVisitID == conjugalVisitID {
			res = append(res, l)
		}
	}
	return res, nil
}

func (m *memStore) CreateVisitRequest(ctx context.Context, vr *visitation.VisitRequest) error {
	vr.ID = m.id("req")
	vr.CreatedAt = time.Now()
	m.requests[vr.ID] = *vr
	return nil
}

func (m *memStore) GetVisitRequest(ctx context.Context, id string) (*visitation.VisitRequest, error) {
	vr, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &vr, nil
}

func (m *memStore) SetVisitRequestResult(ctx context.Context, id, status string, score *float64, at time.Time) error {
	vr, ok := m.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	vr.Status = status
	vr.MatchScore = score
	vr.VerifiedAt = &at
	m.requests[id] = vr
	return nil
}

// fakeDocs stores documents by counting uploads and returning
// predictable paths.
type fakeDocs struct {
	uploads int
	fail    bool
}

func (f *fakeDocs) Store(ctx context.Context, data []byte, filename, folder string) (string, error) {
	if f.fail {
		return "", errors.New("upload failed")
	}
	f.uploads++
	return folder + "/" + filename, nil
}

var regNow = time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)

func newWorkflow(st *memStore, docs visitation.DocumentStorage) *visitation.Service {
	return visitation.NewService(st, docs).WithClock(func() time.Time { return regNow })
}

func spousalInput(start *time.Time) visitation.VisitorInput {
	return visitation.VisitorInput{
		FirstName:             "Maria",
		LastName:              "Santos",
		Relationship:          "Wife",
		RelationshipStartDate: start,
	}
}

func uploadedDocs() visitation.Documents {
	return visitation.Documents{
		CohabitationCert: visitation.Document{Upload: []byte("cert"), Filename: "cohab.pdf"},
		MarriageContract: visitation.Document{Upload: []byte("contract"), Filename: "contract.pdf"},
	}
}

func TestRegisterVisitor_NonSpousal(t *testing.T) {
	// GIVEN: a sibling registration
	// WHEN: registered
	// THEN: a visitor exists and no conjugal record was created
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})

	v, err := svc.RegisterVisitor(context.Background(), "inm-1", visitation.VisitorInput{
		FirstName:    "Ana",
		LastName:     "Santos",
		Relationship: "Sister",
	}, visitation.Documents{}, "officer-1")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Empty(t, st.conjugal)
}

func TestRegisterVisitor_SpousalCaseInsensitive(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})

	in := spousalInput(datePtr(2015, time.January, 1))
	in.Relationship = "  WIFE  "
	v, err := svc.RegisterVisitor(context.Background(), "inm-1", in, uploadedDocs(), "officer-1")
	require.NoError(t, err)

	cv, err := st.GetConjugalVisitByVisitor(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, visitation.StatusPending, cv.Status)
	assert.Equal(t, "conjugal-documents/cohab.pdf", cv.CohabitationCertPath)
	assert.Equal(t, "conjugal-documents/contract.pdf", cv.MarriageContractPath)
	assert.Equal(t, "inm-1", cv.InmateID)
}

func TestRegisterVisitor_RecordsActingUser(t *testing.T) {
	// The registration must carry who created it for the audit trail.
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})

	v, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(datePtr(2015, time.January, 1)), uploadedDocs(), "warden-7")
	require.NoError(t, err)

	cv, err := st.GetConjugalVisitByVisitor(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "warden-7", cv.RegisteredBy)
}

func TestRegisterVisitor_RequiresName(t *testing.T) {
	svc := newWorkflow(newVisitStore(), &fakeDocs{})

	_, err := svc.RegisterVisitor(context.Background(), "inm-1", visitation.VisitorInput{
		Relationship: "Brother",
	}, visitation.Documents{}, "officer-1")
	assert.True(t, domain.IsValidation(err))
}

func TestRegisterVisitor_SpousalValidation(t *testing.T) {
	tests := []struct {
		name       string
		start      *time.Time
		docs       visitation.Documents
		wantReason string
	}{
		{
			name:       "missing start date",
			start:      nil,
			docs:       uploadedDocs(),
			wantReason: visitation.ReasonStartDateRequired,
		},
		{
			name:       "future start date",
			start:      datePtr(2026, time.January, 1),
			docs:       uploadedDocs(),
			wantReason: visitation.ReasonStartDateFuture,
		},
		{
			name:       "one day short of six years",
			start:      datePtr(2019, time.September, 2),
			docs:       uploadedDocs(),
			wantReason: visitation.ReasonDurationTooShort,
		},
		{
			name:  "missing documents",
			start: datePtr(2015, time.January, 1),
			docs: visitation.Documents{
				CohabitationCert: visitation.Document{Upload: []byte("cert"), Filename: "cohab.pdf"},
			},
			wantReason: visitation.ReasonDocumentsRequired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newVisitStore()
			svc := newWorkflow(st, &fakeDocs{})

			_, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(tc.start), tc.docs, "officer-1")
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.EqualError(t, err, tc.wantReason)
			assert.Empty(t, st.visitors, "nothing is written on a failed registration")
			assert.Empty(t, st.conjugal)
		})
	}
}

func TestRegisterVisitor_ExactlySixYears(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})

	_, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(datePtr(2019, time.September, 1)), uploadedDocs(), "officer-1")
	assert.NoError(t, err)
}

func TestRegisterVisitor_ExistingDocumentPaths(t *testing.T) {
	// Resubmission keeps previously stored paths without re-uploading.
	st := newVisitStore()
	docs := &fakeDocs{}
	svc := newWorkflow(st, docs)

	v, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(datePtr(2015, time.January, 1)), visitation.Documents{
		CohabitationCert: visitation.Document{ExistingPath: "conjugal-documents/old-cohab.pdf"},
		MarriageContract: visitation.Document{ExistingPath: "conjugal-documents/old-contract.pdf"},
	}, "officer-1")
	require.NoError(t, err)
	assert.Zero(t, docs.uploads)

	cv, err := st.GetConjugalVisitByVisitor(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "conjugal-documents/old-cohab.pdf", cv.CohabitationCertPath)
}

func TestRegisterVisitor_UploadFailureWritesNothing(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{fail: true})

	_, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(datePtr(2015, time.January, 1)), uploadedDocs(), "officer-1")
	require.Error(t, err)
	assert.Empty(t, st.visitors)
	assert.Empty(t, st.conjugal)
}

func TestRegisterVisitor_ConjugalFailureRollsBackVisitor(t *testing.T) {
	// The visitor insert succeeds inside the transaction but the
	// conjugal insert fails, so neither record survives.
	st := newVisitStore()
	st.failConjugal = true
	svc := newWorkflow(st, &fakeDocs{})

	_, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(datePtr(2015, time.January, 1)), uploadedDocs(), "officer-1")
	require.Error(t, err)
	assert.Empty(t, st.visitors)
	assert.Empty(t, st.conjugal)
}

func TestSetStatus(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})
	v, err := svc.RegisterVisitor(context.Background(), "inm-1", spousalInput(datePtr(2015, time.January, 1)), uploadedDocs(), "officer-1")
	require.NoError(t, err)
	cv, err := st.GetConjugalVisitByVisitor(context.Background(), v.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), cv.ID, visitation.StatusApproved))
	got, _ := st.GetConjugalVisit(context.Background(), cv.ID)
	assert.Equal(t, visitation.StatusApproved, got.Status)

	err = svc.SetStatus(context.Background(), cv.ID, visitation.StatusPending)
	assert.True(t, domain.IsValidation(err), "pending cannot be set after creation")
}

func TestRequestVisit_SpousalGating(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})
	ctx := context.Background()

	v, err := svc.RegisterVisitor(ctx, "inm-1", spousalInput(datePtr(2015, time.January, 1)), uploadedDocs(), "officer-1")
	require.NoError(t, err)
	cv, err := st.GetConjugalVisitByVisitor(ctx, v.ID)
	require.NoError(t, err)

	// Pending registration blocks the request.
	_, err = svc.RequestVisit(ctx, v.ID, "https://img/capture.jpg")
	assert.True(t, domain.IsValidation(err))

	require.NoError(t, st.SetConjugalStatus(ctx, cv.ID, visitation.StatusApproved))
	vr, err := svc.RequestVisit(ctx, v.ID, "https://img/capture.jpg")
	require.NoError(t, err)
	assert.Equal(t, visitation.RequestPending, vr.Status)
	assert.Equal(t, "inm-1", vr.InmateID)
	assert.Equal(t, regNow, vr.RequestedAt)
}

func TestRequestVisit_NonSpousalSkipsGate(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})
	ctx := context.Background()

	v, err := svc.RegisterVisitor(ctx, "inm-1", visitation.VisitorInput{
		FirstName:    "Ana",
		LastName:     "Santos",
		Relationship: "Mother",
	}, visitation.Documents{}, "officer-1")
	require.NoError(t, err)

	vr, err := svc.RequestVisit(ctx, v.ID, "https://img/capture.jpg")
	require.NoError(t, err)
	assert.Equal(t, visitation.RequestPending, vr.Status)
}

func TestRequestVisit_RequiresImage(t *testing.T) {
	svc := newWorkflow(newVisitStore(), &fakeDocs{})

	_, err := svc.RequestVisit(context.Background(), "vis-1", "")
	assert.True(t, domain.IsValidation(err))
}

func TestLogVisit_RequiresApprovedAndValid(t *testing.T) {
	st := newVisitStore()
	svc := newWorkflow(st, &fakeDocs{})
	ctx := context.Background()

	v, err := svc.RegisterVisitor(ctx, "inm-1", spousalInput(datePtr(2015, time.January, 1)), uploadedDocs(), "officer-1")
	require.NoError(t, err)
	cv, err := st.GetConjugalVisitByVisitor(ctx, v.ID)
	require.NoError(t, err)

	_, err = svc.LogVisit(ctx, cv.ID, regNow, nil, "warden-1")
	assert.True(t, domain.IsValidation(err), "pending registration cannot log visits")

	require.NoError(t, st.SetConjugalStatus(ctx, cv.ID, visitation.StatusApproved))
	l, err := svc.LogVisit(ctx, cv.ID, regNow, nil, "warden-1")
	require.NoError(t, err)
	assert.Equal(t, cv.ID, l.ConjugalVisitID)
	assert.Equal(t, "warden-1", l.RecordedBy)

	logs, err := st.ListVisitLogs(ctx, cv.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestConjugalApplies(t *testing.T) {
	assert.True(t, visitation.ConjugalApplies("wife"))
	assert.True(t, visitation.ConjugalApplies("Husband"))
	assert.True(t, visitation.ConjugalApplies(" spouse "))
	assert.False(t, visitation.ConjugalApplies("sister"))
	assert.False(t, visitation.ConjugalApplies(""))
}
