package visitation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"detention/internal/domain"
)

// Registration-time rejection reasons. These fail fast before any
// record is written; read-time eligibility reuses the same thresholds
// in eligibility.go.
const (
	ReasonStartDateRequired = "Relationship start date is required for conjugal visit registrations"
	ReasonStartDateFuture   = "Relationship start date cannot be in the future"
	ReasonDurationTooShort  = "Couples must be married or living together for at least 6 years to request conjugal visits"
	ReasonDocumentsRequired = "Conjugal visit documents are required for spouse registrations"
)

// spousal relationships that mandate a conjugal-visit registration.
var spousalRelationships = map[string]bool{
	"wife":    true,
	"husband": true,
	"spouse":  true,
}

// ConjugalApplies reports whether a declared relationship requires the
// conjugal registration workflow. Matching is trimmed and
// case-insensitive.
func ConjugalApplies(relationship string) bool {
	return spousalRelationships[strings.ToLower(strings.TrimSpace(relationship))]
}

// DocumentStorage resolves uploaded files to stored paths. The service
// never reads file bytes itself beyond handing them over.
type DocumentStorage interface {
	Store(ctx context.Context, data []byte, filename, folder string) (string, error)
}

// Store is the persistence boundary for visitors, conjugal
// registrations, and visit requests.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateVisitor(ctx context.Context, v *Visitor) error
	GetVisitor(ctx context.Context, id string) (*Visitor, error)
	ListVisitors(ctx context.Context, inmateID string) ([]Visitor, error)
	SetVisitorFaceEnrolled(ctx context.Context, visitorID string, at time.Time) error

	CreateConjugalVisit(ctx context.Context, cv *ConjugalVisit) error
	GetConjugalVisit(ctx context.Context, id string) (*ConjugalVisit, error)
	GetConjugalVisitByVisitor(ctx context.Context, visitorID string) (*ConjugalVisit, error)
	SetConjugalStatus(ctx context.Context, id string, status ConjugalStatus) error

	AppendVisitLog(ctx context.Context, l *ConjugalVisitLog) error
	ListVisitLogs(ctx context.Context, conjugalVisitID string) ([]ConjugalVisitLog, error)

	CreateVisitRequest(ctx context.Context, vr *VisitRequest) error
	GetVisitRequest(ctx context.Context, id string) (*VisitRequest, error)
	SetVisitRequestResult(ctx context.Context, id, status string, score *float64, at time.Time) error
}

// Service runs the visitor registration workflow and conjugal
// eligibility reads.
type Service struct {
	store  Store
	docs   DocumentStorage
	now    func() time.Time
	folder string
}

// NewService creates a service. docs may be nil when document storage
// is not configured; registrations with uploads then fail cleanly.
func NewService(store Store, docs DocumentStorage) *Service {
	return &Service{store: store, docs: docs, now: time.Now, folder: "conjugal-documents"}
}

// WithClock overrides the time source; used by tests to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// VisitorInput carries the registration form fields.
type VisitorInput struct {
	FirstName             string
	LastName              string
	Relationship          string
	IDNumber              *string
	Phone                 *string
	Address               *string
	PhotoURL              *string
	RelationshipStartDate *time.Time
}

// Document is one required conjugal document, arriving either as an
// upload or as a path kept from a previous submission.
type Document struct {
	Upload       []byte
	Filename     string
	ExistingPath string
}

// Documents bundles the two required conjugal documents.
type Documents struct {
	CohabitationCert Document
	MarriageContract Document
}

// RegisterVisitor creates a visitor and, for spousal relationships, a
// pending conjugal-visit registration attributed to the acting staff
// member. All duration and document checks run before anything is
// written; both records are created in one transaction, so a failure
// leaves neither behind.
func (s *Service) RegisterVisitor(ctx context.Context, inmateID string, in VisitorInput, docs Documents, actingUserID string) (*Visitor, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, domain.Invalid("Visitor name is required")
	}
	if strings.TrimSpace(in.Relationship) == "" {
		return nil, domain.Invalid("Relationship is required")
	}

	visitor := &Visitor{
		InmateID:     inmateID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Relationship: strings.TrimSpace(in.Relationship),
		IDNumber:     in.IDNumber,
		Phone:        in.Phone,
		Address:      in.Address,
		PhotoURL:     in.PhotoURL,
	}

	if !ConjugalApplies(in.Relationship) {
		if err := s.store.CreateVisitor(ctx, visitor); err != nil {
			return nil, fmt.Errorf("create visitor: %w", err)
		}
		return visitor, nil
	}

	if in.RelationshipStartDate == nil {
		return nil, domain.Invalid(ReasonStartDateRequired)
	}
	years := yearsBetween(*in.RelationshipStartDate, s.now())
	if years < 0 {
		return nil, domain.Invalid(ReasonStartDateFuture)
	}
	if years < MinRelationshipYears {
		return nil, domain.Invalid(ReasonDurationTooShort)
	}

	certPath, err := s.resolveDocument(ctx, docs.CohabitationCert)
	if err != nil {
		return nil, err
	}
	contractPath, err := s.resolveDocument(ctx, docs.MarriageContract)
	if err != nil {
		return nil, err
	}
	if certPath == "" || contractPath == "" {
		return nil, domain.Invalid(ReasonDocumentsRequired)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateVisitor(ctx, visitor); err != nil {
			return fmt.Errorf("create visitor: %w", err)
		}
		cv := &ConjugalVisit{
			VisitorID:             visitor.ID,
			InmateID:              inmateID,
			CohabitationCertPath:  certPath,
			MarriageContractPath:  contractPath,
			RelationshipStartDate: in.RelationshipStartDate,
			Status:                StatusPending,
			RegisteredBy:          actingUserID,
		}
		if err := s.store.CreateConjugalVisit(ctx, cv); err != nil {
			return fmt.Errorf("create conjugal registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visitor, nil
}

// resolveDocument returns the stored path for a document, uploading
// first when bytes were provided.
func (s *Service) resolveDocument(ctx context.Context, doc Document) (string, error) {
	if len(doc.Upload) == 0 {
		return doc.ExistingPath, nil
	}
	if s.docs == nil {
		return "", fmt.Errorf("document storage not configured")
	}
	path, err := s.docs.Store(ctx, doc.Upload, doc.Filename, s.folder)
	if err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	return path, nil
}

// Evaluate returns the current eligibility of a registration.
func (s *Service) Evaluate(ctx context.Context, registrationID string) (*ConjugalVisit, Eligibility, error) {
	cv, err := s.store.GetConjugalVisit(ctx, registrationID)
	if err != nil {
		return nil, Eligibility{}, err
	}
	return cv, Evaluate(*cv, s.now()), nil
}

// SetStatus moves a registration to Approved or Denied. Pending is set
// only at creation.
func (s *Service) SetStatus(ctx context.Context, registrationID string, status ConjugalStatus) error {
	if status != StatusApproved && status != StatusDenied {
		return domain.Invalid("Status must be approved or denied")
	}
	return s.store.SetConjugalStatus(ctx, registrationID, status)
}

// GetVisitor returns a visitor record.
func (s *Service) GetVisitor(ctx context.Context, id string) (*Visitor, error) {
	return s.store.GetVisitor(ctx, id)
}

// ListVisitors returns an inmate's registered visitors.
func (s *Service) ListVisitors(ctx context.Context, inmateID string) ([]Visitor, error) {
	return s.store.ListVisitors(ctx, inmateID)
}

// RequestVisit records a visitation request pending facial
// verification. The ready-for-visitation rule gates spousal visitors:
// a spouse with an unusable conjugal registration cannot request a
// visit.
func (s *Service) RequestVisit(ctx context.Context, visitorID, imageURL string) (*VisitRequest, error) {
	if imageURL == "" {
		return nil, domain.Invalid("Captured image is required")
	}
	visitor, err := s.store.GetVisitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if ConjugalApplies(visitor.Relationship) {
		cv, err := s.store.GetConjugalVisitByVisitor(ctx, visitorID)
		if err != nil {
			return nil, err
		}
		if !ReadyForVisitation(*cv, s.now()) {
			return nil, domain.Invalid("Conjugal visit registration is not approved and valid")
		}
	}
	vr := &VisitRequest{
		VisitorID:   visitor.ID,
		InmateID:    visitor.InmateID,
		ImageURL:    imageURL,
		Status:      RequestPending,
		RequestedAt: s.now().UTC(),
	}
	if err := s.store.CreateVisitRequest(ctx, vr); err != nil {
		return nil, fmt.Errorf("create visit request: %w", err)
	}
	return vr, nil
}

// VisitLogs returns the session history for a registration, newest
// first.
func (s *Service) VisitLogs(ctx context.Context, conjugalVisitID string) ([]ConjugalVisitLog, error) {
	if _, err := s.store.GetConjugalVisit(ctx, conjugalVisitID); err != nil {
		return nil, err
	}
	return s.store.ListVisitLogs(ctx, conjugalVisitID)
}

// GetVisitRequest returns a visit request.
func (s *Service) GetVisitRequest(ctx context.Context, id string) (*VisitRequest, error) {
	return s.store.GetVisitRequest(ctx, id)
}

// LogVisit appends a conjugal visit session, allowed only while the
// registration is approved and currently valid.
func (s *Service) LogVisit(ctx context.Context, conjugalVisitID string, visitDate time.Time, notes *string, recordedBy string) (*ConjugalVisitLog, error) {
	cv, err := s.store.GetConjugalVisit(ctx, conjugalVisitID)
	if err != nil {
		return nil, err
	}
	if !ReadyForVisitation(*cv, s.now()) {
		return nil, domain.Invalid("Conjugal visit registration is not approved and valid")
	}
	l := &ConjugalVisitLog{
		ConjugalVisitID: cv.ID,
		VisitDate:       visitDate,
		Notes:           notes,
		RecordedBy:      recordedBy,
	}
	if err := s.store.AppendVisitLog(ctx, l); err != nil {
		return nil, fmt.Errorf("append visit log: %w", err)
	}
	return l, nil
}
