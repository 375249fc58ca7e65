package inmate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"detention/internal/domain"
)

// Store is the persistence boundary for inmates and their points
// ledger. Postgres implements it in repo.go; tests use a memory fake.
type Store interface {
	// WithTx runs fn atomically; every store call inside fn commits or
	// rolls back as one unit.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	Get(ctx context.Context, id string) (*Inmate, error)
	Create(ctx context.Context, inm *Inmate) error
	Update(ctx context.Context, inm *Inmate) error
	Discharge(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]Inmate, error)

	// AppendEntry writes a ledger entry. Entries are append-only.
	AppendEntry(ctx context.Context, entry *PointsEntry) error
	Entries(ctx context.Context, inmateID string, limit, offset int) ([]PointsEntry, error)
}

// Service owns the points ledger and sentence recalculation. All
// point-changing writes go through AddPoints so the inmate row and the
// ledger can never drift apart.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the time source; used by tests to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IntakeInput carries the fields needed to book an inmate in.
type IntakeInput struct {
	BookingNumber        string
	FirstName            string
	LastName             string
	DateOfBirth          *time.Time
	Gender               *string
	CellID               *string
	InitialPoints        int
	OriginalSentenceDays *int
	AdmissionDate        *time.Time
	PhotoURL             *string
}

// Intake books a new inmate. Points start at the clamped initial value
// and the sentence figures are derived immediately.
func (s *Service) Intake(ctx context.Context, in IntakeInput) (*Inmate, error) {
	if strings.TrimSpace(in.BookingNumber) == "" {
		return nil, domain.Invalid("Booking number is required")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, domain.Invalid("Inmate name is required")
	}
	if in.OriginalSentenceDays != nil && *in.OriginalSentenceDays < 0 {
		return nil, domain.Invalid("Original sentence cannot be negative")
	}

	points := ClampPoints(in.InitialPoints)
	inm := &Inmate{
		BookingNumber:        strings.TrimSpace(in.BookingNumber),
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		DateOfBirth:          in.DateOfBirth,
		Gender:               in.Gender,
		CellID:               in.CellID,
		Status:               StatusActive,
		InitialPoints:        points,
		CurrentPoints:        points,
		OriginalSentenceDays: in.OriginalSentenceDays,
		AdmissionDate:        in.AdmissionDate,
		PhotoURL:             in.PhotoURL,
	}
	inm.ReducedSentenceDays, inm.AdjustedReleaseDate = Recalculate(inm.AdmissionDate, inm.OriginalSentenceDays, points)
	if err := s.store.Create(ctx, inm); err != nil {
		return nil, fmt.Errorf("create inmate: %w", err)
	}
	return inm, nil
}

// AddPointsInput is one point-changing event. ActivityDate defaults to
// now when zero.
type AddPointsInput struct {
	Delta        int
	Activity     string
	Notes        *string
	ActivityDate time.Time
	RecordedBy   string
}

// AddPoints applies a points delta to an inmate: clamp the running
// total, append the ledger entry, and recompute the sentence figures,
// all inside one transaction. A failure anywhere leaves no partial
// state behind.
func (s *Service) AddPoints(ctx context.Context, inmateID string, in AddPointsInput) (*Inmate, error) {
	if strings.TrimSpace(in.Activity) == "" {
		return nil, domain.Invalid("Activity description is required")
	}
	activityDate := in.ActivityDate
	if activityDate.IsZero() {
		activityDate = s.now().UTC()
	}

	var updated *Inmate
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		inm, err := s.store.Get(ctx, inmateID)
		if err != nil {
			return err
		}

		before := inm.CurrentPoints
		after := ClampPoints(before + in.Delta)
		inm.CurrentPoints = after
		inm.ReducedSentenceDays, inm.AdjustedReleaseDate = Recalculate(inm.AdmissionDate, inm.OriginalSentenceDays, after)
		if err := s.store.Update(ctx, inm); err != nil {
			return fmt.Errorf("update inmate points: %w", err)
		}

		entry := &PointsEntry{
			InmateID:     inm.ID,
			Delta:        in.Delta,
			PointsBefore: before,
			PointsAfter:  after,
			Activity:     in.Activity,
			Notes:        in.Notes,
			ActivityDate: activityDate,
			RecordedBy:   in.RecordedBy,
		}
		if err := s.store.AppendEntry(ctx, entry); err != nil {
			return fmt.Errorf("append points entry: %w", err)
		}
		updated = inm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecalculateSentence recomputes the reduction and release date from
// the inmate's current state and persists the result. Used after the
// admission date or the original sentence changes.
func (s *Service) RecalculateSentence(ctx context.Context, inmateID string) (*Inmate, error) {
	var updated *Inmate
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		inm, err := s.store.Get(ctx, inmateID)
		if err != nil {
			return err
		}
		inm.ReducedSentenceDays, inm.AdjustedReleaseDate = Recalculate(inm.AdmissionDate, inm.OriginalSentenceDays, inm.CurrentPoints)
		if err := s.store.Update(ctx, inm); err != nil {
			return fmt.Errorf("update inmate sentence: %w", err)
		}
		updated = inm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateSentenceTermsInput changes the inputs of the release-date
// calculation. Nil leaves a field untouched; Clear* unsets it.
type UpdateSentenceTermsInput struct {
	AdmissionDate        *time.Time
	ClearAdmissionDate   bool
	OriginalSentenceDays *int
	ClearSentence        bool
}

// UpdateSentenceTerms rewrites the sentence inputs and recomputes the
// derived figures in the same transaction.
func (s *Service) UpdateSentenceTerms(ctx context.Context, inmateID string, in UpdateSentenceTermsInput) (*Inmate, error) {
	if in.OriginalSentenceDays != nil && *in.OriginalSentenceDays < 0 {
		return nil, domain.Invalid("Original sentence cannot be negative")
	}
	var updated *Inmate
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		inm, err := s.store.Get(ctx, inmateID)
		if err != nil {
			return err
		}
		if in.ClearAdmissionDate {
			inm.AdmissionDate = nil
		} else if in.AdmissionDate != nil {
			inm.AdmissionDate = in.AdmissionDate
		}
		if in.ClearSentence {
			inm.OriginalSentenceDays = nil
		} else if in.OriginalSentenceDays != nil {
			inm.OriginalSentenceDays = in.OriginalSentenceDays
		}
		inm.ReducedSentenceDays, inm.AdjustedReleaseDate = Recalculate(inm.AdmissionDate, inm.OriginalSentenceDays, inm.CurrentPoints)
		if err := s.store.Update(ctx, inm); err != nil {
			return fmt.Errorf("update sentence terms: %w", err)
		}
		updated = inm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns one inmate.
func (s *Service) Get(ctx context.Context, id string) (*Inmate, error) {
	return s.store.Get(ctx, id)
}

// List returns inmates with paging.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Inmate, error) {
	return s.store.List(ctx, limit, offset)
}

// Discharge soft-removes an inmate. The record stays for the ledger
// and visit history.
func (s *Service) Discharge(ctx context.Context, id string) error {
	return s.store.Discharge(ctx, id, s.now().UTC())
}

// History returns the points ledger, newest activity first.
func (s *Service) History(ctx context.Context, inmateID string, limit, offset int) ([]PointsEntry, error) {
	return s.store.Entries(ctx, inmateID, limit, offset)
}
