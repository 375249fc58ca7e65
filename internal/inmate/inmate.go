package inmate

import "time"

// Status tracks where an inmate is in the custody lifecycle.
type Status string

const (
	StatusActive      Status = "active"
	StatusReleased    Status = "released"
	StatusTransferred Status = "transferred"
	StatusMedical     Status = "medical"
)

// Inmate is a detained person's record. Points, the earned sentence
// reduction, and the adjusted release date are mutated only through
// Service.AddPoints so the history ledger stays consistent.
type Inmate struct {
	ID                   string     `json:"id"`
	BookingNumber        string     `json:"booking_number"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	Gender               *string    `json:"gender,omitempty"`
	CellID               *string    `json:"cell_id,omitempty"`
	Status               Status     `json:"status"`
	InitialPoints        int        `json:"initial_points"`
	CurrentPoints        int        `json:"current_points"`
	OriginalSentenceDays *int       `json:"original_sentence_days,omitempty"`
	ReducedSentenceDays  int        `json:"reduced_sentence_days"`
	AdmissionDate        *time.Time `json:"admission_date,omitempty"`
	AdjustedReleaseDate  *time.Time `json:"adjusted_release_date,omitempty"`
	PhotoURL             *string    `json:"photo_url,omitempty"`
	DischargedAt         *time.Time `json:"discharged_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// PointsEntry is one event in the append-only points ledger.
// Entries are never updated or deleted; corrections are new entries
// with an opposite delta.
type PointsEntry struct {
	ID           string    `json:"id"`
	InmateID     string    `json:"inmate_id"`
	Delta        int       `json:"delta"`
	PointsBefore int       `json:"points_before"`
	PointsAfter  int       `json:"points_after"`
	Activity     string    `json:"activity"`
	Notes        *string   `json:"notes,omitempty"`
	ActivityDate time.Time `json:"activity_date"`
	RecordedBy   string    `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}
