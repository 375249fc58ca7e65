package visitation

import "time"

// ConjugalStatus is the approval state of a conjugal-visit
// registration. The numeric values are stored as-is.
type ConjugalStatus int

const (
	StatusDenied   ConjugalStatus = 0
	StatusApproved ConjugalStatus = 1
	StatusPending  ConjugalStatus = 2
)

// Label returns the display name for a status value.
func (s ConjugalStatus) Label() string {
	switch s {
	case StatusDenied:
		return "Denied"
	case StatusApproved:
		return "Approved"
	case StatusPending:
		return "Pending"
	default:
		return "Unknown"
	}
}

// Visitor is a person registered to visit an inmate. Relationship is
// free text; spousal values additionally require a conjugal-visit
// registration (see workflow.go).
type Visitor struct {
	ID           string     `json:"id"`
	InmateID     string     `json:"inmate_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Relationship string     `json:"relationship"`
	IDNumber     *string    `json:"id_number,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Address      *string    `json:"address,omitempty"`
	PhotoURL     *string    `json:"photo_url,omitempty"`
	FaceEnrolled bool       `json:"face_enrolled"`
	EnrolledAt   *time.Time `json:"enrolled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ConjugalVisit is the registration gating conjugal-visit scheduling,
// distinct from the per-session logs. Validity is never stored; it is
// recomputed against the clock on every read.
type ConjugalVisit struct {
	ID                    string         `json:"id"`
	VisitorID             string         `json:"visitor_id"`
	InmateID              string         `json:"inmate_id"`
	CohabitationCertPath  string         `json:"cohabitation_cert_path"`
	MarriageContractPath  string         `json:"marriage_contract_path"`
	RelationshipStartDate *time.Time     `json:"relationship_start_date,omitempty"`
	Status                ConjugalStatus `json:"status"`
	RegisteredBy          string         `json:"registered_by"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// ConjugalVisitLog records one conjugal visit session.
type ConjugalVisitLog struct {
	ID              string    `json:"id"`
	ConjugalVisitID string    `json:"conjugal_visit_id"`
	VisitDate       time.Time `json:"visit_date"`
	Notes           *string   `json:"notes,omitempty"`
	RecordedBy      string    `json:"recorded_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// VisitRequest is a visitation request pending facial verification.
// The worker verifies the captured image against the visitor's
// enrolled face and flips the status.
type VisitRequest struct {
	ID          string     `json:"id"`
	VisitorID   string     `json:"visitor_id"`
	InmateID    string     `json:"inmate_id"`
	ImageURL    string     `json:"image_url"`
	Status      string     `json:"status"`
	MatchScore  *float64   `json:"match_score,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Visit-request statuses.
const (
	RequestPending  = "pending"
	RequestVerified = "verified"
	RequestRejected = "rejected"
	RequestFailed   = "failed"
)
