package visitation

import "time"

// MinRelationshipYears is how long a couple must have been married or
// living together before conjugal visits can be requested. The same
// threshold gates both registration (workflow.go) and ongoing
// eligibility here; keep them identical.
const MinRelationshipYears = 6

// Eligibility is the outcome of evaluating a conjugal-visit
// registration at a point in time. Years is nil only when the start
// date is missing.
type Eligibility struct {
	Valid  bool   `json:"is_valid"`
	Years  *int   `json:"years,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Rejection reasons, surfaced verbatim to callers.
const (
	ReasonMissingStartDate = "Missing relationship start date"
	ReasonFutureStartDate  = "Relationship start date is in the future"
	ReasonTooShort         = "Couple must be married or living together for at least 6 years"
	ReasonMissingDocuments = "Required documents are not complete"
)

// Evaluate runs the eligibility checks in order and stops at the first
// failure. Validity depends on the clock, so results must not be
// cached across reads.
func Evaluate(reg ConjugalVisit, now time.Time) Eligibility {
	if reg.RelationshipStartDate == nil {
		return Eligibility{Valid: false, Reason: ReasonMissingStartDate}
	}

	years := yearsBetween(*reg.RelationshipStartDate, now)
	if years < 0 {
		return Eligibility{Valid: false, Years: &years, Reason: ReasonFutureStartDate}
	}
	if years < MinRelationshipYears {
		return Eligibility{Valid: false, Years: &years, Reason: ReasonTooShort}
	}
	if reg.CohabitationCertPath == "" || reg.MarriageContractPath == "" {
		return Eligibility{Valid: false, Years: &years, Reason: ReasonMissingDocuments}
	}
	return Eligibility{Valid: true, Years: &years}
}

// ReadyForVisitation reports whether a registration can actually be
// scheduled: eligible right now and approved.
func ReadyForVisitation(reg ConjugalVisit, now time.Time) bool {
	return Evaluate(reg, now).Valid && reg.Status == StatusApproved
}

// Label renders the composite validity string shown on the
// registration detail view.
func (e Eligibility) Label() string {
	if e.Valid {
		return "VALID"
	}
	reason := e.Reason
	if reason == "" {
		reason = "Does not meet eligibility requirements"
	}
	return "NOT VALID - " + reason
}

// yearsBetween returns whole calendar years from start to now, floored
// toward negative infinity. A start date in the future yields a
// negative result (start tomorrow is -1), which Evaluate uses for its
// future-date check.
func yearsBetween(start, now time.Time) int {
	years := now.Year() - start.Year()
	if start.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}
