package inmate

import "time"

// Points are clamped to this range; the ceiling is also the top tier
// threshold, so a maxed-out inmate earns the maximum reduction.
const (
	MinPoints = 0
	MaxPoints = 500
)

// Tier maps a points threshold to the sentence reduction it earns.
type Tier struct {
	Threshold int    `json:"threshold"`
	Days      int    `json:"days"`
	Label     string `json:"label"`
	Color     string `json:"color"`
}

// tiers is the fixed reduction schedule, ascending by threshold. The
// reduction for a points value is the Days of the highest threshold
// not exceeding it.
var tiers = []Tier{
	{Threshold: 100, Days: 3, Label: "Basic", Color: "secondary"},
	{Threshold: 200, Days: 7, Label: "Fair", Color: "info"},
	{Threshold: 300, Days: 14, Label: "Good", Color: "primary"},
	{Threshold: 400, Days: 21, Label: "Excellent", Color: "warning"},
	{Threshold: 500, Days: 30, Label: "Maximum", Color: "success"},
}

// NoTier is returned by CurrentTier when the points value matches no
// threshold.
var NoTier = Tier{Threshold: 0, Days: 0, Label: "None", Color: "light"}

// ReductionForPoints returns the sentence reduction in days earned at
// the given points value. Values below the first threshold (including
// negatives) earn nothing; values above the top threshold earn the top
// reduction.
func ReductionForPoints(points int) int {
	reduction := 0
	for _, t := range tiers {
		if points >= t.Threshold {
			reduction = t.Days
		}
	}
	return reduction
}

// CurrentTier returns the highest tier the points value has reached,
// or NoTier when none is reached.
func CurrentTier(points int) Tier {
	current := NoTier
	for _, t := range tiers {
		if points >= t.Threshold {
			current = t
		}
	}
	return current
}

// NextTier returns the lowest tier not yet reached and the points
// still needed for it. ok is false once the top threshold is met.
func NextTier(points int) (next Tier, needed int, ok bool) {
	for _, t := range tiers {
		if points < t.Threshold {
			return t, t.Threshold - points, true
		}
	}
	return Tier{}, 0, false
}

// ClampPoints bounds a running points total to [MinPoints, MaxPoints].
func ClampPoints(points int) int {
	if points < MinPoints {
		return MinPoints
	}
	if points > MaxPoints {
		return MaxPoints
	}
	return points
}

// Recalculate derives the earned reduction and the adjusted release
// date from the admission date, the original sentence, and the current
// points. The release date is nil unless both the admission date and
// the original sentence are known; callers must overwrite any stale
// value with the result. Date arithmetic is calendar-day addition in
// whatever location the admission date carries.
func Recalculate(admissionDate *time.Time, originalSentenceDays *int, points int) (reducedDays int, release *time.Time) {
	reducedDays = ReductionForPoints(points)
	if admissionDate == nil || originalSentenceDays == nil {
		return reducedDays, nil
	}
	remaining := *originalSentenceDays - reducedDays
	if remaining < 0 {
		remaining = 0
	}
	d := admissionDate.AddDate(0, 0, remaining)
	return reducedDays, &d
}
