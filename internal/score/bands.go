package score

import "fmt"

// Step is one band of a penalty table: counts from Min upwards (until the
// next step) cost Penalty points.
type Step struct {
	Min     int `json:"min" yaml:"min"`
	Penalty int `json:"penalty" yaml:"penalty"`
}

// Table is an ascending list of steps.
type Table []Step

// Penalty returns the penalty for count. Negative counts are treated as 0.
func (t Table) Penalty(count int) int {
	if count < 0 {
		count = 0
	}
	penalty := 0
	for _, step := range t {
		if count < step.Min {
			break
		}
		penalty = step.Penalty
	}
	return penalty
}

// Validate checks that the table starts with {0, 0}, has strictly ascending
// thresholds, and has non-decreasing penalties.
func (t Table) Validate() error {
	if len(t) == 0 || t[0].Min != 0 || t[0].Penalty != 0 {
		return ErrBandsNotAnchored
	}
	for i := 1; i < len(t); i++ {
		if t[i].Min <= t[i-1].Min || t[i].Penalty < t[i-1].Penalty {
			return fmt.Errorf("%w: step %d", ErrBandsNotMonotonic, i)
		}
	}
	return nil
}

// Bands holds every tuning value of the scoring model.
type Bands struct {
	Scripts          Table `json:"scripts" yaml:"scripts"`
	TrackingRequests Table `json:"trackingRequests" yaml:"tracking_requests"`
	TrackingCookies  Table `json:"trackingCookies" yaml:"tracking_cookies"`
	MissingPolicy    int   `json:"missingPolicy" yaml:"missing_policy"`
}

// DefaultBands returns the standard scoring bands.
func DefaultBands() Bands {
	return Bands{
		Scripts: Table{
			{Min: 0, Penalty: 0},
			{Min: 1, Penalty: 4},
			{Min: 4, Penalty: 8},
			{Min: 11, Penalty: 15},
			{Min: 21, Penalty: 25},
		},
		TrackingRequests: Table{
			{Min: 0, Penalty: 0},
			{Min: 1, Penalty: 2},
			{Min: 21, Penalty: 5},
			{Min: 61, Penalty: 12},
			{Min: 151, Penalty: 20},
		},
		TrackingCookies: Table{
			{Min: 0, Penalty: 0},
			{Min: 1, Penalty: 2},
			{Min: 4, Penalty: 5},
			{Min: 11, Penalty: 10},
			{Min: 21, Penalty: 20},
		},
		MissingPolicy: 10,
	}
}

// Validate checks every table and the policy penalty.
func (b Bands) Validate() error {
	if err := b.Scripts.Validate(); err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	if err := b.TrackingRequests.Validate(); err != nil {
		return fmt.Errorf("tracking requests: %w", err)
	}
	if err := b.TrackingCookies.Validate(); err != nil {
		return fmt.Errorf("tracking cookies: %w", err)
	}
	if b.MissingPolicy < 0 {
		return fmt.Errorf("%w: missing policy penalty is negative", ErrBandsNotMonotonic)
	}
	return nil
}
