package types

import (
	"fmt"
	"strconv"
	"time"

	ierr "github.com/billingsim/billingsim/internal/errors"
)

// BillingPeriod is an ISO-8601 duration restricted to a single
// designator, e.g. P1M, P7D, P2W, P1Y
type BillingPeriod string

// Fixed-length period arithmetic in milliseconds. Months and years are
// flattened to 30 and 365 days so that virtual-time boundary math stays
// exact and reversible.
const (
	MillisPerDay   int64 = 24 * 60 * 60 * 1000
	MillisPerWeek  int64 = 7 * MillisPerDay
	MillisPerMonth int64 = 30 * MillisPerDay
	MillisPerYear  int64 = 365 * MillisPerDay
)

func (p BillingPeriod) String() string {
	return string(p)
}

// Millis converts the period to its duration in milliseconds.
// Fails with InvalidArgument on malformed or non-positive periods.
func (p BillingPeriod) Millis() (int64, error) {
	s := string(p)
	if len(s) < 3 || s[0] != 'P' {
		return 0, invalidPeriodErr(p)
	}

	count, err := strconv.Atoi(s[1 : len(s)-1])
	if err != nil || count <= 0 {
		return 0, invalidPeriodErr(p)
	}

	var unit int64
	switch s[len(s)-1] {
	case 'D':
		unit = MillisPerDay
	case 'W':
		unit = MillisPerWeek
	case 'M':
		unit = MillisPerMonth
	case 'Y':
		unit = MillisPerYear
	default:
		return 0, invalidPeriodErr(p)
	}

	return int64(count) * unit, nil
}

// Duration converts the period to a time.Duration
func (p BillingPeriod) Duration() (time.Duration, error) {
	millis, err := p.Millis()
	if err != nil {
		return 0, err
	}
	return time.Duration(millis) * time.Millisecond, nil
}

func (p BillingPeriod) Validate() error {
	_, err := p.Millis()
	return err
}

// FormatBillingPeriod renders a millisecond duration back into the most
// compact single-designator form, preferring Y over M over W over D.
func FormatBillingPeriod(millis int64) (BillingPeriod, error) {
	if millis <= 0 || millis%MillisPerDay != 0 {
		return "", ierr.NewError("duration is not a whole number of days").
			WithHint("Billing periods must be a positive whole number of days").
			Mark(ierr.ErrInvalidArgument)
	}

	switch {
	case millis%MillisPerYear == 0:
		return BillingPeriod(fmt.Sprintf("P%dY", millis/MillisPerYear)), nil
	case millis%MillisPerMonth == 0:
		return BillingPeriod(fmt.Sprintf("P%dM", millis/MillisPerMonth)), nil
	case millis%MillisPerWeek == 0:
		return BillingPeriod(fmt.Sprintf("P%dW", millis/MillisPerWeek)), nil
	default:
		return BillingPeriod(fmt.Sprintf("P%dD", millis/MillisPerDay)), nil
	}
}

func invalidPeriodErr(p BillingPeriod) error {
	return ierr.NewError("invalid billing period").
		WithHintf("Billing period %q must match P<n>D, P<n>W, P<n>M or P<n>Y", string(p)).
		Mark(ierr.ErrInvalidArgument)
}
