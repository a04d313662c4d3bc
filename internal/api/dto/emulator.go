package dto

import (
	"time"

	"github.com/billingsim/billingsim/internal/domain/catalog"
	ierr "github.com/billingsim/billingsim/internal/errors"
)

// AdvanceTimeRequest advances the virtual clock by the given amounts
type AdvanceTimeRequest struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (r *AdvanceTimeRequest) Validate() error {
	if r.Days < 0 || r.Hours < 0 || r.Minutes < 0 {
		return ierr.NewError("negative time advance").
			WithHint("Time can only be advanced forward").
			Mark(ierr.ErrInvalidArgument)
	}
	if r.Duration() <= 0 {
		return ierr.NewError("zero time advance").
			WithHint("Please provide days, hours or minutes to advance").
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// Duration converts the request to a time.Duration
func (r *AdvanceTimeRequest) Duration() time.Duration {
	return time.Duration(r.Days)*24*time.Hour +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute
}

// AdvanceTimeResponse reports the clock movement and the lifecycle work
// it triggered
type AdvanceTimeResponse struct {
	PreviousTimeMillis   int64 `json:"previous_time_millis"`
	CurrentTimeMillis    int64 `json:"current_time_millis"`
	AdvancedByMillis     int64 `json:"advanced_by_millis"`
	RenewalsProcessed    int   `json:"renewals_processed"`
	ExpirationsProcessed int   `json:"expirations_processed"`
	EventsPublished      int   `json:"events_published"`
}

// SetTimeRequest jumps the virtual clock to an absolute timestamp
type SetTimeRequest struct {
	TimeMillis int64 `json:"time_millis" binding:"required"`
}

func (r *SetTimeRequest) Validate() error {
	if r.TimeMillis <= 0 {
		return ierr.NewError("invalid time_millis").
			WithHint("time_millis must be a positive millisecond timestamp").
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// SetTimeResponse reports the clock jump and the lifecycle work it
// triggered
type SetTimeResponse struct {
	PreviousTimeMillis   int64 `json:"previous_time_millis"`
	CurrentTimeMillis    int64 `json:"current_time_millis"`
	RenewalsProcessed    int   `json:"renewals_processed"`
	ExpirationsProcessed int   `json:"expirations_processed"`
	EventsPublished      int   `json:"events_published"`
}

// ResetTimeResponse reports a clock reset back to the epoch
type ResetTimeResponse struct {
	PreviousTimeMillis int64 `json:"previous_time_millis"`
	CurrentTimeMillis  int64 `json:"current_time_millis"`
}

// ResetResponse reports a full emulator state reset
type ResetResponse struct {
	SubscriptionsDeleted int  `json:"subscriptions_deleted"`
	PurchasesDeleted     int  `json:"purchases_deleted"`
	TimeReset            bool `json:"time_reset"`
}

// StatusResponse is the emulator status snapshot
type StatusResponse struct {
	Status            string         `json:"status"`
	CurrentTimeMillis int64          `json:"current_time_millis"`
	CurrentTime       string         `json:"current_time"`
	EpochMillis       int64          `json:"epoch_millis"`
	Statistics        map[string]int `json:"statistics"`
}

// PlanResponse is a catalog entry with a display price
type PlanResponse struct {
	*catalog.Plan
	Price string `json:"price"`
}

// NewPlanResponse renders a catalog plan with its display price
func NewPlanResponse(plan *catalog.Plan) *PlanResponse {
	return &PlanResponse{
		Plan:  plan,
		Price: plan.Price().StringFixed(2),
	}
}

// ListPlansResponse lists catalog entries
type ListPlansResponse struct {
	Plans []*PlanResponse `json:"plans"`
	Total int             `json:"total"`
}
