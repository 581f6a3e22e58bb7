package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal request status enum constants
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Lifecycle states derived from Status + SubmittedForApproval.
const (
	StateDraft     = "pending(unsubmitted)"
	StateSubmitted = "pending(submitted)"
	StateApproved  = StatusApproved
	StateRejected  = StatusRejected
)

// DealRequest is a proposed sales promotion owned by one submitter.
// Records are never deleted. Status only moves through the lifecycle service.
type DealRequest struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Seq                  int64           `gorm:"autoIncrement;uniqueIndex" json:"-"` // append order
	UserID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	DealType             string          `gorm:"type:varchar(50);not null" json:"deal_type"`
	OtherReason          string          `gorm:"type:text" json:"other_reason,omitempty"`
	Material             string          `gorm:"type:varchar(50);not null" json:"material"`
	CostCenter           string          `gorm:"type:varchar(50);not null" json:"cost_center"`
	ValidityStart        time.Time       `gorm:"not null" json:"validity_start"`
	ValidityEnd          time.Time       `gorm:"not null" json:"validity_end"`
	Discount             int             `gorm:"not null;default:0" json:"discount"`
	AvailableBudget      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"available_budget"`
	TotalEstimatedCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_estimated_cost"`
	SearchOutlet         string          `gorm:"type:varchar(50);not null" json:"search_outlet"`
	ClassOfTrade         string          `gorm:"type:varchar(50);not null" json:"class_of_trade"`
	SalesArea            string          `gorm:"type:varchar(100);not null" json:"sales_area"`
	Status               string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Feedback             string          `gorm:"type:text" json:"feedback,omitempty"`
	SubmittedForApproval bool            `gorm:"not null;default:false;index" json:"submitted_for_approval"`
	SubmittedAt          *time.Time      `json:"submitted_at,omitempty"`
	DecidedBy            *uuid.UUID      `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt            *time.Time      `json:"decided_at,omitempty"`
	Version              int             `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// State returns the lifecycle state name of the request.
func (r *DealRequest) State() string {
	switch r.Status {
	case StatusApproved:
		return StateApproved
	case StatusRejected:
		return StateRejected
	}
	if r.SubmittedForApproval {
		return StateSubmitted
	}
	return StateDraft
}

// IsDecided reports whether the request reached a terminal state.
func (r *DealRequest) IsDecided() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// AwaitingReview reports whether the request counts as a pending approval.
func (r *DealRequest) AwaitingReview() bool {
	return r.Status == StatusPending && r.SubmittedForApproval
}

// DealRequestPatch carries the fields UpdateByID may change. Nil fields are left untouched.
// When ExpectedVersion is set the update only applies if the stored Version matches.
type DealRequestPatch struct {
	Status               *string
	Feedback             *string
	SubmittedForApproval *bool
	SubmittedAt          *time.Time
	DecidedBy            *uuid.UUID
	DecidedAt            *time.Time
	ExpectedVersion      *int
}

// Apply merges the patch into r and bumps the revision.
func (p DealRequestPatch) Apply(r *DealRequest) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Feedback != nil {
		r.Feedback = *p.Feedback
	}
	if p.SubmittedForApproval != nil {
		r.SubmittedForApproval = *p.SubmittedForApproval
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		r.SubmittedAt = &t
	}
	if p.DecidedBy != nil {
		id := *p.DecidedBy
		r.DecidedBy = &id
	}
	if p.DecidedAt != nil {
		t := *p.DecidedAt
		r.DecidedAt = &t
	}
	r.Version++
}

// DealRequestFilter narrows List queries. Zero values mean "any".
type DealRequestFilter struct {
	UserID        *uuid.UUID
	Status        string
	SubmittedOnly bool
	Offset        int
	Limit         int // 0 = no limit
}
