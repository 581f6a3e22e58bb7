package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemStats is the system-wide dashboard summary
type SystemStats struct {
	TotalUsers       int `json:"total_users"`       // submitter-role users in the roster
	ActiveDeals      int `json:"active_deals"`      // approved requests
	PendingApprovals int `json:"pending_approvals"` // submitted and still pending
}

// UserStat aggregates one submitter's requests
type UserStat struct {
	UserID        uuid.UUID       `json:"user_id"`
	Username      string          `json:"username"`
	Name          string          `json:"name,omitempty"`
	TotalBudget   decimal.Decimal `json:"total_budget"`
	PendingCount  int             `json:"pending_count"`
	ApprovedCount int             `json:"approved_count"`
	RejectedCount int             `json:"rejected_count"`
}

// DashboardStats combines both views for the reviewer dashboard
type DashboardStats struct {
	SystemStats
	UserStats []UserStat `json:"user_stats"`
}
