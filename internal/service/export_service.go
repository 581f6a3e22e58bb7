package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"dealflow/internal/audit"
	"dealflow/internal/authz"
	"dealflow/internal/model"
	"dealflow/internal/repository"
	"dealflow/internal/session"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Deal Requests"

var exportHeader = []interface{}{
	"id", "owner", "deal_type", "other_reason", "material", "cost_center",
	"validity_start", "validity_end", "discount", "available_budget", "total_estimated_cost",
	"search_outlet", "class_of_trade", "sales_area", "state", "feedback", "created_at",
}

// ExportService renders the request collection as a spreadsheet.
type ExportService interface {
	ExportRequests(ctx context.Context, sess *session.Session) ([]byte, string, error)
}

type exportService struct {
	users    repository.UserRepository
	requests repository.DealRequestRepository
	enforcer *authz.Enforcer
	audit    *audit.Logger
	now      func() time.Time
}

func NewExportService(users repository.UserRepository, requests repository.DealRequestRepository, enforcer *authz.Enforcer, auditLog *audit.Logger) ExportService {
	return &exportService{users: users, requests: requests, enforcer: enforcer, audit: auditLog, now: time.Now}
}

// ExportRequests returns the XLSX bytes and a suggested file name.
func (s *exportService) ExportRequests(ctx context.Context, sess *session.Session) ([]byte, string, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceRequests, authz.ActionExport); err != nil {
		return nil, "", err
	}

	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, "", err
	}
	roster, err := s.users.ListByRole(ctx, "")
	if err != nil {
		return nil, "", err
	}
	owners := make(map[uuid.UUID]string, len(roster))
	for _, u := range roster {
		owners[u.ID] = u.Username
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), exportSheet); err != nil {
		return nil, "", fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range requests {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		row := exportRow(r, owners[r.UserID])
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	s.audit.LogAction(ctx, sess.User.ID.String(), audit.ActionExport, "deal_request", "", "success", fmt.Sprintf("rows=%d", len(requests)))
	name := fmt.Sprintf("deal_requests_%s.xlsx", s.now().UTC().Format("20060102_150405"))
	return buf.Bytes(), name, nil
}

func exportRow(r model.DealRequest, owner string) []interface{} {
	budget, _ := r.AvailableBudget.Float64()
	cost, _ := r.TotalEstimatedCost.Float64()
	return []interface{}{
		r.ID.String(),
		owner,
		r.DealType,
		r.OtherReason,
		r.Material,
		r.CostCenter,
		r.ValidityStart.Format("2006-01-02"),
		r.ValidityEnd.Format("2006-01-02"),
		r.Discount,
		budget,
		cost,
		r.SearchOutlet,
		r.ClassOfTrade,
		r.SalesArea,
		r.State(),
		r.Feedback,
		r.CreatedAt.Format(time.RFC3339),
	}
}
