package service

import (
	"context"
	"testing"
	"time"

	"dealflow/internal/audit"
	"dealflow/internal/authz"
	"dealflow/internal/database"
	"dealflow/internal/logger"
	"dealflow/internal/model"
	"dealflow/internal/repository/memory"
	"dealflow/internal/session"

	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store    *memory.Store
	users    *memory.UserRepository
	known    *memory.KnownUserRepository
	requests *memory.DealRequestRepository
	auth     AuthService
	deals    DealRequestService
	stats    StatisticsService
	review   ReviewService
	export   ExportService
	catalog  CatalogService
}

func newTestEnv(t *testing.T, allowRedecide bool) *testEnv {
	t.Helper()

	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	known := memory.NewKnownUserRepository(store)
	requests := memory.NewDealRequestRepository(store)
	txManager := memory.NewTransactionManager(store)

	if _, err := database.SeedRoster(context.Background(), users, database.DefaultRoster, bcrypt.MinCost); err != nil {
		t.Fatalf("seed roster: %v", err)
	}

	enforcer, err := authz.NewEnforcer(authz.Options{AllowRedecide: allowRedecide})
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}

	log := logger.Discard()
	auditLog := audit.NewLogger(log)
	sessions := session.NewManager(session.NewMemoryStore(), nil, time.Hour, log)

	return &testEnv{
		store:    store,
		users:    users,
		known:    known,
		requests: requests,
		auth: NewAuthService(users, known, sessions, AuthConfig{
			JWTSecret: []byte("test-secret"),
			TokenTTL:  time.Hour,
		}, auditLog, log),
		deals:   NewDealRequestService(requests, txManager, enforcer, auditLog, log),
		stats:   NewStatisticsService(users, requests, enforcer),
		review:  NewReviewService(known, requests, enforcer),
		export:  NewExportService(users, requests, enforcer, auditLog),
		catalog: NewCatalogService(model.DefaultCatalog, enforcer),
	}
}

func (e *testEnv) login(t *testing.T, username string) *session.Session {
	t.Helper()
	res, err := e.auth.Authenticate(context.Background(), LoginRequest{Username: username, Password: "password123"})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return res.Session
}

func validInput() CreateDealRequestInput {
	return CreateDealRequestInput{
		DealType:           "Volume Uplift",
		Material:           "ZA_000000000000092052",
		CostCenter:         "CC-1001",
		ValidityStart:      "2025-01-01",
		ValidityEnd:        "2025-03-31",
		Discount:           10,
		AvailableBudget:    "₹1,000",
		TotalEstimatedCost: "750.50",
		SearchOutlet:       "ZA_0000303394",
		ClassOfTrade:       "CLASSIC TAVERN",
		SalesArea:          "POLOKWANE SOUTH",
	}
}
