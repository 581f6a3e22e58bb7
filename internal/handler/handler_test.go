package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealflow/internal/audit"
	"dealflow/internal/authz"
	"dealflow/internal/database"
	"dealflow/internal/logger"
	"dealflow/internal/middleware"
	"dealflow/internal/model"
	"dealflow/internal/repository/memory"
	"dealflow/internal/service"
	"dealflow/internal/session"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    json.RawMessage `json:"details"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	known := memory.NewKnownUserRepository(store)
	requests := memory.NewDealRequestRepository(store)
	txManager := memory.NewTransactionManager(store)
	if _, err := database.SeedRoster(context.Background(), users, database.DefaultRoster, bcrypt.MinCost); err != nil {
		t.Fatalf("seed: %v", err)
	}

	enforcer, err := authz.NewEnforcer(authz.Options{})
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	log := logger.Discard()
	auditLog := audit.NewLogger(log)
	sessions := session.NewManager(session.NewMemoryStore(), nil, time.Hour, log)

	authService := service.NewAuthService(users, known, sessions, service.AuthConfig{
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Hour,
	}, auditLog, log)

	handlers := Handlers{
		Auth:       NewAuthHandler(authService, middleware.CookieMode{}, log),
		Requests:   NewDealRequestHandler(service.NewDealRequestService(requests, txManager, enforcer, auditLog, log), service.NewExportService(users, requests, enforcer, auditLog), log),
		Review:     NewReviewHandler(service.NewReviewService(known, requests, enforcer), log),
		Catalog:    NewCatalogHandler(service.NewCatalogService(model.DefaultCatalog, enforcer), log),
		Statistics: NewStatisticsHandler(service.NewStatisticsService(users, requests, enforcer), log),
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	handlers.Register(router.Group(""), Guard{Session: middleware.RequireSession(authService), Enforcer: enforcer})
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != xlsxContentType {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func login(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w, env := do(t, router, http.MethodPost, "/login", "", map[string]string{"username": username, "password": "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, w.Code, w.Body.String())
	}
	var tok service.TokenResponse
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return tok.Token
}

func formBody() map[string]interface{} {
	return map[string]interface{}{
		"deal_type":            "Retention",
		"material":             "ZA_000000000000093940",
		"cost_center":          "CC-7",
		"validity_start":       "2025-02-01",
		"validity_end":         "2025-04-30",
		"discount":             15,
		"available_budget":     "R 2,500",
		"total_estimated_cost": "1800",
		"search_outlet":        "ZA_0000307961",
		"class_of_trade":       "CS TAKE AWAY",
		"sales_area":           "TZANEEN",
	}
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)

	w, env := do(t, router, http.MethodPost, "/login", "", map[string]string{"username": "john.doe", "password": "bad"})
	if w.Code != http.StatusUnauthorized || env.Status != "error" {
		t.Fatalf("bad login = %d %s", w.Code, w.Body.String())
	}

	w, _ = do(t, router, http.MethodPost, "/login", "", map[string]string{"username": "john.doe"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password = %d", w.Code)
	}

	token := login(t, router, "john.doe")
	w, env = do(t, router, http.MethodGet, "/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me = %d %s", w.Code, w.Body.String())
	}
	var me struct {
		User session.User `json:"user"`
	}
	_ = json.Unmarshal(env.Data, &me)
	if me.User.Username != "john.doe" {
		t.Fatalf("me = %+v", me.User)
	}
}

func TestCookieLogin(t *testing.T) {
	router := newTestRouter(t)

	w, _ := do(t, router, http.MethodPost, "/login", "", map[string]string{"username": "jane.smith", "password": "password123"})
	cookies := w.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != "access_token" || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me with cookie = %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "john.doe")

	if w, _ := do(t, router, http.MethodPost, "/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", w.Code)
	}
}

func TestRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/me", "/api/catalog", "/api/requests/mine", "/api/statistics"} {
		if w, _ := do(t, router, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token = %d", path, w.Code)
		}
	}
}

func TestRoleGating(t *testing.T) {
	router := newTestRouter(t)
	john := login(t, router, "john.doe")
	mike := login(t, router, "mike.wilson")

	if w, _ := do(t, router, http.MethodGet, "/api/statistics", john, nil); w.Code != http.StatusForbidden {
		t.Errorf("submitter statistics = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodPost, "/api/requests", mike, formBody()); w.Code != http.StatusForbidden {
		t.Errorf("reviewer create = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/api/requests/export", john, nil); w.Code != http.StatusForbidden {
		t.Errorf("submitter export = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/api/catalog", john, nil); w.Code != http.StatusOK {
		t.Errorf("catalog = %d", w.Code)
	}
}

func TestCreateValidationResponse(t *testing.T) {
	router := newTestRouter(t)
	john := login(t, router, "john.doe")

	body := formBody()
	delete(body, "material")
	body["deal_type"] = "Other"
	w, env := do(t, router, http.MethodPost, "/api/requests", john, body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var fields []service.FieldError
	if err := json.Unmarshal(env.Details, &fields); err != nil {
		t.Fatalf("details: %v", err)
	}
	names := map[string]bool{}
	for _, f := range fields {
		names[f.Field] = true
	}
	if !names["material"] || !names["other_reason"] {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	john := login(t, router, "john.doe")

	w, env := do(t, router, http.MethodPost, "/api/requests", john, formBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var created model.DealRequest
	_ = json.Unmarshal(env.Data, &created)
	if created.Status != model.StatusPending || created.SubmittedForApproval {
		t.Fatalf("created = %+v", created)
	}
	id := created.ID.String()

	if w, _ := do(t, router, http.MethodPost, "/api/requests/"+id+"/submit", john, nil); w.Code != http.StatusOK {
		t.Fatalf("submit = %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, router, http.MethodPost, "/api/requests/"+id+"/submit", john, nil); w.Code != http.StatusConflict {
		t.Fatalf("second submit = %d", w.Code)
	}

	mike := login(t, router, "mike.wilson")

	w, env = do(t, router, http.MethodGet, "/api/review/users", mike, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("review users = %d", w.Code)
	}
	var users []service.ReviewUser
	_ = json.Unmarshal(env.Data, &users)
	if len(users) != 1 || users[0].Stats.PendingCount != 1 {
		t.Fatalf("review users = %+v", users)
	}

	w, _ = do(t, router, http.MethodPost, "/api/requests/"+id+"/decision", mike, map[string]string{"outcome": "approved", "feedback": "approved for Q1"})
	if w.Code != http.StatusOK {
		t.Fatalf("decide = %d %s", w.Code, w.Body.String())
	}
	w, _ = do(t, router, http.MethodPost, "/api/requests/"+id+"/decision", mike, map[string]string{"outcome": "rejected"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second decide = %d", w.Code)
	}
	w, _ = do(t, router, http.MethodPost, "/api/requests/"+id+"/redecision", mike, map[string]string{"outcome": "rejected", "reason": "x"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("redecide while disabled = %d", w.Code)
	}

	w, env = do(t, router, http.MethodGet, "/api/requests/mine", john, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mine = %d", w.Code)
	}
	var mine []model.DealRequest
	_ = json.Unmarshal(env.Data, &mine)
	if len(mine) != 1 || mine[0].Status != model.StatusApproved || mine[0].Feedback != "approved for Q1" {
		t.Fatalf("mine = %+v", mine)
	}

	w, env = do(t, router, http.MethodGet, "/api/statistics", mike, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("statistics = %d", w.Code)
	}
	var stats model.DashboardStats
	_ = json.Unmarshal(env.Data, &stats)
	if stats.ActiveDeals != 1 || stats.PendingApprovals != 0 || stats.TotalUsers != 2 {
		t.Fatalf("stats = %+v", stats.SystemStats)
	}

	w, _ = do(t, router, http.MethodGet, "/api/requests/export", mike, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("export = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestBulkDecideOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	john := login(t, router, "john.doe")
	mike := login(t, router, "mike.wilson")

	var ids []string
	for i := 0; i < 2; i++ {
		_, env := do(t, router, http.MethodPost, "/api/requests", john, formBody())
		var r model.DealRequest
		_ = json.Unmarshal(env.Data, &r)
		ids = append(ids, r.ID.String())
	}
	w, _ := do(t, router, http.MethodPost, "/api/requests/submit", john, map[string]interface{}{"ids": ids[:1]})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk submit = %d %s", w.Code, w.Body.String())
	}

	w, env := do(t, router, http.MethodPost, "/api/requests/decisions", mike, map[string]interface{}{
		"ids":      ids,
		"outcome":  "approved",
		"feedback": "fine",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk decide = %d %s", w.Code, w.Body.String())
	}
	var results []service.BulkResult
	_ = json.Unmarshal(env.Data, &results)
	if len(results) != 2 || !results[0].OK || results[1].OK {
		t.Fatalf("results = %+v", results)
	}
}

func TestGetRequestVisibility(t *testing.T) {
	router := newTestRouter(t)
	john := login(t, router, "john.doe")
	jane := login(t, router, "jane.smith")

	_, env := do(t, router, http.MethodGet, "/api/requests/not-a-uuid", john, nil)
	if env.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id = %d", env.StatusCode)
	}

	_, env = do(t, router, http.MethodPost, "/api/requests", john, formBody())
	var r model.DealRequest
	_ = json.Unmarshal(env.Data, &r)

	if w, _ := do(t, router, http.MethodGet, "/api/requests/"+r.ID.String(), jane, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/api/requests/"+r.ID.String(), john, nil); w.Code != http.StatusOK {
		t.Fatalf("owner get = %d", w.Code)
	}
}

func TestListRequestsPaging(t *testing.T) {
	router := newTestRouter(t)
	john := login(t, router, "john.doe")
	mike := login(t, router, "mike.wilson")

	for i := 0; i < 3; i++ {
		if w, _ := do(t, router, http.MethodPost, "/api/requests", john, formBody()); w.Code != http.StatusCreated {
			t.Fatalf("create = %d", w.Code)
		}
	}

	type page struct {
		Items []model.DealRequest `json:"items"`
		Total int64               `json:"total"`
		Page  int                 `json:"page"`
		Limit int                 `json:"limit"`
	}

	w, env := do(t, router, http.MethodGet, "/api/requests", mike, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}
	var all page
	_ = json.Unmarshal(env.Data, &all)
	if len(all.Items) != 3 || all.Total != 3 {
		t.Fatalf("full listing = %d items, total %d", len(all.Items), all.Total)
	}

	_, env = do(t, router, http.MethodGet, "/api/requests?page=2&limit=2", mike, nil)
	var second page
	_ = json.Unmarshal(env.Data, &second)
	if len(second.Items) != 1 || second.Total != 3 || second.Page != 2 {
		t.Fatalf("second page = %+v", second)
	}
	if second.Items[0].ID != all.Items[2].ID {
		t.Fatal("paging broke append order")
	}

	if w, _ := do(t, router, http.MethodGet, "/api/requests?page=100000000000000000&limit=100", mike, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("overflowing page = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/api/requests?limit=zero", mike, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed limit = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/api/requests?submitted=true", mike, nil); w.Code != http.StatusOK {
		t.Fatalf("submitted filter = %d", w.Code)
	}
	if w, _ := do(t, router, http.MethodGet, "/api/requests", john, nil); w.Code != http.StatusForbidden {
		t.Fatalf("submitter list all = %d", w.Code)
	}
}
