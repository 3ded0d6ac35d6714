package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/testutil"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/middleware"
	"go.uber.org/zap"
)

func setupAssetTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	clock := &service.FixedClock{T: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	cfg := &config.Config{Policy: config.PolicyConfig{
		MaxActiveLoans:         3,
		MaxActiveReservations:  3,
		MaxReservationDays:     30,
		PreventiveIntervalDays: 90,
		LoanDefaultDays:        7,
	}}
	svcs := service.NewServices(db, repos, nil, cfg, clock, zap.NewNop())
	h := NewHandlers(svcs)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/loans", h.Loan.Create)
	api.GET("/loans", h.Loan.List)
	api.GET("/loans/:id", h.Loan.Get)
	api.POST("/loans/:id/approve", middleware.RequireRole("asset_manager"), h.Loan.Approve)
	api.POST("/loans/:id/reject", middleware.RequireRole("asset_manager"), h.Loan.Reject)
	api.POST("/loans/:id/return", h.Loan.Return)

	api.POST("/reservations", h.Reservation.Create)
	api.GET("/reservations", h.Reservation.List)
	api.POST("/reservations/:id/approve", middleware.RequireRole("asset_manager"), h.Reservation.Approve)
	api.POST("/reservations/:id/cancel", h.Reservation.Cancel)
	api.GET("/equipments/:id/availability", h.Reservation.Availability)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func managerToken() string {
	return testutil.GenerateTestToken("manager-001", "Manager", "manager@test.com",
		[]string{"asset_manager"}, []string{"*"})
}

func userToken() string {
	return testutil.GenerateTestToken("user-001", "User", "user@test.com", nil, nil)
}

func TestLoanHandlerCreateApproveReturn(t *testing.T) {
	env := setupAssetTest(t)
	testutil.SeedTestEquipment(t, env.DB, "eq-h-1", "测试笔记本")

	// 创建
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/loans",
		map[string]interface{}{"equipment_id": "eq-h-1"}, userToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	loanID := data["id"].(string)
	if data["status"] != "pending" {
		t.Errorf("status = %v, want pending", data["status"])
	}

	// 普通用户无权批准
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/loans/"+loanID+"/approve", nil, userToken())
	if w.Code != http.StatusForbidden {
		t.Errorf("approve as user: expected 403, got %d", w.Code)
	}

	// 管理员批准
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/loans/"+loanID+"/approve", nil, managerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 重复批准返回 409 / 40901
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/loans/"+loanID+"/approve", nil, managerToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("second approve: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != CodeInvalidState {
		t.Errorf("second approve code = %v, want %d", resp["code"], CodeInvalidState)
	}

	// 归还
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/loans/"+loanID+"/return",
		map[string]interface{}{}, userToken())
	if w.Code != http.StatusOK {
		t.Fatalf("return: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if data["status"] != "returned" {
		t.Errorf("status = %v, want returned", data["status"])
	}
}

func TestLoanHandlerNotFound(t *testing.T) {
	env := setupAssetTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/loans/missing", nil, userToken())
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestLoanHandlerUnauthenticated(t *testing.T) {
	env := setupAssetTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/loans", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLoanHandlerCreateMissingEquipmentID(t *testing.T) {
	env := setupAssetTest(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/loans",
		map[string]interface{}{"notes": "no equipment"}, userToken())
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
