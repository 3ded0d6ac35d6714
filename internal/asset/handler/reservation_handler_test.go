package handler

import (
	"net/http"
	"testing"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/testutil"
)

func createReservation(t *testing.T, env *testutil.TestEnv, token, equipmentID, start, end string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/reservations", map[string]interface{}{
		"equipment_id": equipmentID,
		"start_date":   start + "T00:00:00Z",
		"end_date":     end + "T00:00:00Z",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create reservation: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestReservationHandlerConflict(t *testing.T) {
	env := setupAssetTest(t)
	testutil.SeedTestEquipment(t, env.DB, "eq-rh-1", "会议投影仪")

	createReservation(t, env, userToken(), "eq-rh-1", "2026-09-10", "2026-09-15")

	// 重叠区间返回 409 / 40903
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/reservations", map[string]interface{}{
		"equipment_id": "eq-rh-1",
		"start_date":   "2026-09-14T00:00:00Z",
		"end_date":     "2026-09-18T00:00:00Z",
	}, userToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("overlap: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != CodeConflict {
		t.Errorf("overlap code = %v, want %d", resp["code"], CodeConflict)
	}

	// 相邻区间不冲突
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/reservations", map[string]interface{}{
		"equipment_id": "eq-rh-1",
		"start_date":   "2026-09-16T00:00:00Z",
		"end_date":     "2026-09-18T00:00:00Z",
	}, userToken())
	if w.Code != http.StatusCreated {
		t.Errorf("adjacent: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReservationHandlerInvalidRange(t *testing.T) {
	env := setupAssetTest(t)
	testutil.SeedTestEquipment(t, env.DB, "eq-rh-2", "示波器")

	// 结束早于开始返回 400 / 40000
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/reservations", map[string]interface{}{
		"equipment_id": "eq-rh-2",
		"start_date":   "2026-09-15T00:00:00Z",
		"end_date":     "2026-09-10T00:00:00Z",
	}, userToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != 40000 {
		t.Errorf("code = %v, want 40000", resp["code"])
	}
}

func TestReservationHandlerApproveAndCancel(t *testing.T) {
	env := setupAssetTest(t)
	testutil.SeedTestEquipment(t, env.DB, "eq-rh-3", "高速相机")

	res := createReservation(t, env, userToken(), "eq-rh-3", "2026-09-10", "2026-09-12")
	resID := res["id"].(string)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/reservations/"+resID+"/approve", nil, managerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "approved" {
		t.Errorf("status = %v, want approved", data["status"])
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/reservations/"+resID+"/cancel",
		map[string]interface{}{"reason": "行程变更"}, userToken())
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "cancelled" {
		t.Errorf("status = %v, want cancelled", data["status"])
	}

	// 取消后原区间可再预约
	createReservation(t, env, userToken(), "eq-rh-3", "2026-09-10", "2026-09-12")
}

func TestReservationHandlerLimitExceeded(t *testing.T) {
	env := setupAssetTest(t)
	for i, id := range []string{"eq-rh-4a", "eq-rh-4b", "eq-rh-4c", "eq-rh-4d"} {
		testutil.SeedTestEquipment(t, env.DB, id, "负载机"+string(rune('A'+i)))
	}

	createReservation(t, env, userToken(), "eq-rh-4a", "2026-09-10", "2026-09-11")
	createReservation(t, env, userToken(), "eq-rh-4b", "2026-09-10", "2026-09-11")
	createReservation(t, env, userToken(), "eq-rh-4c", "2026-09-10", "2026-09-11")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/reservations", map[string]interface{}{
		"equipment_id": "eq-rh-4d",
		"start_date":   "2026-09-10T00:00:00Z",
		"end_date":     "2026-09-11T00:00:00Z",
	}, userToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != CodeLimitExceeded {
		t.Errorf("code = %v, want %d", resp["code"], CodeLimitExceeded)
	}
}

func TestReservationHandlerAvailability(t *testing.T) {
	env := setupAssetTest(t)
	testutil.SeedTestEquipment(t, env.DB, "eq-rh-5", "频谱分析仪")

	createReservation(t, env, userToken(), "eq-rh-5", "2026-09-10", "2026-09-15")

	w := testutil.DoRequest(env.Router, "GET",
		"/api/v1/equipments/eq-rh-5/availability?start=2026-09-12&end=2026-09-20", nil, userToken())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["available"] != false {
		t.Errorf("available = %v, want false", data["available"])
	}
	if items := data["items"].([]interface{}); len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	w = testutil.DoRequest(env.Router, "GET",
		"/api/v1/equipments/eq-rh-5/availability?start=2026-09-16&end=2026-09-20", nil, userToken())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["available"] != true {
		t.Errorf("available = %v, want true", data["available"])
	}
}
