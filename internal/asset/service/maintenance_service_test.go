package service

import (
	"errors"
	"testing"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
)

func TestMaintenanceLifecycle(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-mnt-1")

	m, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          entity.MaintenanceTypeCorrective,
		Title:         "更换硬盘",
		ScheduledDate: date("2026-09-05"),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if m.Status != entity.MaintenanceStatusScheduled {
		t.Errorf("status = %s, want scheduled", m.Status)
	}
	// 排期不占用设备
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status = %s, want available", got)
	}

	m, err = svcs.Maintenance.Start(ctxb(), m.ID, "tech-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if m.StartDate == nil {
		t.Error("start_date not set")
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusMaintenance {
		t.Errorf("equipment status = %s, want maintenance", got)
	}

	cost := 350.0
	m, err = svcs.Maintenance.Complete(ctxb(), m.ID, "tech-1", &CompleteMaintenanceRequest{
		ActionsTaken:  "更换1TB SSD",
		Cost:          &cost,
		PartsReplaced: "SSD",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if m.CompletionDate == nil {
		t.Error("completion_date not set")
	}
	if m.NextMaintenanceDate != nil {
		t.Error("corrective maintenance should not schedule a follow-up")
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status = %s, want available", got)
	}
}

func TestPreventiveMaintenanceAutoReschedule(t *testing.T) {
	svcs, db, clock := setupServices(t)
	eq := seedEquipment(t, db, "eq-mnt-2")

	m, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          entity.MaintenanceTypePreventive,
		Title:         "季度保养",
		ScheduledDate: date("2026-09-01"),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svcs.Maintenance.Start(ctxb(), m.ID, "tech-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	m, err = svcs.Maintenance.Complete(ctxb(), m.ID, "tech-1", &CompleteMaintenanceRequest{ActionsTaken: "清灰并校准"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	wantNext := entity.DateOnly(clock.Now()).AddDate(0, 0, 90)
	if m.NextMaintenanceDate == nil || !m.NextMaintenanceDate.Equal(wantNext) {
		t.Errorf("next_maintenance_date = %v, want %v", m.NextMaintenanceDate, wantNext)
	}

	// 自动生成且只生成一张下一期工单
	var followUps []entity.Maintenance
	if err := db.Where("equipment_id = ? AND status = ?", eq.ID, entity.MaintenanceStatusScheduled).
		Find(&followUps).Error; err != nil {
		t.Fatalf("load follow-ups: %v", err)
	}
	if len(followUps) != 1 {
		t.Fatalf("follow-ups = %d, want 1", len(followUps))
	}
	fu := followUps[0]
	if fu.Type != entity.MaintenanceTypePreventive {
		t.Errorf("follow-up type = %s, want preventive", fu.Type)
	}
	if !fu.ScheduledDate.Equal(wantNext) {
		t.Errorf("follow-up scheduled = %v, want %v", fu.ScheduledDate, wantNext)
	}
	if fu.CreatedBy != "system" {
		t.Errorf("follow-up created_by = %s, want system", fu.CreatedBy)
	}
}

func TestMaintenanceCancelInProgressReleasesEquipment(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-mnt-3")

	m, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          entity.MaintenanceTypeCleaning,
		Title:         "深度清洁",
		ScheduledDate: date("2026-09-03"),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svcs.Maintenance.Start(ctxb(), m.ID, "tech-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	m, err = svcs.Maintenance.Cancel(ctxb(), m.ID, "manager-1", "设备需紧急外借")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if m.CancelReason != "设备需紧急外借" {
		t.Errorf("cancel reason = %q", m.CancelReason)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status = %s, want available", got)
	}

	// 已取消的工单不能再流转
	_, err = svcs.Maintenance.Start(ctxb(), m.ID, "tech-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("start after cancel error = %v, want ErrInvalidState", err)
	}
}

func TestMaintenanceStartBlockedWhenEquipmentOnLoan(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-mnt-4")

	loan, _ := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if _, err := svcs.Loan.Approve(ctxb(), loan.ID, "manager-1"); err != nil {
		t.Fatalf("approve loan: %v", err)
	}

	m, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          entity.MaintenanceTypeInspection,
		Title:         "年检",
		ScheduledDate: date("2026-09-02"),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	_, err = svcs.Maintenance.Start(ctxb(), m.ID, "tech-1")
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("start error = %v, want ErrResourceUnavailable", err)
	}
}

func TestMaintenanceStartAllowedOnDamagedEquipment(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-mnt-6")

	if _, err := svcs.Incident.Report(ctxb(), "user-1", &ReportIncidentRequest{
		EquipmentID: eq.ID,
		Title:       "屏幕碎裂",
	}); err != nil {
		t.Fatalf("report incident: %v", err)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusDamaged {
		t.Fatalf("equipment status = %s, want damaged", got)
	}

	// 故障设备可以直接进维保
	m, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          entity.MaintenanceTypeCorrective,
		Title:         "换屏",
		ScheduledDate: date("2026-09-02"),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svcs.Maintenance.Start(ctxb(), m.ID, "tech-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusMaintenance {
		t.Errorf("equipment status = %s, want maintenance", got)
	}
}

func TestMaintenanceUnknownType(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-mnt-5")

	_, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          "overhaul",
		Title:         "大修",
		ScheduledDate: date("2026-09-02"),
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}
