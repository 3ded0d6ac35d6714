package service

import (
	"errors"
	"testing"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
)

func TestLoanLifecycle(t *testing.T) {
	svcs, db, clock := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-1")

	loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if loan.Status != entity.LoanStatusPending {
		t.Errorf("status = %s, want pending", loan.Status)
	}
	wantReturn := entity.DateOnly(clock.Now().AddDate(0, 0, 7))
	if !loan.ExpectedReturnDate.Equal(wantReturn) {
		t.Errorf("expected return = %v, want %v", loan.ExpectedReturnDate, wantReturn)
	}
	// 申请阶段不占用设备
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status after create = %s, want available", got)
	}

	loan, err = svcs.Loan.Approve(ctxb(), loan.ID, "manager-1")
	if err != nil {
		t.Fatalf("approve loan: %v", err)
	}
	if loan.Status != entity.LoanStatusApproved {
		t.Errorf("status = %s, want approved", loan.Status)
	}
	if loan.ApprovedBy == nil || *loan.ApprovedBy != "manager-1" {
		t.Errorf("approved_by = %v, want manager-1", loan.ApprovedBy)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusOnLoan {
		t.Errorf("equipment status after approve = %s, want on_loan", got)
	}

	loan, err = svcs.Loan.Return(ctxb(), loan.ID, "user-1", &ReturnLoanRequest{})
	if err != nil {
		t.Fatalf("return loan: %v", err)
	}
	if loan.Status != entity.LoanStatusReturned {
		t.Errorf("status = %s, want returned", loan.Status)
	}
	if loan.ActualReturnDate == nil {
		t.Error("actual return date not set")
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status after return = %s, want available", got)
	}

	// 每步流转都落了操作日志
	if n := countActivity(t, db, "loan", loan.ID, "approve"); n != 1 {
		t.Errorf("approve logs = %d, want 1", n)
	}
	if n := countActivity(t, db, "loan", loan.ID, "return"); n != 1 {
		t.Errorf("return logs = %d, want 1", n)
	}
}

func TestLoanSecondApproveFails(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-2")

	loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if _, err := svcs.Loan.Approve(ctxb(), loan.ID, "manager-1"); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	_, err = svcs.Loan.Approve(ctxb(), loan.ID, "manager-2")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("second approve error = %v, want ErrInvalidState", err)
	}
}

func TestLoanCreateRejectedWhenEquipmentHasOpenLoan(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-3")

	if _, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svcs.Loan.Create(ctxb(), "user-2", &CreateLoanRequest{EquipmentID: eq.ID})
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("second create error = %v, want ErrResourceUnavailable", err)
	}
}

func TestLoanUserLimit(t *testing.T) {
	svcs, db, _ := setupServices(t)

	// 用户已有3张在借
	for i := 0; i < 3; i++ {
		eq := seedEquipment(t, db, "eq-limit-"+string(rune('a'+i)))
		loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
		if err != nil {
			t.Fatalf("create loan %d: %v", i, err)
		}
		if _, err := svcs.Loan.Approve(ctxb(), loan.ID, "manager-1"); err != nil {
			t.Fatalf("approve loan %d: %v", i, err)
		}
	}

	eq := seedEquipment(t, db, "eq-limit-extra")
	_, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("create over limit error = %v, want ErrLimitExceeded", err)
	}
}

func TestLoanRejectKeepsEquipmentAvailable(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-4")

	loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	loan, err = svcs.Loan.Reject(ctxb(), loan.ID, "manager-1", "库存盘点中")
	if err != nil {
		t.Fatalf("reject loan: %v", err)
	}
	if loan.Status != entity.LoanStatusRejected {
		t.Errorf("status = %s, want rejected", loan.Status)
	}
	if loan.RejectionReason != "库存盘点中" {
		t.Errorf("rejection reason = %q", loan.RejectionReason)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status = %s, want available", got)
	}
}

func TestLoanReturnDamagedReleasesToDamaged(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-5")

	loan, _ := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if _, err := svcs.Loan.Approve(ctxb(), loan.ID, "manager-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svcs.Loan.Return(ctxb(), loan.ID, "user-1", &ReturnLoanRequest{Condition: entity.ConditionDamaged}); err != nil {
		t.Fatalf("return: %v", err)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusDamaged {
		t.Errorf("equipment status = %s, want damaged", got)
	}
}

func TestLoanMarkOverdue(t *testing.T) {
	svcs, db, clock := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-6")

	due := clock.Now().AddDate(0, 0, 2)
	loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID, ExpectedReturnDate: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svcs.Loan.Approve(ctxb(), loan.ID, "manager-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// 到期前扫描不动
	marked, errs := svcs.Loan.MarkOverdue(ctxb())
	if len(errs) != 0 || marked != 0 {
		t.Fatalf("premature sweep marked=%d errs=%v", marked, errs)
	}

	// 过了应还日期
	clock.Advance(72 * time.Hour)
	marked, errs = svcs.Loan.MarkOverdue(ctxb())
	if len(errs) != 0 {
		t.Fatalf("sweep errors: %v", errs)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}

	got, err := svcs.Loan.Get(ctxb(), loan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != entity.LoanStatusOverdue {
		t.Errorf("status = %s, want overdue", got.Status)
	}

	// 逾期后仍可归还
	if _, err := svcs.Loan.Return(ctxb(), loan.ID, "user-1", nil); err != nil {
		t.Fatalf("return overdue loan: %v", err)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusAvailable {
		t.Errorf("equipment status = %s, want available", got)
	}
}

func TestLoanApproveBlockedOnDamagedEquipment(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-7")

	loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	// 报修把空闲设备标成 damaged，待审批的借用不能再批
	if _, err := svcs.Incident.Report(ctxb(), "user-2", &ReportIncidentRequest{
		EquipmentID: eq.ID,
		Title:       "外壳破裂",
	}); err != nil {
		t.Fatalf("report incident: %v", err)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusDamaged {
		t.Fatalf("equipment status = %s, want damaged", got)
	}

	_, err = svcs.Loan.Approve(ctxb(), loan.ID, "manager-1")
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("approve on damaged error = %v, want ErrResourceUnavailable", err)
	}
	got, err := svcs.Loan.Get(ctxb(), loan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != entity.LoanStatusPending {
		t.Errorf("loan status = %s, want pending", got.Status)
	}
	if got := equipmentStatus(t, db, eq.ID); got != entity.EquipmentStatusDamaged {
		t.Errorf("equipment status = %s, want damaged", got)
	}
}

func TestLoanCreateRequiresAvailableEquipment(t *testing.T) {
	svcs, db, _ := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-8")

	m, err := svcs.Maintenance.Schedule(ctxb(), "manager-1", &ScheduleMaintenanceRequest{
		EquipmentID:   eq.ID,
		Type:          entity.MaintenanceTypeCorrective,
		Title:         "主板检修",
		ScheduledDate: date("2026-09-02"),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svcs.Maintenance.Start(ctxb(), m.ID, "tech-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 维保中的设备连申请都不受理
	_, err = svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID})
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("create on maintenance error = %v, want ErrResourceUnavailable", err)
	}
}

func TestLoanMarkOverdueLeavesReturnedLoanUntouched(t *testing.T) {
	svcs, db, clock := setupServices(t)
	eq := seedEquipment(t, db, "eq-loan-9")

	due := clock.Now().AddDate(0, 0, 2)
	loan, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: eq.ID, ExpectedReturnDate: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svcs.Loan.Approve(ctxb(), loan.ID, "manager-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svcs.Loan.Return(ctxb(), loan.ID, "user-1", nil); err != nil {
		t.Fatalf("return: %v", err)
	}

	// 应还日期过了再扫描：已归还的借用单不受影响
	clock.Advance(72 * time.Hour)
	marked, errs := svcs.Loan.MarkOverdue(ctxb())
	if len(errs) != 0 || marked != 0 {
		t.Fatalf("sweep marked=%d errs=%v, want 0 marked", marked, errs)
	}

	got, err := svcs.Loan.Get(ctxb(), loan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != entity.LoanStatusReturned {
		t.Errorf("status = %s, want returned", got.Status)
	}
	if got.ActualReturnDate == nil {
		t.Error("actual return date wiped by sweep")
	}
	if n := countActivity(t, db, "loan", loan.ID, "mark_overdue"); n != 0 {
		t.Errorf("mark_overdue logs = %d, want 0", n)
	}
}

func TestLoanCreateNotFoundEquipment(t *testing.T) {
	svcs, _, _ := setupServices(t)

	_, err := svcs.Loan.Create(ctxb(), "user-1", &CreateLoanRequest{EquipmentID: "missing"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
