package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// LoanService 借用单服务
type LoanService struct {
	db            *gorm.DB
	loanRepo      *repository.LoanRepository
	equipmentRepo *repository.EquipmentRepository
	logRepo       *repository.ActivityLogRepository
	policy        config.PolicyConfig
	clock         Clock
}

// NewLoanService 创建借用服务
func NewLoanService(db *gorm.DB, repos *repository.Repositories, policy config.PolicyConfig, clock Clock) *LoanService {
	return &LoanService{
		db:            db,
		loanRepo:      repos.Loan,
		equipmentRepo: repos.Equipment,
		logRepo:       repos.ActivityLog,
		policy:        policy,
		clock:         clock,
	}
}

// CreateLoanRequest 创建借用请求
type CreateLoanRequest struct {
	EquipmentID        string     `json:"equipment_id" binding:"required"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	Notes              string     `json:"notes"`
}

// ReturnLoanRequest 归还请求
type ReturnLoanRequest struct {
	Condition string `json:"condition"` // 归还时重评品相，可空
	Notes     string `json:"notes"`
}

// LoanListResult 借用单列表结果
type LoanListResult struct {
	Items      []entity.Loan `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// Create 创建借用申请。申请不获取设备归属权，批准时才会。
func (s *LoanService) Create(ctx context.Context, userID string, req *CreateLoanRequest) (*entity.Loan, error) {
	eq, err := s.equipmentRepo.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	if eq.Status != entity.EquipmentStatusAvailable {
		return nil, fmt.Errorf("%w: equipment %s is %s", ErrResourceUnavailable, eq.Code, eq.Status)
	}

	active, err := s.loanRepo.CountApprovedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active >= int64(s.policy.MaxActiveLoans) {
		return nil, fmt.Errorf("%w: user already has %d active loans", ErrLimitExceeded, active)
	}

	// 同一台设备同一时刻只允许一张未完结借用单
	open, err := s.loanRepo.CountOpenByEquipment(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: equipment %s already has an open loan", ErrResourceUnavailable, eq.Code)
	}

	now := s.clock.Now()
	expected := now.AddDate(0, 0, s.policy.LoanDefaultDays)
	if req.ExpectedReturnDate != nil {
		expected = *req.ExpectedReturnDate
		if entity.DateOnly(expected).Before(s.clock.Today()) {
			return nil, fmt.Errorf("%w: expected return date is in the past", ErrInvalidRange)
		}
	}

	loan := &entity.Loan{
		ID:                 uuid.New().String()[:32],
		EquipmentID:        req.EquipmentID,
		UserID:             userID,
		Status:             entity.LoanStatusPending,
		RequestedAt:        now,
		ExpectedReturnDate: entity.DateOnly(expected),
		Notes:              req.Notes,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}

	s.logRepo.LogActivity(ctx, "loan", loan.ID, "create", "", loan.Status, "借用申请: "+eq.Name, userID)
	return loan, nil
}

// Get 获取借用单详情
func (s *LoanService) Get(ctx context.Context, id string) (*entity.Loan, error) {
	return s.loanRepo.FindByID(ctx, id)
}

// List 分页查询借用单
func (s *LoanService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*LoanListResult, error) {
	items, total, err := s.loanRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &LoanListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Approve 批准借用：在同一个事务里锁设备行、复核配额、取得归属权并流转借用单。
// 两个审批人同时批准同一设备的借用时，后到的会在设备状态校验上失败。
func (s *LoanService) Approve(ctx context.Context, id, approverID string) (*entity.Loan, error) {
	var approved *entity.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan entity.Loan
		if err := findForUpdate(tx, id, &loan); err != nil {
			return err
		}
		if !validTransition(entity.ValidLoanTransitions, loan.Status, entity.LoanStatusApproved) {
			return fmt.Errorf("%w: cannot approve loan in status %s", ErrInvalidState, loan.Status)
		}

		// 持设备行锁期间复核配额，避免并发批准击穿上限
		var active int64
		if err := tx.Model(&entity.Loan{}).
			Where("user_id = ? AND status IN ?", loan.UserID,
				[]string{entity.LoanStatusApproved, entity.LoanStatusOverdue}).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= int64(s.policy.MaxActiveLoans) {
			return fmt.Errorf("%w: user already has %d active loans", ErrLimitExceeded, active)
		}

		eq, err := takeEquipment(tx, loan.EquipmentID, entity.EquipmentStatusOnLoan, entity.LoanableStatuses, "借用批准", approverID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := loan.Status
		loan.Status = entity.LoanStatusApproved
		loan.ApprovedBy = &approverID
		loan.ApprovedAt = &now
		if err := tx.Save(&loan).Error; err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := repository.AppendLog(tx, "loan", loan.ID, "approve", fromStatus, loan.Status, "借用批准: "+eq.Name, approverID); err != nil {
			return err
		}
		approved = &loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject 驳回借用申请。设备状态不受影响。
func (s *LoanService) Reject(ctx context.Context, id, approverID, reason string) (*entity.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(entity.ValidLoanTransitions, loan.Status, entity.LoanStatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject loan in status %s", ErrInvalidState, loan.Status)
	}

	fromStatus := loan.Status
	loan.Status = entity.LoanStatusRejected
	loan.RejectionReason = reason
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}

	s.logRepo.LogActivity(ctx, "loan", loan.ID, "reject", fromStatus, loan.Status, reason, approverID)
	return loan, nil
}

// Return 归还设备。approved 和 overdue 都允许归还；
// 归还时可以重评品相，评为 damaged 的设备释放成 damaged 而不是 available。
func (s *LoanService) Return(ctx context.Context, id, operatorID string, req *ReturnLoanRequest) (*entity.Loan, error) {
	var returned *entity.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan entity.Loan
		if err := findForUpdate(tx, id, &loan); err != nil {
			return err
		}
		if !validTransition(entity.ValidLoanTransitions, loan.Status, entity.LoanStatusReturned) {
			return fmt.Errorf("%w: cannot return loan in status %s", ErrInvalidState, loan.Status)
		}

		releaseTo := entity.EquipmentStatusAvailable
		if req != nil && req.Condition != "" {
			if !entity.ValidConditions[req.Condition] {
				return fmt.Errorf("%w: unknown condition %q", ErrInvalidState, req.Condition)
			}
			if err := tx.Model(&entity.Equipment{}).
				Where("id = ?", loan.EquipmentID).
				Update("condition", req.Condition).Error; err != nil {
				return err
			}
			if req.Condition == entity.ConditionDamaged {
				releaseTo = entity.EquipmentStatusDamaged
			}
		}

		if err := releaseEquipment(tx, loan.EquipmentID, entity.EquipmentStatusOnLoan, releaseTo, "借用归还", operatorID); err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := loan.Status
		loan.Status = entity.LoanStatusReturned
		loan.ActualReturnDate = &now
		if req != nil && req.Notes != "" {
			loan.Notes = req.Notes
		}
		if err := tx.Save(&loan).Error; err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := repository.AppendLog(tx, "loan", loan.ID, "return", fromStatus, loan.Status, "", operatorID); err != nil {
			return err
		}
		returned = &loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

// MarkOverdue 逾期扫描：把已批准且应还日期早于今天的借用单流转成 overdue。
// 单条失败不影响其他记录，返回成功流转的条数。
// 写入带 status 守卫：扫描间隙被归还的借用单不会被改回 overdue。
func (s *LoanService) MarkOverdue(ctx context.Context) (int, []error) {
	loans, err := s.loanRepo.FindApprovedDueBefore(ctx, s.clock.Today())
	if err != nil {
		return 0, []error{err}
	}

	var marked int
	var errs []error
	for i := range loans {
		loan := &loans[i]
		result := s.db.WithContext(ctx).Model(&entity.Loan{}).
			Where("id = ? AND status = ?", loan.ID, entity.LoanStatusApproved).
			Update("status", entity.LoanStatusOverdue)
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("loan %s: %w", loan.ID, result.Error))
			continue
		}
		if result.RowsAffected == 0 {
			continue
		}
		s.logRepo.LogActivity(ctx, "loan", loan.ID, "mark_overdue", entity.LoanStatusApproved, entity.LoanStatusOverdue, "", "system")
		marked++
	}
	return marked, errs
}

// Export 导出借用单列表为xlsx
func (s *LoanService) Export(ctx context.Context, filters map[string]string) (*excelize.File, error) {
	loans, err := s.loanRepo.ListAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Loans"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "设备编码", "设备名称", "借用人", "状态", "申请时间", "应还日期", "实还时间", "备注"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, loan := range loans {
		eqCode, eqName := "", ""
		if loan.Equipment != nil {
			eqCode = loan.Equipment.Code
			eqName = loan.Equipment.Name
		}
		actual := ""
		if loan.ActualReturnDate != nil {
			actual = loan.ActualReturnDate.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			loan.ID,
			eqCode,
			eqName,
			loan.UserID,
			loan.Status,
			loan.RequestedAt.Format("2006-01-02 15:04"),
			loan.ExpectedReturnDate.Format("2006-01-02"),
			actual,
			loan.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}
