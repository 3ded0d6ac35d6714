package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationService 预约单服务
type ReservationService struct {
	db              *gorm.DB
	reservationRepo *repository.ReservationRepository
	equipmentRepo   *repository.EquipmentRepository
	loanRepo        *repository.LoanRepository
	logRepo         *repository.ActivityLogRepository
	policy          config.PolicyConfig
	clock           Clock
}

// NewReservationService 创建预约服务
func NewReservationService(db *gorm.DB, repos *repository.Repositories, policy config.PolicyConfig, clock Clock) *ReservationService {
	return &ReservationService{
		db:              db,
		reservationRepo: repos.Reservation,
		equipmentRepo:   repos.Equipment,
		loanRepo:        repos.Loan,
		logRepo:         repos.ActivityLog,
		policy:          policy,
		clock:           clock,
	}
}

// CreateReservationRequest 创建预约请求
type CreateReservationRequest struct {
	EquipmentID string    `json:"equipment_id" binding:"required"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	Notes       string    `json:"notes"`
}

// ReservationListResult 预约单列表结果
type ReservationListResult struct {
	Items      []entity.Reservation `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// validateRange 区间校验：start <= end、start 不在过去、跨度不超上限
func (s *ReservationService) validateRange(start, end time.Time) (time.Time, time.Time, error) {
	start = entity.DateOnly(start)
	end = entity.DateOnly(end)
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: end date before start date", ErrInvalidRange)
	}
	if start.Before(s.clock.Today()) {
		return start, end, fmt.Errorf("%w: start date is in the past", ErrInvalidRange)
	}
	if span := entity.SpanDays(start, end); span > s.policy.MaxReservationDays {
		return start, end, fmt.Errorf("%w: span %d days exceeds limit of %d", ErrInvalidRange, span, s.policy.MaxReservationDays)
	}
	return start, end, nil
}

// Create 创建预约。创建时就做冲突检测，和任何竞争中的预约重叠即拒绝。
func (s *ReservationService) Create(ctx context.Context, userID string, req *CreateReservationRequest) (*entity.Reservation, error) {
	start, end, err := s.validateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	eq, err := s.equipmentRepo.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	if eq.Status == entity.EquipmentStatusRetired {
		return nil, fmt.Errorf("%w: equipment %s is retired", ErrResourceUnavailable, eq.Code)
	}

	competing, err := s.reservationRepo.CountCompetingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if competing >= int64(s.policy.MaxActiveReservations) {
		return nil, fmt.Errorf("%w: user already has %d active reservations", ErrLimitExceeded, competing)
	}

	overlapping, err := s.reservationRepo.FindOverlapping(ctx, req.EquipmentID, start, end, "")
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, conflictError(overlapping)
	}

	res := &entity.Reservation{
		ID:          uuid.New().String()[:32],
		EquipmentID: req.EquipmentID,
		UserID:      userID,
		Status:      entity.ReservationStatusPending,
		StartDate:   start,
		EndDate:     end,
		Notes:       req.Notes,
	}
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logRepo.LogActivity(ctx, "reservation", res.ID, "create", "", res.Status,
		fmt.Sprintf("预约 %s: %s ~ %s", eq.Name, start.Format("2006-01-02"), end.Format("2006-01-02")), userID)
	return res, nil
}

// conflictError 把冲突的预约单拼进错误信息，方便前端提示占用时段
func conflictError(overlapping []entity.Reservation) error {
	parts := make([]string, 0, len(overlapping))
	for _, o := range overlapping {
		parts = append(parts, fmt.Sprintf("%s~%s", o.StartDate.Format("2006-01-02"), o.EndDate.Format("2006-01-02")))
	}
	return fmt.Errorf("%w: overlaps with %s", ErrConflict, strings.Join(parts, ", "))
}

// Get 获取预约单详情
func (s *ReservationService) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	return s.reservationRepo.FindByID(ctx, id)
}

// List 分页查询预约单
func (s *ReservationService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*ReservationListResult, error) {
	items, total, err := s.reservationRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &ReservationListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// CheckAvailability 查询设备在给定区间内的占用情况
func (s *ReservationService) CheckAvailability(ctx context.Context, equipmentID string, start, end time.Time) ([]entity.Reservation, error) {
	start = entity.DateOnly(start)
	end = entity.DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidRange)
	}
	return s.reservationRepo.FindOverlapping(ctx, equipmentID, start, end, "")
}

// Approve 批准预约：持设备行锁复核冲突后流转。
// 只和已批准/已激活的预约比，两张重叠的待审预约里先批的赢。
// 批准不改设备状态，设备要到激活时才被预约流程持有。
func (s *ReservationService) Approve(ctx context.Context, id, approverID string) (*entity.Reservation, error) {
	var approved *entity.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res entity.Reservation
		if err := findForUpdate(tx, id, &res); err != nil {
			return err
		}
		if !validTransition(entity.ValidReservationTransitions, res.Status, entity.ReservationStatusApproved) {
			return fmt.Errorf("%w: cannot approve reservation in status %s", ErrInvalidState, res.Status)
		}

		eq, err := lockEquipment(tx, res.EquipmentID)
		if err != nil {
			return err
		}
		if eq.Status == entity.EquipmentStatusRetired {
			return fmt.Errorf("%w: equipment %s is retired", ErrResourceUnavailable, eq.Code)
		}

		overlapping, err := repository.FindOverlappingReservations(tx, res.EquipmentID, res.StartDate, res.EndDate, res.ID,
			[]string{entity.ReservationStatusApproved, entity.ReservationStatusActive})
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return conflictError(overlapping)
		}

		now := s.clock.Now()
		fromStatus := res.Status
		res.Status = entity.ReservationStatusApproved
		res.ApprovedBy = &approverID
		res.ApprovedAt = &now
		if err := tx.Save(&res).Error; err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if err := repository.AppendLog(tx, "reservation", res.ID, "approve", fromStatus, res.Status, "预约批准: "+eq.Name, approverID); err != nil {
			return err
		}
		approved = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject 驳回预约
func (s *ReservationService) Reject(ctx context.Context, id, approverID, reason string) (*entity.Reservation, error) {
	res, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(entity.ValidReservationTransitions, res.Status, entity.ReservationStatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject reservation in status %s", ErrInvalidState, res.Status)
	}

	fromStatus := res.Status
	res.Status = entity.ReservationStatusRejected
	res.RejectionReason = reason
	if err := s.reservationRepo.Update(ctx, res); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}

	s.logRepo.LogActivity(ctx, "reservation", res.ID, "reject", fromStatus, res.Status, reason, approverID)
	return res, nil
}

// Cancel 取消预约。pending 和 approved 都可以取消，激活后只能走完成。
func (s *ReservationService) Cancel(ctx context.Context, id, operatorID, reason string) (*entity.Reservation, error) {
	res, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(entity.ValidReservationTransitions, res.Status, entity.ReservationStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel reservation in status %s", ErrInvalidState, res.Status)
	}

	fromStatus := res.Status
	res.Status = entity.ReservationStatusCancelled
	res.CancellationReason = reason
	if err := s.reservationRepo.Update(ctx, res); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}

	s.logRepo.LogActivity(ctx, "reservation", res.ID, "cancel", fromStatus, res.Status, reason, operatorID)
	return res, nil
}

// Activate 领取预约：只能在起始日当天激活，激活时取得设备归属权。
func (s *ReservationService) Activate(ctx context.Context, id, operatorID string) (*entity.Reservation, error) {
	var activated *entity.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res entity.Reservation
		if err := findForUpdate(tx, id, &res); err != nil {
			return err
		}
		if !validTransition(entity.ValidReservationTransitions, res.Status, entity.ReservationStatusActive) {
			return fmt.Errorf("%w: cannot activate reservation in status %s", ErrInvalidState, res.Status)
		}
		if !s.clock.Today().Equal(res.StartDate) {
			return fmt.Errorf("%w: reservation starts on %s", ErrInvalidState, res.StartDate.Format("2006-01-02"))
		}

		eq, err := takeEquipment(tx, res.EquipmentID, entity.EquipmentStatusReserved, entity.LoanableStatuses, "预约领取", operatorID)
		if err != nil {
			return err
		}

		fromStatus := res.Status
		res.Status = entity.ReservationStatusActive
		if err := tx.Save(&res).Error; err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if err := repository.AppendLog(tx, "reservation", res.ID, "activate", fromStatus, res.Status, "预约领取: "+eq.Name, operatorID); err != nil {
			return err
		}
		activated = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

// Complete 完成预约并释放设备。只有设备仍处于 reserved 时才会释放，
// 防止重复完成把别的流程已接手的设备改回 available。
func (s *ReservationService) Complete(ctx context.Context, id, operatorID string) (*entity.Reservation, error) {
	var completed *entity.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res entity.Reservation
		if err := findForUpdate(tx, id, &res); err != nil {
			return err
		}
		if !validTransition(entity.ValidReservationTransitions, res.Status, entity.ReservationStatusCompleted) {
			return fmt.Errorf("%w: cannot complete reservation in status %s", ErrInvalidState, res.Status)
		}

		if res.Status == entity.ReservationStatusActive {
			if err := releaseEquipment(tx, res.EquipmentID, entity.EquipmentStatusReserved, entity.EquipmentStatusAvailable, "预约完成", operatorID); err != nil {
				return err
			}
		}

		fromStatus := res.Status
		res.Status = entity.ReservationStatusCompleted
		if err := tx.Save(&res).Error; err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if err := repository.AppendLog(tx, "reservation", res.ID, "complete", fromStatus, res.Status, "", operatorID); err != nil {
			return err
		}
		completed = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// ConvertToLoan 预约转借用：在一个事务里创建已批准的借用单、完成预约并把
// 设备流转到 on_loan。已激活的预约直接移交归属权，已批准的在起始日当天取得归属权。
func (s *ReservationService) ConvertToLoan(ctx context.Context, id, operatorID string) (*entity.Loan, error) {
	var loan *entity.Loan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res entity.Reservation
		if err := findForUpdate(tx, id, &res); err != nil {
			return err
		}
		if res.Status != entity.ReservationStatusActive && res.Status != entity.ReservationStatusApproved {
			return fmt.Errorf("%w: cannot convert reservation in status %s", ErrInvalidState, res.Status)
		}

		eq, err := lockEquipment(tx, res.EquipmentID)
		if err != nil {
			return err
		}
		switch res.Status {
		case entity.ReservationStatusActive:
			// 设备已被本预约持有，归属权移交给借用流程
			if eq.Status != entity.EquipmentStatusReserved {
				return fmt.Errorf("%w: equipment %s is %s", ErrResourceUnavailable, eq.Code, eq.Status)
			}
		case entity.ReservationStatusApproved:
			if !s.clock.Today().Equal(res.StartDate) {
				return fmt.Errorf("%w: reservation starts on %s", ErrInvalidState, res.StartDate.Format("2006-01-02"))
			}
			if !entity.LoanableStatuses[eq.Status] {
				return fmt.Errorf("%w: equipment %s is %s", ErrResourceUnavailable, eq.Code, eq.Status)
			}
		}
		if err := setEquipmentStatus(tx, eq, entity.EquipmentStatusOnLoan, "预约转借用", operatorID); err != nil {
			return err
		}

		now := s.clock.Now()
		newLoan := &entity.Loan{
			ID:                 uuid.New().String()[:32],
			EquipmentID:        res.EquipmentID,
			UserID:             res.UserID,
			Status:             entity.LoanStatusApproved,
			RequestedAt:        now,
			ApprovedBy:         &operatorID,
			ApprovedAt:         &now,
			ExpectedReturnDate: res.EndDate,
			Notes:              "converted from reservation " + res.ID,
		}
		if err := tx.Create(newLoan).Error; err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		fromStatus := res.Status
		res.Status = entity.ReservationStatusCompleted
		res.ConvertedLoanID = &newLoan.ID
		if err := tx.Save(&res).Error; err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}

		if err := repository.AppendLog(tx, "reservation", res.ID, "convert_to_loan", fromStatus, res.Status, "转借用单 "+newLoan.ID, operatorID); err != nil {
			return err
		}
		if err := repository.AppendLog(tx, "loan", newLoan.ID, "create", "", newLoan.Status, "由预约 "+res.ID+" 转入", operatorID); err != nil {
			return err
		}
		loan = newLoan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ExpireStale 过期扫描：已批准但起始日已过且未领取的预约流转为 expired。
// 单条失败不影响其他记录。
// 写入带 status 守卫：扫描间隙被领取或转借用的预约不会被改成 expired。
func (s *ReservationService) ExpireStale(ctx context.Context) (int, []error) {
	stale, err := s.reservationRepo.FindApprovedStartedBefore(ctx, s.clock.Today())
	if err != nil {
		return 0, []error{err}
	}

	var expired int
	var errs []error
	for i := range stale {
		res := &stale[i]
		result := s.db.WithContext(ctx).Model(&entity.Reservation{}).
			Where("id = ? AND status = ?", res.ID, entity.ReservationStatusApproved).
			Update("status", entity.ReservationStatusExpired)
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("reservation %s: %w", res.ID, result.Error))
			continue
		}
		if result.RowsAffected == 0 {
			continue
		}
		s.logRepo.LogActivity(ctx, "reservation", res.ID, "expire", entity.ReservationStatusApproved, entity.ReservationStatusExpired, "", "system")
		expired++
	}
	return expired, errs
}
