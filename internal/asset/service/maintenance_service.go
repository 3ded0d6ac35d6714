package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaintenanceService 维保工单服务
type MaintenanceService struct {
	db              *gorm.DB
	maintenanceRepo *repository.MaintenanceRepository
	equipmentRepo   *repository.EquipmentRepository
	logRepo         *repository.ActivityLogRepository
	policy          config.PolicyConfig
	clock           Clock
}

// NewMaintenanceService 创建维保服务
func NewMaintenanceService(db *gorm.DB, repos *repository.Repositories, policy config.PolicyConfig, clock Clock) *MaintenanceService {
	return &MaintenanceService{
		db:              db,
		maintenanceRepo: repos.Maintenance,
		equipmentRepo:   repos.Equipment,
		logRepo:         repos.ActivityLog,
		policy:          policy,
		clock:           clock,
	}
}

// ScheduleMaintenanceRequest 排期请求
type ScheduleMaintenanceRequest struct {
	EquipmentID   string    `json:"equipment_id" binding:"required"`
	Type          string    `json:"type" binding:"required"`
	Title         string    `json:"title" binding:"required"`
	Priority      string    `json:"priority"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	Description   string    `json:"description"`
}

// CompleteMaintenanceRequest 完修请求
type CompleteMaintenanceRequest struct {
	ActionsTaken  string   `json:"actions_taken"`
	Cost          *float64 `json:"cost"`
	PartsReplaced string   `json:"parts_replaced"`
	Condition     string   `json:"condition"` // 维保后品相，可空
}

// MaintenanceListResult 维保工单列表结果
type MaintenanceListResult struct {
	Items      []entity.Maintenance `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// Schedule 排期维保。排期不占用设备，开始执行时才取得归属权。
func (s *MaintenanceService) Schedule(ctx context.Context, operatorID string, req *ScheduleMaintenanceRequest) (*entity.Maintenance, error) {
	if !entity.ValidMaintenanceTypes[req.Type] {
		return nil, fmt.Errorf("%w: unknown maintenance type %q", ErrInvalidState, req.Type)
	}

	eq, err := s.equipmentRepo.FindByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	if eq.Status == entity.EquipmentStatusRetired {
		return nil, fmt.Errorf("%w: equipment %s is retired", ErrResourceUnavailable, eq.Code)
	}

	priority := req.Priority
	if priority == "" {
		priority = entity.IncidentPriorityMedium
	}

	m := &entity.Maintenance{
		ID:            uuid.New().String()[:32],
		EquipmentID:   req.EquipmentID,
		Type:          req.Type,
		Title:         req.Title,
		Priority:      priority,
		Status:        entity.MaintenanceStatusScheduled,
		Description:   req.Description,
		ScheduledDate: entity.DateOnly(req.ScheduledDate),
		CreatedBy:     operatorID,
	}
	if err := s.maintenanceRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create maintenance: %w", err)
	}

	s.logRepo.LogActivity(ctx, "maintenance", m.ID, "create", "", m.Status,
		fmt.Sprintf("%s 维保排期 %s", req.Type, m.ScheduledDate.Format("2006-01-02")), operatorID)
	return m, nil
}

// Get 获取维保工单详情
func (s *MaintenanceService) Get(ctx context.Context, id string) (*entity.Maintenance, error) {
	return s.maintenanceRepo.FindByID(ctx, id)
}

// List 分页查询维保工单
func (s *MaintenanceService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*MaintenanceListResult, error) {
	items, total, err := s.maintenanceRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list maintenances: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &MaintenanceListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Start 开始执行维保：scheduled -> in_progress，取得设备归属权
func (s *MaintenanceService) Start(ctx context.Context, id, operatorID string) (*entity.Maintenance, error) {
	var started *entity.Maintenance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m entity.Maintenance
		if err := findForUpdate(tx, id, &m); err != nil {
			return err
		}
		if !validTransition(entity.ValidMaintenanceTransitions, m.Status, entity.MaintenanceStatusInProgress) {
			return fmt.Errorf("%w: cannot start maintenance in status %s", ErrInvalidState, m.Status)
		}

		eq, err := takeEquipment(tx, m.EquipmentID, entity.EquipmentStatusMaintenance, entity.UnownedStatuses, "维保执行: "+m.Title, operatorID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := m.Status
		m.Status = entity.MaintenanceStatusInProgress
		m.StartDate = &now
		if err := tx.Save(&m).Error; err != nil {
			return fmt.Errorf("update maintenance: %w", err)
		}
		if err := repository.AppendLog(tx, "maintenance", m.ID, "start", fromStatus, m.Status, "开始维保: "+eq.Name, operatorID); err != nil {
			return err
		}
		started = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// Complete 完成维保。执行中的工单释放设备；排期中的工单可以直接记完成
// （线下已做完补录），此时设备状态不动。预防性维保完成后自动生成下一期工单。
func (s *MaintenanceService) Complete(ctx context.Context, id, operatorID string, req *CompleteMaintenanceRequest) (*entity.Maintenance, error) {
	var completed *entity.Maintenance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m entity.Maintenance
		if err := findForUpdate(tx, id, &m); err != nil {
			return err
		}
		if !validTransition(entity.ValidMaintenanceTransitions, m.Status, entity.MaintenanceStatusCompleted) {
			return fmt.Errorf("%w: cannot complete maintenance in status %s", ErrInvalidState, m.Status)
		}
		wasInProgress := m.Status == entity.MaintenanceStatusInProgress

		if req.Condition != "" {
			if !entity.ValidConditions[req.Condition] {
				return fmt.Errorf("%w: unknown condition %q", ErrInvalidState, req.Condition)
			}
			if err := tx.Model(&entity.Equipment{}).
				Where("id = ?", m.EquipmentID).
				Update("condition", req.Condition).Error; err != nil {
				return err
			}
		}

		if wasInProgress {
			if err := releaseEquipment(tx, m.EquipmentID, entity.EquipmentStatusMaintenance, entity.EquipmentStatusAvailable, "维保完成", operatorID); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		fromStatus := m.Status
		m.Status = entity.MaintenanceStatusCompleted
		m.CompletionDate = &now
		m.ActionsTaken = req.ActionsTaken
		m.Cost = req.Cost
		m.PartsReplaced = req.PartsReplaced

		// 预防性维保按固定周期滚动：完成即排下一期
		if m.Type == entity.MaintenanceTypePreventive {
			next := entity.DateOnly(now).AddDate(0, 0, s.policy.PreventiveIntervalDays)
			m.NextMaintenanceDate = &next

			followUp := &entity.Maintenance{
				ID:            uuid.New().String()[:32],
				EquipmentID:   m.EquipmentID,
				Type:          entity.MaintenanceTypePreventive,
				Title:         m.Title,
				Priority:      m.Priority,
				Status:        entity.MaintenanceStatusScheduled,
				Description:   m.Description,
				ScheduledDate: next,
				CreatedBy:     "system",
			}
			if err := tx.Create(followUp).Error; err != nil {
				return fmt.Errorf("create follow-up maintenance: %w", err)
			}
			if err := repository.AppendLog(tx, "maintenance", followUp.ID, "create", "", followUp.Status,
				"预防性维保自动排期 "+next.Format("2006-01-02"), "system"); err != nil {
				return err
			}
		}

		if err := tx.Save(&m).Error; err != nil {
			return fmt.Errorf("update maintenance: %w", err)
		}
		if err := repository.AppendLog(tx, "maintenance", m.ID, "complete", fromStatus, m.Status, req.ActionsTaken, operatorID); err != nil {
			return err
		}
		completed = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Cancel 取消维保。执行中取消会释放设备。
func (s *MaintenanceService) Cancel(ctx context.Context, id, operatorID, reason string) (*entity.Maintenance, error) {
	var cancelled *entity.Maintenance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m entity.Maintenance
		if err := findForUpdate(tx, id, &m); err != nil {
			return err
		}
		if !validTransition(entity.ValidMaintenanceTransitions, m.Status, entity.MaintenanceStatusCancelled) {
			return fmt.Errorf("%w: cannot cancel maintenance in status %s", ErrInvalidState, m.Status)
		}

		if m.Status == entity.MaintenanceStatusInProgress {
			if err := releaseEquipment(tx, m.EquipmentID, entity.EquipmentStatusMaintenance, entity.EquipmentStatusAvailable, "维保取消", operatorID); err != nil {
				return err
			}
		}

		fromStatus := m.Status
		m.Status = entity.MaintenanceStatusCancelled
		m.CancelReason = reason
		if err := tx.Save(&m).Error; err != nil {
			return fmt.Errorf("update maintenance: %w", err)
		}
		if err := repository.AppendLog(tx, "maintenance", m.ID, "cancel", fromStatus, m.Status, reason, operatorID); err != nil {
			return err
		}
		cancelled = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}
