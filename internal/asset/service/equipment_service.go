package service

import (
	"context"
	"fmt"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EquipmentService 设备台账服务
type EquipmentService struct {
	db              *gorm.DB
	equipmentRepo   *repository.EquipmentRepository
	loanRepo        *repository.LoanRepository
	reservationRepo *repository.ReservationRepository
	incidentRepo    *repository.IncidentRepository
	maintenanceRepo *repository.MaintenanceRepository
	logRepo         *repository.ActivityLogRepository
	clock           Clock
}

// NewEquipmentService 创建设备服务
func NewEquipmentService(db *gorm.DB, repos *repository.Repositories, clock Clock) *EquipmentService {
	return &EquipmentService{
		db:              db,
		equipmentRepo:   repos.Equipment,
		loanRepo:        repos.Loan,
		reservationRepo: repos.Reservation,
		incidentRepo:    repos.Incident,
		maintenanceRepo: repos.Maintenance,
		logRepo:         repos.ActivityLog,
		clock:           clock,
	}
}

// CreateEquipmentRequest 创建设备请求
type CreateEquipmentRequest struct {
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

// UpdateEquipmentRequest 更新设备请求
type UpdateEquipmentRequest struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	Condition *string `json:"condition"`
	Location  *string `json:"location"`
	Notes     *string `json:"notes"`
}

// EquipmentListResult 设备列表结果
type EquipmentListResult struct {
	Items      []entity.Equipment `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// Create 创建设备
func (s *EquipmentService) Create(ctx context.Context, operatorID string, req *CreateEquipmentRequest) (*entity.Equipment, error) {
	condition := req.Condition
	if condition == "" {
		condition = entity.ConditionGood
	}
	if !entity.ValidConditions[condition] {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidState, condition)
	}

	code, err := s.equipmentRepo.GenerateCode(ctx, s.clock.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("generate equipment code: %w", err)
	}

	eq := &entity.Equipment{
		ID:        uuid.New().String()[:32],
		Code:      code,
		Name:      req.Name,
		Category:  req.Category,
		Condition: condition,
		Status:    entity.EquipmentStatusAvailable,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	if err := s.equipmentRepo.Create(ctx, eq); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}

	s.logRepo.LogActivity(ctx, "equipment", eq.ID, "create", "", eq.Status, "设备登记: "+eq.Name, operatorID)
	return eq, nil
}

// Get 获取设备详情
func (s *EquipmentService) Get(ctx context.Context, id string) (*entity.Equipment, error) {
	return s.equipmentRepo.FindByID(ctx, id)
}

// List 分页查询设备
func (s *EquipmentService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*EquipmentListResult, error) {
	items, total, err := s.equipmentRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list equipments: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &EquipmentListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update 更新设备基础信息。Status 不在这里改，归属状态只能由各流程驱动。
func (s *EquipmentService) Update(ctx context.Context, id, operatorID string, req *UpdateEquipmentRequest) (*entity.Equipment, error) {
	eq, err := s.equipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		eq.Name = *req.Name
	}
	if req.Category != nil {
		eq.Category = *req.Category
	}
	if req.Condition != nil {
		if !entity.ValidConditions[*req.Condition] {
			return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidState, *req.Condition)
		}
		eq.Condition = *req.Condition
	}
	if req.Location != nil {
		eq.Location = *req.Location
	}
	if req.Notes != nil {
		eq.Notes = *req.Notes
	}

	if err := s.equipmentRepo.Update(ctx, eq); err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	return eq, nil
}

// Retire 报废设备。设备必须空闲且没有任何未完结的流程挂在上面。
func (s *EquipmentService) Retire(ctx context.Context, id, operatorID, reason string) (*entity.Equipment, error) {
	openLoans, err := s.loanRepo.CountOpenByEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if openLoans > 0 {
		return nil, fmt.Errorf("%w: equipment has open loans", ErrInvalidState)
	}

	now := s.clock.Today()
	pending, err := s.reservationRepo.FindOverlapping(ctx, id, now, now.AddDate(10, 0, 0), "")
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: equipment has upcoming reservations", ErrInvalidState)
	}

	openIncidents, err := s.incidentRepo.CountOpenByEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if openIncidents > 0 {
		return nil, fmt.Errorf("%w: equipment has open incidents", ErrInvalidState)
	}

	activeMaint, err := s.maintenanceRepo.CountActiveByEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if activeMaint > 0 {
		return nil, fmt.Errorf("%w: equipment has active maintenance", ErrInvalidState)
	}

	var retired *entity.Equipment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eq, err := lockEquipment(tx, id)
		if err != nil {
			return err
		}
		if eq.Status == entity.EquipmentStatusRetired {
			return fmt.Errorf("%w: equipment already retired", ErrInvalidState)
		}
		if !entity.UnownedStatuses[eq.Status] {
			return fmt.Errorf("%w: equipment %s is %s", ErrResourceUnavailable, eq.Code, eq.Status)
		}
		if err := setEquipmentStatus(tx, eq, entity.EquipmentStatusRetired, "设备报废: "+reason, operatorID); err != nil {
			return err
		}
		now := s.clock.Now()
		eq.RetiredAt = &now
		if err := tx.Model(&entity.Equipment{}).Where("id = ?", eq.ID).Update("retired_at", now).Error; err != nil {
			return err
		}
		retired = eq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return retired, nil
}

// CountByStatus 按状态统计设备数
func (s *EquipmentService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.equipmentRepo.CountByStatus(ctx)
}

// ListActivity 查询实体的操作日志
func (s *EquipmentService) ListActivity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return s.logRepo.FindByEntity(ctx, entityType, entityID, page, pageSize)
}
