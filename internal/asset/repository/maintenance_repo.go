package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"gorm.io/gorm"
)

// MaintenanceRepository 维保工单仓库
type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// FindByID 根据ID查找维保工单
func (r *MaintenanceRepository) FindByID(ctx context.Context, id string) (*entity.Maintenance, error) {
	var m entity.Maintenance
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create 创建维保工单
func (r *MaintenanceRepository) Create(ctx context.Context, m *entity.Maintenance) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update 更新维保工单
func (r *MaintenanceRepository) Update(ctx context.Context, m *entity.Maintenance) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// List 分页查询维保工单列表
func (r *MaintenanceRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Maintenance, int64, error) {
	var items []entity.Maintenance
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Maintenance{})

	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if mType := filters["type"]; mType != "" {
		query = query.Where("type = ?", mType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Equipment").
		Order("scheduled_date ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// CountScheduledBetween 统计计划日期落在区间内的待执行维保数（看板用）
func (r *MaintenanceRepository) CountScheduledBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Maintenance{}).
		Where("status = ? AND scheduled_date >= ? AND scheduled_date <= ?",
			entity.MaintenanceStatusScheduled, entity.DateOnly(from), entity.DateOnly(to)).
		Count(&count).Error
	return count, err
}

// CountActiveByEquipment 统计设备上未完结的维保工单数
func (r *MaintenanceRepository) CountActiveByEquipment(ctx context.Context, equipmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Maintenance{}).
		Where("equipment_id = ? AND status IN ?", equipmentID,
			[]string{entity.MaintenanceStatusScheduled, entity.MaintenanceStatusInProgress}).
		Count(&count).Error
	return count, err
}
