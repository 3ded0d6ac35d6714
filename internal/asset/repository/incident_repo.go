package repository

import (
	"context"
	"errors"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"gorm.io/gorm"
)

// IncidentRepository 报修单仓库
type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// FindByID 根据ID查找报修单
func (r *IncidentRepository) FindByID(ctx context.Context, id string) (*entity.Incident, error) {
	var inc entity.Incident
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&inc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inc, nil
}

// Create 创建报修单
func (r *IncidentRepository) Create(ctx context.Context, inc *entity.Incident) error {
	return r.db.WithContext(ctx).Create(inc).Error
}

// Update 更新报修单
func (r *IncidentRepository) Update(ctx context.Context, inc *entity.Incident) error {
	return r.db.WithContext(ctx).Save(inc).Error
}

// List 分页查询报修单列表
func (r *IncidentRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Incident, int64, error) {
	var items []entity.Incident
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Incident{})

	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := filters["priority"]; priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if assignedTo := filters["assigned_to"]; assignedTo != "" {
		query = query.Where("assigned_to = ?", assignedTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Equipment").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// CountOpen 统计未关闭的报修单数
func (r *IncidentRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Incident{}).
		Where("status IN ?", entity.IncidentOpenStatuses).
		Count(&count).Error
	return count, err
}

// CountOpenByEquipment 统计设备上未关闭的报修单数
func (r *IncidentRepository) CountOpenByEquipment(ctx context.Context, equipmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Incident{}).
		Where("equipment_id = ? AND status IN ?", equipmentID, entity.IncidentOpenStatuses).
		Count(&count).Error
	return count, err
}
