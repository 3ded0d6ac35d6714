package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"gorm.io/gorm"
)

// EquipmentRepository 设备仓库
type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// FindByID 根据ID查找设备
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*entity.Equipment, error) {
	var eq entity.Equipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&eq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &eq, nil
}

// Create 创建设备
func (r *EquipmentRepository) Create(ctx context.Context, eq *entity.Equipment) error {
	return r.db.WithContext(ctx).Create(eq).Error
}

// Update 更新设备
func (r *EquipmentRepository) Update(ctx context.Context, eq *entity.Equipment) error {
	return r.db.WithContext(ctx).Save(eq).Error
}

// List 分页查询设备列表
func (r *EquipmentRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Equipment, int64, error) {
	var items []entity.Equipment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Equipment{})

	if keyword := filters["keyword"]; keyword != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if category := filters["category"]; category != "" {
		query = query.Where("category = ?", category)
	}
	if condition := filters["condition"]; condition != "" {
		query = query.Where("condition = ?", condition)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// CountByStatus 按状态统计设备数量
func (r *EquipmentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Equipment{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, rr := range rows {
		result[rr.Status] = rr.Count
	}
	return result, nil
}

// GenerateCode 生成设备编码。年份由调用方传入，时间读取统一走服务层时钟。
func (r *EquipmentRepository) GenerateCode(ctx context.Context, year int) (string, error) {
	var seq int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('equipment_code_seq')").Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EQ-%d-%04d", year, seq), nil
}
