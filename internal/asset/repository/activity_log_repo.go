package repository

import (
	"context"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create 创建操作日志
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的操作日志
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// LogActivity 便捷记录操作日志（独立于业务事务，忽略错误）
func (r *ActivityLogRepository) LogActivity(ctx context.Context, entityType, entityID, action, fromStatus, toStatus, content, operatorID string) {
	log := &entity.ActivityLog{
		ID:         uuid.New().String()[:32],
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Content:    content,
		OperatorID: operatorID,
	}
	r.db.WithContext(ctx).Create(log)
}

// AppendLog 在给定事务句柄上落一条操作日志。
// 和设备状态联动的流转必须用这个版本，保证日志和状态写在同一事务里。
func AppendLog(tx *gorm.DB, entityType, entityID, action, fromStatus, toStatus, content, operatorID string) error {
	log := &entity.ActivityLog{
		ID:         uuid.New().String()[:32],
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Content:    content,
		OperatorID: operatorID,
	}
	return tx.Create(log).Error
}
