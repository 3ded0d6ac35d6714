package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"gorm.io/gorm"
)

// ReservationRepository 预约单仓库
type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// FindByID 根据ID查找预约单
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var res entity.Reservation
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// Create 创建预约单
func (r *ReservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// Update 更新预约单
func (r *ReservationRepository) Update(ctx context.Context, res *entity.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

// List 分页查询预约单列表
func (r *ReservationRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Reservation, int64, error) {
	var items []entity.Reservation
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Reservation{})

	if userID := filters["user_id"]; userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Equipment").
		Order("start_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// FindOverlapping 冲突检测：查找该设备上与 [start, end] 闭区间重叠、
// 且仍在竞争时段（pending/approved/active）的预约单。纯查询，无副作用。
// excludeID 用于复核已有预约时把自己排除在外。
func (r *ReservationRepository) FindOverlapping(ctx context.Context, equipmentID string, start, end time.Time, excludeID string) ([]entity.Reservation, error) {
	return FindOverlappingReservations(r.db.WithContext(ctx), equipmentID, start, end, excludeID, entity.ReservationCompetingStatuses)
}

// FindOverlappingReservations 冲突检测的事务内版本，竞争状态集由调用方给定。
// 批准前复核必须跑在持有设备行锁的事务句柄上，否则复核结果可能已过期。
// 闭区间重叠判定：start1 <= end2 AND start2 <= end1。
func FindOverlappingReservations(db *gorm.DB, equipmentID string, start, end time.Time, excludeID string, statuses []string) ([]entity.Reservation, error) {
	var items []entity.Reservation
	query := db.
		Where("equipment_id = ? AND status IN ?", equipmentID, statuses).
		Where("start_date <= ? AND ? <= end_date", entity.DateOnly(end), entity.DateOnly(start))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Order("start_date ASC").Find(&items).Error
	return items, err
}

// CountCompetingByUser 统计用户当前仍在竞争时段的预约数
func (r *ReservationRepository) CountCompetingByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Reservation{}).
		Where("user_id = ? AND status IN ?", userID, entity.ReservationCompetingStatuses).
		Count(&count).Error
	return count, err
}

// FindApprovedStartedBefore 查找已批准但起始日已过、未激活的预约单（过期扫描用）
func (r *ReservationRepository) FindApprovedStartedBefore(ctx context.Context, day time.Time) ([]entity.Reservation, error) {
	var items []entity.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date < ?", entity.ReservationStatusApproved, entity.DateOnly(day)).
		Find(&items).Error
	return items, err
}
