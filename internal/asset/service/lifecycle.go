package service

import (
	"errors"
	"fmt"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 设备归属协调：同一台设备同一时刻最多被一个流程持有。
// 所有改设备状态的写入都必须走这里的两个助手，并且在同一个事务里：
// 先 lockEquipment 拿行锁，校验通过后 setEquipmentStatus 落状态和日志。

// lockEquipment 在事务内对设备行加 FOR UPDATE 锁后读取。
// 锁会一直持有到事务提交，期间其他流程的校验会排队等待。
func lockEquipment(tx *gorm.DB, equipmentID string) (*entity.Equipment, error) {
	var eq entity.Equipment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", equipmentID).
		First(&eq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &eq, nil
}

// setEquipmentStatus 在事务内写设备状态，并在同一事务里落一条操作日志。
func setEquipmentStatus(tx *gorm.DB, eq *entity.Equipment, toStatus, content, operatorID string) error {
	fromStatus := eq.Status
	eq.Status = toStatus
	if err := tx.Model(&entity.Equipment{}).
		Where("id = ?", eq.ID).
		Update("status", toStatus).Error; err != nil {
		return fmt.Errorf("update equipment status: %w", err)
	}
	return repository.AppendLog(tx, "equipment", eq.ID, "status_change", fromStatus, toStatus, content, operatorID)
}

// takeEquipment 获取设备归属权：校验设备处于调用方允许的状态后改成目标状态。
// 借用/预约只接受 available，维修/维保还接受 damaged。
// 校验和写入发生在持锁事务内，两个并发流程不可能同时通过校验。
func takeEquipment(tx *gorm.DB, equipmentID, toStatus string, allowed map[string]bool, content, operatorID string) (*entity.Equipment, error) {
	eq, err := lockEquipment(tx, equipmentID)
	if err != nil {
		return nil, err
	}
	if !allowed[eq.Status] {
		return nil, fmt.Errorf("%w: equipment %s is %s", ErrResourceUnavailable, eq.Code, eq.Status)
	}
	if err := setEquipmentStatus(tx, eq, toStatus, content, operatorID); err != nil {
		return nil, err
	}
	return eq, nil
}

// findForUpdate 在事务内按主键加锁读取流程单据，
// 保证状态前置校验和后续写入落在同一个原子单元里。
func findForUpdate(tx *gorm.DB, id string, out interface{}) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

// releaseEquipment 归还设备归属权。只有设备还处于本流程写入的状态时才释放，
// 避免误把其他流程已经接手的设备改回 available。
func releaseEquipment(tx *gorm.DB, equipmentID, ownedStatus, toStatus, content, operatorID string) error {
	eq, err := lockEquipment(tx, equipmentID)
	if err != nil {
		return err
	}
	if eq.Status != ownedStatus {
		return nil
	}
	return setEquipmentStatus(tx, eq, toStatus, content, operatorID)
}

// validTransition 状态机流转校验
func validTransition(transitions map[string][]string, from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
