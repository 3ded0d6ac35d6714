package service

import (
	"context"
	"testing"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/testutil"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		MaxActiveLoans:         3,
		MaxActiveReservations:  3,
		MaxReservationDays:     30,
		PreventiveIntervalDays: 90,
		LoanDefaultDays:        7,
	}
}

func setupServices(t *testing.T) (*Services, *gorm.DB, *FixedClock) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	clock := &FixedClock{T: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)}
	cfg := &config.Config{Policy: testPolicy()}
	svcs := NewServices(db, repos, nil, cfg, clock, zap.NewNop())
	return svcs, db, clock
}

func seedEquipment(t *testing.T, db *gorm.DB, id string) *entity.Equipment {
	t.Helper()
	return testutil.SeedTestEquipment(t, db, id, "设备 "+id)
}

func equipmentStatus(t *testing.T, db *gorm.DB, id string) string {
	t.Helper()
	var eq entity.Equipment
	if err := db.Where("id = ?", id).First(&eq).Error; err != nil {
		t.Fatalf("load equipment %s: %v", id, err)
	}
	return eq.Status
}

func countActivity(t *testing.T, db *gorm.DB, entityType, entityID, action string) int64 {
	t.Helper()
	var n int64
	db.Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ? AND action = ?", entityType, entityID, action).
		Count(&n)
	return n
}

func ctxb() context.Context {
	return context.Background()
}
