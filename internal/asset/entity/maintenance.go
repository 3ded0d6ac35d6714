package entity

import "time"

// Maintenance 维保工单
type Maintenance struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	EquipmentID string `json:"equipment_id" gorm:"size:32;not null;index"`

	Type     string `json:"type" gorm:"size:30;not null"` // preventive/corrective/cleaning/software_update/calibration/inspection
	Title    string `json:"title" gorm:"size:200;not null"`
	Priority string `json:"priority" gorm:"size:20;default:medium"`
	Status   string `json:"status" gorm:"size:20;default:scheduled;index"` // scheduled/in_progress/completed/cancelled

	Description string `json:"description" gorm:"type:text"`

	ScheduledDate       time.Time  `json:"scheduled_date" gorm:"not null;index"`
	StartDate           *time.Time `json:"start_date"`
	CompletionDate      *time.Time `json:"completion_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`

	ActionsTaken  string   `json:"actions_taken" gorm:"type:text"`
	Cost          *float64 `json:"cost" gorm:"type:decimal(12,2)"`
	PartsReplaced string   `json:"parts_replaced" gorm:"size:500"`
	CancelReason  string   `json:"cancel_reason" gorm:"size:500"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (Maintenance) TableName() string {
	return "maintenances"
}

// 维保状态
const (
	MaintenanceStatusScheduled  = "scheduled"
	MaintenanceStatusInProgress = "in_progress"
	MaintenanceStatusCompleted  = "completed"
	MaintenanceStatusCancelled  = "cancelled"
)

// 维保类型
const (
	MaintenanceTypePreventive     = "preventive"
	MaintenanceTypeCorrective     = "corrective"
	MaintenanceTypeCleaning       = "cleaning"
	MaintenanceTypeSoftwareUpdate = "software_update"
	MaintenanceTypeCalibration    = "calibration"
	MaintenanceTypeInspection     = "inspection"
)

// ValidMaintenanceTypes 合法维保类型集合
var ValidMaintenanceTypes = map[string]bool{
	MaintenanceTypePreventive:     true,
	MaintenanceTypeCorrective:     true,
	MaintenanceTypeCleaning:       true,
	MaintenanceTypeSoftwareUpdate: true,
	MaintenanceTypeCalibration:    true,
	MaintenanceTypeInspection:     true,
}

// ValidMaintenanceTransitions 合法的维保工单状态流转
var ValidMaintenanceTransitions = map[string][]string{
	MaintenanceStatusScheduled:  {MaintenanceStatusInProgress, MaintenanceStatusCompleted, MaintenanceStatusCancelled},
	MaintenanceStatusInProgress: {MaintenanceStatusCompleted, MaintenanceStatusCancelled},
}

// DaysUntilScheduled 距离计划日期的天数，带符号：负数表示已逾期
func (m *Maintenance) DaysUntilScheduled(today time.Time) int {
	return int(DateOnly(m.ScheduledDate).Sub(DateOnly(today)).Hours() / 24)
}
