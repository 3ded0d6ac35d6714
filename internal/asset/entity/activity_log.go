package entity

import "time"

// ActivityLog 操作日志：每一次状态流转落一条审计记录
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // equipment/loan/reservation/incident/maintenance
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_activity_entity"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/approve/reject/status_change/return/...
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content string `json:"content" gorm:"type:text"`

	OperatorID   string    `json:"operator_id" gorm:"size:32"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
