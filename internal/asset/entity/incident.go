package entity

import "time"

// Incident 故障报修单
type Incident struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	EquipmentID string `json:"equipment_id" gorm:"size:32;not null;index"`

	Title       string `json:"title" gorm:"size:200;not null"`
	Description string `json:"description" gorm:"type:text"`
	Priority    string `json:"priority" gorm:"size:20;default:medium"` // low/medium/high/critical
	Status      string `json:"status" gorm:"size:20;default:reported;index"` // reported/in_review/in_repair/resolved/closed

	ReportedBy string  `json:"reported_by" gorm:"size:32;not null"`
	AssignedTo *string `json:"assigned_to" gorm:"size:32"`

	ResolutionNotes string     `json:"resolution_notes" gorm:"type:text"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ClosedAt        *time.Time `json:"closed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (Incident) TableName() string {
	return "incidents"
}

// 报修单状态
const (
	IncidentStatusReported = "reported"
	IncidentStatusInReview = "in_review"
	IncidentStatusInRepair = "in_repair"
	IncidentStatusResolved = "resolved"
	IncidentStatusClosed   = "closed"
)

// 报修优先级
const (
	IncidentPriorityLow      = "low"
	IncidentPriorityMedium   = "medium"
	IncidentPriorityHigh     = "high"
	IncidentPriorityCritical = "critical"
)

// IncidentPriorityRank 优先级排序权重，数值越大越紧急
var IncidentPriorityRank = map[string]int{
	IncidentPriorityLow:      1,
	IncidentPriorityMedium:   2,
	IncidentPriorityHigh:     3,
	IncidentPriorityCritical: 4,
}

// ValidIncidentTransitions 合法的报修单状态流转。
// reopen 的目标状态取决于是否仍有维修人，见 IncidentService.Reopen。
var ValidIncidentTransitions = map[string][]string{
	IncidentStatusReported: {IncidentStatusInReview},
	IncidentStatusInReview: {IncidentStatusReported, IncidentStatusInRepair, IncidentStatusResolved},
	IncidentStatusInRepair: {IncidentStatusResolved},
	IncidentStatusResolved: {IncidentStatusClosed},
	IncidentStatusClosed:   {IncidentStatusReported, IncidentStatusInReview},
}

// IncidentOpenStatuses 未关闭的报修单状态
var IncidentOpenStatuses = []string{
	IncidentStatusReported,
	IncidentStatusInReview,
	IncidentStatusInRepair,
}
