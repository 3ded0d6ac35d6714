package entity

import "time"

// Equipment 设备台账
type Equipment struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"` // EQ-2026-0001
	Name     string `json:"name" gorm:"size:200;not null"`
	Category string `json:"category" gorm:"size:100"`

	// Condition 是静态的品相评级，和流程状态无关
	Condition string `json:"condition" gorm:"size:20;default:good"` // excellent/good/fair/poor/damaged
	// Status 是动态的归属状态，只允许各流程在事务内修改
	Status   string `json:"status" gorm:"size:20;default:available;index"` // available/on_loan/reserved/maintenance/damaged/retired
	Location string `json:"location" gorm:"size:200"`

	Notes     string     `json:"notes" gorm:"type:text"`
	RetiredAt *time.Time `json:"retired_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Equipment) TableName() string {
	return "equipments"
}

// 设备状态
const (
	EquipmentStatusAvailable   = "available"
	EquipmentStatusOnLoan      = "on_loan"
	EquipmentStatusReserved    = "reserved"
	EquipmentStatusMaintenance = "maintenance"
	EquipmentStatusDamaged     = "damaged"
	EquipmentStatusRetired     = "retired"
)

// 设备品相
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionDamaged   = "damaged"
)

// ValidEquipmentStatuses 合法设备状态集合
var ValidEquipmentStatuses = map[string]bool{
	EquipmentStatusAvailable:   true,
	EquipmentStatusOnLoan:      true,
	EquipmentStatusReserved:    true,
	EquipmentStatusMaintenance: true,
	EquipmentStatusDamaged:     true,
	EquipmentStatusRetired:     true,
}

// ValidConditions 合法品相集合
var ValidConditions = map[string]bool{
	ConditionExcellent: true,
	ConditionGood:      true,
	ConditionFair:      true,
	ConditionPoor:      true,
	ConditionDamaged:   true,
}

// UnownedStatuses 没有流程持有设备的状态
var UnownedStatuses = map[string]bool{
	EquipmentStatusAvailable: true,
	EquipmentStatusDamaged:   true,
}

// LoanableStatuses 借用/预约流程允许取得归属权的状态。
// 故障设备只能进维修或维保，不能借出。
var LoanableStatuses = map[string]bool{
	EquipmentStatusAvailable: true,
}
