package entity

import "time"

// User 用户（由统一认证下发，这里只保留展示和关联所需的最小字段）
type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Username string `json:"username" gorm:"size:100;uniqueIndex"`
	Name     string `json:"name" gorm:"size:100"`
	Email    string `json:"email" gorm:"size:200"`
	Status   string `json:"status" gorm:"size:20;default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
