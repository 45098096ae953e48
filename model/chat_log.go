package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatLog records one exchange with the upstream completion API.
type ChatLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Prompt    string         `gorm:"type:text;not null" json:"prompt"`
	Answer    string         `gorm:"type:text" json:"answer"`
	Params    datatypes.JSON `json:"params,omitempty"` // generation parameters as sent upstream

	User User `gorm:"foreignKey:UserID" json:"-"`
}
