package user

import (
	"time"

	"gorm.io/datatypes"
)

// Learner is the pickleball profile attached 1:1 to a user identity.
type Learner struct {
	UserID     string         `gorm:"column:user_id;primaryKey" json:"user_id"`
	SkillLevel string         `gorm:"column:skill_level;not null" json:"skill_level"`
	Goals      datatypes.JSON `gorm:"column:goals" json:"goals,omitempty"`
	Progress   string         `gorm:"column:progress" json:"progress,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Learner) TableName() string { return "learner" }
