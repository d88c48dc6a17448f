package learning

import (
	"time"

	"github.com/google/uuid"
)

type Lesson struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID      int64     `gorm:"column:course_id;not null;index" json:"course_id"`
	Title         string    `gorm:"column:title;not null" json:"title"`
	Description   string    `gorm:"column:description;type:text" json:"description,omitempty"`
	VideoURL      string    `gorm:"column:video_url" json:"video_url,omitempty"`
	SkillType     SkillType `gorm:"column:skill_type;index:idx_lesson_skill_level,priority:1" json:"skill_type"`
	Level         Level     `gorm:"column:level;not null;index:idx_lesson_skill_level,priority:2" json:"level"`
	OrderInCourse int       `gorm:"column:order_in_course;not null;default:0" json:"order_in_course"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }
