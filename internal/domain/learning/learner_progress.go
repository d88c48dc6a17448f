package learning

import (
	"time"

	"github.com/google/uuid"
)

// LearnerProgress tracks a learner's completion of a single lesson.
type LearnerProgress struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID   string    `gorm:"column:learner_id;not null;index" json:"learner_id"`
	LessonID    uuid.UUID `gorm:"type:uuid;column:lesson_id;not null;index" json:"lesson_id"`
	Lesson      *Lesson   `gorm:"foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	IsCompleted bool      `gorm:"column:is_completed;not null;default:false" json:"is_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LearnerProgress) TableName() string { return "learner_progress" }
