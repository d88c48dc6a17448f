package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VideoLessonRecommendation caches the lesson recommendation produced by a user's newest analysis.
// There is at most one row per user.
type VideoLessonRecommendation struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	VideoAnalysisID uuid.UUID `gorm:"type:uuid;column:video_analysis_id;not null;index" json:"video_analysis_id"`

	SkillLevel           string         `gorm:"column:skill_level;not null" json:"skill_level"`
	AverageScore         *float64       `gorm:"column:average_score" json:"average_score,omitempty"`
	WeakestShots         datatypes.JSON `gorm:"column:weakest_shots" json:"weakest_shots"`
	RecommendedLessonIDs datatypes.JSON `gorm:"column:recommended_lesson_ids" json:"recommended_lesson_ids"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VideoLessonRecommendation) TableName() string { return "video_lesson_recommendation" }
