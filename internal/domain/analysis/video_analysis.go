package analysis

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VideoAnalysis is the durable record of one fully processed video submission.
type VideoAnalysis struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	VideoPath *string   `gorm:"column:video_path" json:"video_path,omitempty"`

	SkillLevel   string   `gorm:"column:skill_level;not null" json:"skill_level"`
	AverageScore *float64 `gorm:"column:average_score" json:"average_score,omitempty"`
	Summary      string   `gorm:"column:summary;type:text" json:"summary"`

	DetailedFeedbacks  datatypes.JSON `gorm:"column:detailed_feedbacks" json:"detailed_feedbacks"`
	TechniqueAnalysis  datatypes.JSON `gorm:"column:technique_analysis" json:"technique_analysis"`
	ShotAnalysis       datatypes.JSON `gorm:"column:shot_analysis" json:"shot_analysis"`
	PerformanceMetrics datatypes.JSON `gorm:"column:performance_metrics" json:"performance_metrics"`
	Recommendations    datatypes.JSON `gorm:"column:recommendations" json:"recommendations"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VideoAnalysis) TableName() string { return "video_analysis" }
