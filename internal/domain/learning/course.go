package learning

import "time"

type Course struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string `gorm:"column:title;not null" json:"title"`
	Description   string `gorm:"column:description;type:text" json:"description,omitempty"`
	CourseURL     string `gorm:"column:course_url" json:"course_url,omitempty"`
	ThumbnailURL  string `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	LevelRequired Level  `gorm:"column:level_required;not null;index" json:"level_required"`

	Lessons []Lesson `gorm:"foreignKey:CourseID;references:ID" json:"lessons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string { return "course" }

// HasSkill reports whether any lesson of the course trains skill.
func (c *Course) HasSkill(skill SkillType) bool {
	for i := range c.Lessons {
		if c.Lessons[i].SkillType == skill {
			return true
		}
	}
	return false
}
