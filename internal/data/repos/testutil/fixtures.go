package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/pickleball-backend/internal/domain"
)

// LessonSeed describes one lesson created by SeedCourse.
type LessonSeed struct {
	Title string
	Skill types.SkillType
	Level types.Level
	Order int
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, level types.Level, lessons ...LessonSeed) *types.Course {
	tb.Helper()
	c := &types.Course{
		Title:         title,
		Description:   title + " description",
		CourseURL:     "https://courses.example.com/" + title,
		LevelRequired: level,
	}
	if err := tx.WithContext(ctx).Omit("Lessons").Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	for i, ls := range lessons {
		lvl := ls.Level
		if lvl == "" {
			lvl = level
		}
		order := ls.Order
		if order == 0 {
			order = i + 1
		}
		l := SeedLesson(tb, ctx, tx, c.ID, ls.Title, ls.Skill, lvl, order)
		c.Lessons = append(c.Lessons, *l)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID int64, title string, skill types.SkillType, level types.Level, order int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:            uuid.New(),
		CourseID:      courseID,
		Title:         title,
		SkillType:     skill,
		Level:         level,
		OrderInCourse: order,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedLearner(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string, level types.Level) *types.Learner {
	tb.Helper()
	l := &types.Learner{
		UserID:     userID,
		SkillLevel: level.String(),
		Goals:      datatypes.JSON([]byte(`["Improve technique"]`)),
		Progress:   "0%",
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed learner: %v", err)
	}
	return l
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID string, lessonID uuid.UUID, completed bool) *types.LearnerProgress {
	tb.Helper()
	p := &types.LearnerProgress{
		LearnerID:   learnerID,
		LessonID:    lessonID,
		IsCompleted: completed,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}
