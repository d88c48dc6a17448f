package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/data/repos/analysis"
	"github.com/yungbote/pickleball-backend/internal/data/repos/learning"
	"github.com/yungbote/pickleball-backend/internal/data/repos/user"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type LearnerRepo = user.LearnerRepo

type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type LearnerProgressRepo = learning.LearnerProgressRepo

type VideoAnalysisRepo = analysis.VideoAnalysisRepo
type VideoLessonRecommendationRepo = analysis.VideoLessonRecommendationRepo

func NewLearnerRepo(db *gorm.DB, baseLog *logger.Logger) LearnerRepo {
	return user.NewLearnerRepo(db, baseLog)
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewLearnerProgressRepo(db *gorm.DB, baseLog *logger.Logger) LearnerProgressRepo {
	return learning.NewLearnerProgressRepo(db, baseLog)
}

func NewVideoAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) VideoAnalysisRepo {
	return analysis.NewVideoAnalysisRepo(db, baseLog)
}
func NewVideoLessonRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) VideoLessonRecommendationRepo {
	return analysis.NewVideoLessonRecommendationRepo(db, baseLog)
}
