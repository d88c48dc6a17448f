package domain

import (
	"github.com/yungbote/pickleball-backend/internal/domain/analysis"
	"github.com/yungbote/pickleball-backend/internal/domain/learning"
	"github.com/yungbote/pickleball-backend/internal/domain/user"
)

type Level = learning.Level
type SkillType = learning.SkillType

const (
	LevelBeginner     = learning.LevelBeginner
	LevelIntermediate = learning.LevelIntermediate
	LevelAdvanced     = learning.LevelAdvanced
)

const (
	SkillForehand = learning.SkillForehand
	SkillBackhand = learning.SkillBackhand
	SkillServe    = learning.SkillServe
	SkillDink     = learning.SkillDink
	SkillBalance  = learning.SkillBalance
	SkillGrip     = learning.SkillGrip
	SkillFootwork = learning.SkillFootwork
	SkillStrategy = learning.SkillStrategy
)

func ParseLevel(s string) Level { return learning.ParseLevel(s) }

func KnownLevel(s string) bool { return learning.KnownLevel(s) }

func ShotSkillType(shot string) (SkillType, bool) { return learning.ShotSkillType(shot) }

func IssueSkillType(issue string) (SkillType, bool) { return learning.IssueSkillType(issue) }

type Course = learning.Course
type Lesson = learning.Lesson
type LearnerProgress = learning.LearnerProgress

type Learner = user.Learner

type VideoAnalysis = analysis.VideoAnalysis
type VideoLessonRecommendation = analysis.VideoLessonRecommendation

// Models lists every table owned or read by the service, in migration order.
func Models() []any {
	return []any{
		&Learner{},
		&Course{},
		&Lesson{},
		&LearnerProgress{},
		&VideoAnalysis{},
		&VideoLessonRecommendation{},
	}
}
