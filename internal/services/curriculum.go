package services

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/data/repos"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

const (
	maxRecommendedLessons = 6
	minRecommendedLessons = 3
)

// CurriculumService recommends individual lessons, as opposed to the course-grained list
// attached to an analysis.
type CurriculumService interface {
	// RecommendFromAnalysis ranks lessons for the weakest shots at skillLevel, then level lessons,
	// then Beginner lessons when fewer than three were found. At most six are returned.
	RecommendFromAnalysis(dbc dbctx.Context, learnerID string, skillLevel types.Level, weakestShots []string) ([]*types.Lesson, error)
	// LatestRecommendedLessons resolves the lessons stored by the learner's newest analysis,
	// falling back to unfinished lessons and then to the first lesson of any course.
	LatestRecommendedLessons(dbc dbctx.Context, learnerID string) ([]*types.Lesson, error)
}

type curriculumService struct {
	db       *gorm.DB
	log      *logger.Logger
	lessons  repos.LessonRepo
	progress repos.LearnerProgressRepo
	latest   repos.VideoLessonRecommendationRepo
}

func NewCurriculumService(
	db *gorm.DB,
	log *logger.Logger,
	lessons repos.LessonRepo,
	progress repos.LearnerProgressRepo,
	latest repos.VideoLessonRecommendationRepo,
) CurriculumService {
	return &curriculumService{
		db:       db,
		log:      log.With("service", "CurriculumService"),
		lessons:  lessons,
		progress: progress,
		latest:   latest,
	}
}

type lessonPicker struct {
	out  []*types.Lesson
	seen map[uuid.UUID]bool
}

func (p *lessonPicker) add(ls []*types.Lesson) {
	for _, l := range ls {
		if len(p.out) >= maxRecommendedLessons {
			return
		}
		if l == nil || p.seen[l.ID] {
			continue
		}
		p.seen[l.ID] = true
		p.out = append(p.out, l)
	}
}

func (p *lessonPicker) full() bool { return len(p.out) >= maxRecommendedLessons }

func (s *curriculumService) RecommendFromAnalysis(dbc dbctx.Context, learnerID string, skillLevel types.Level, weakestShots []string) ([]*types.Lesson, error) {
	level := types.ParseLevel(skillLevel.String())
	p := &lessonPicker{seen: map[uuid.UUID]bool{}}

	for _, shot := range weakestShots {
		if p.full() {
			break
		}
		skill, ok := types.ShotSkillType(shot)
		if !ok {
			continue
		}
		ls, err := s.lessons.ListBySkillAndLevel(dbc, skill, level)
		if err != nil {
			return nil, fmt.Errorf("lessons for %s/%s: %w", skill, level, err)
		}
		p.add(ls)
	}

	if !p.full() {
		ls, err := s.lessons.ListByLevel(dbc, level)
		if err != nil {
			return nil, fmt.Errorf("lessons for level %s: %w", level, err)
		}
		p.add(ls)
	}

	if len(p.out) < minRecommendedLessons && level != types.LevelBeginner {
		ls, err := s.lessons.ListByLevel(dbc, types.LevelBeginner)
		if err != nil {
			return nil, fmt.Errorf("beginner lessons: %w", err)
		}
		p.add(ls)
	}

	s.log.Debug("Lessons recommended from analysis",
		"user_id", learnerID,
		"skill_level", level,
		"weakest_shots", weakestShots,
		"count", len(p.out),
	)
	return p.out, nil
}

func (s *curriculumService) LatestRecommendedLessons(dbc dbctx.Context, learnerID string) ([]*types.Lesson, error) {
	learnerID = strings.TrimSpace(learnerID)

	rec, err := s.latest.FindLatestByUser(dbc, learnerID)
	if err != nil {
		return nil, fmt.Errorf("latest recommendation: %w", err)
	}
	if rec != nil {
		ids := decodeLessonIDs(rec.RecommendedLessonIDs)
		if len(ids) > 0 {
			ls, err := s.lessons.GetByIDs(dbc, ids)
			if err != nil {
				return nil, fmt.Errorf("recommended lessons: %w", err)
			}
			if len(ls) > 0 {
				return ls, nil
			}
		}
	}

	progress, err := s.progress.ListIncomplete(dbc, learnerID)
	if err != nil {
		return nil, fmt.Errorf("incomplete progress: %w", err)
	}
	out := make([]*types.Lesson, 0, len(progress))
	for _, pr := range progress {
		if pr.Lesson != nil {
			out = append(out, pr.Lesson)
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	first, err := s.lessons.FirstCourseLesson(dbc)
	if err != nil {
		return nil, fmt.Errorf("first course lesson: %w", err)
	}
	if first == nil {
		s.log.Warn("No lesson available to recommend", "user_id", learnerID)
		return []*types.Lesson{}, nil
	}
	return []*types.Lesson{first}, nil
}

// decodeLessonIDs skips entries that are not valid uuids.
func decodeLessonIDs(raw []byte) []uuid.UUID {
	if len(raw) == 0 {
		return nil
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(strs))
	for _, s := range strs {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func lessonIDsJSON(ls []*types.Lesson) ([]byte, error) {
	ids := make([]string, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.ID.String())
	}
	return json.Marshal(ids)
}
