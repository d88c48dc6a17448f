package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/data/repos"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

// LatestRecommendation is a user's cached lesson recommendation with its lessons resolved.
type LatestRecommendation struct {
	Record  *types.VideoLessonRecommendation `json:"record"`
	Lessons []*types.Lesson                  `json:"lessons"`
}

type AnalysisQueryService interface {
	GetAnalysis(dbc dbctx.Context, id uuid.UUID) (*types.VideoAnalysis, error)
	ListUserAnalyses(dbc dbctx.Context, userID string) ([]*types.VideoAnalysis, error)
	// LatestRecommendation returns (nil, nil) when the user has no analysis yet.
	LatestRecommendation(dbc dbctx.Context, userID string) (*LatestRecommendation, error)
}

type analysisQueryService struct {
	db       *gorm.DB
	log      *logger.Logger
	analyses repos.VideoAnalysisRepo
	latest   repos.VideoLessonRecommendationRepo
	lessons  repos.LessonRepo
}

func NewAnalysisQueryService(
	db *gorm.DB,
	log *logger.Logger,
	analyses repos.VideoAnalysisRepo,
	latest repos.VideoLessonRecommendationRepo,
	lessons repos.LessonRepo,
) AnalysisQueryService {
	return &analysisQueryService{
		db:       db,
		log:      log.With("service", "AnalysisQueryService"),
		analyses: analyses,
		latest:   latest,
		lessons:  lessons,
	}
}

func (s *analysisQueryService) GetAnalysis(dbc dbctx.Context, id uuid.UUID) (*types.VideoAnalysis, error) {
	row, err := s.analyses.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return row, nil
}

func (s *analysisQueryService) ListUserAnalyses(dbc dbctx.Context, userID string) ([]*types.VideoAnalysis, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perrors.Validation("analysis.list", "user id is required")
	}
	rows, err := s.analyses.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return rows, nil
}

func (s *analysisQueryService) LatestRecommendation(dbc dbctx.Context, userID string) (*LatestRecommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perrors.Validation("analysis.latest_recommendation", "user id is required")
	}
	rec, err := s.latest.FindLatestByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("latest recommendation: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	lessons, err := s.lessons.GetByIDs(dbc, decodeLessonIDs(rec.RecommendedLessonIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve recommended lessons: %w", err)
	}
	return &LatestRecommendation{Record: rec, Lessons: lessons}, nil
}
