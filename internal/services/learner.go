package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/data/repos"
	types "github.com/yungbote/pickleball-backend/internal/domain"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

// LearnerService exposes learner profiles. It never changes skill level; that happens only
// through the response interpreter.
type LearnerService interface {
	Get(dbc dbctx.Context, userID string) (*types.Learner, error)
	FindOrCreate(dbc dbctx.Context, userID string) (*types.Learner, error)
}

type learnerService struct {
	db       *gorm.DB
	log      *logger.Logger
	learners repos.LearnerRepo
}

func NewLearnerService(db *gorm.DB, log *logger.Logger, learners repos.LearnerRepo) LearnerService {
	return &learnerService{
		db:       db,
		log:      log.With("service", "LearnerService"),
		learners: learners,
	}
}

func (s *learnerService) Get(dbc dbctx.Context, userID string) (*types.Learner, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perrors.Validation("learner.get", "user id is required")
	}
	l, err := s.learners.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return l, nil
}

func (s *learnerService) FindOrCreate(dbc dbctx.Context, userID string) (*types.Learner, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, perrors.Validation("learner.find_or_create", "user id is required")
	}
	l, err := s.learners.FindOrCreate(dbc, userID)
	if err != nil {
		return nil, perrors.Persistence("learner.find_or_create", err)
	}
	if l == nil {
		return nil, perrors.Persistence("learner.find_or_create", fmt.Errorf("learner %q missing after insert", userID))
	}
	return l, nil
}
