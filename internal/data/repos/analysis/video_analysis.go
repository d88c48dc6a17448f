package analysis

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type VideoAnalysisRepo interface {
	Create(dbc dbctx.Context, row *types.VideoAnalysis) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoAnalysis, error)
	// ListByUser returns the user's analyses, newest first.
	ListByUser(dbc dbctx.Context, userID string) ([]*types.VideoAnalysis, error)
}

type videoAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) VideoAnalysisRepo {
	return &videoAnalysisRepo{db: db, log: baseLog.With("repo", "VideoAnalysisRepo")}
}

func (r *videoAnalysisRepo) Create(dbc dbctx.Context, row *types.VideoAnalysis) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return dbc.DB(r.db).Create(row).Error
}

func (r *videoAnalysisRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoAnalysis, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.VideoAnalysis
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *videoAnalysisRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.VideoAnalysis, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []*types.VideoAnalysis{}, nil
	}
	var out []*types.VideoAnalysis
	err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
