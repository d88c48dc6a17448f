package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pickleball-backend/internal/http/response"
	"github.com/yungbote/pickleball-backend/internal/platform/apierr"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
	"github.com/yungbote/pickleball-backend/internal/services"
)

type LessonHandler struct {
	log        *logger.Logger
	catalog    services.CatalogService
	curriculum services.CurriculumService
}

func NewLessonHandler(log *logger.Logger, catalog services.CatalogService, curriculum services.CurriculumService) *LessonHandler {
	return &LessonHandler{
		log:        log.With("handler", "LessonHandler"),
		catalog:    catalog,
		curriculum: curriculum,
	}
}

// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_id", errors.New("invalid lesson id"))
		return
	}
	lesson, err := h.catalog.GetLesson(dbctx.Context{Ctx: c.Request.Context()}, lessonID)
	if err != nil {
		h.log.Error("GetLesson failed", "error", err, "lesson_id", lessonID)
		response.RespondError(c, http.StatusInternalServerError, "load_lesson_failed", err)
		return
	}
	if lesson == nil {
		response.RespondError(c, http.StatusNotFound, "lesson_not_found", errors.New("lesson not found"))
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// GET /api/learners/:userId/recommended-lessons
func (h *LessonHandler) RecommendedLessons(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	lessons, err := h.curriculum.LatestRecommendedLessons(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		h.log.Error("RecommendedLessons failed", "error", err, "user_id", userID)
		response.RespondAPIError(c, apierr.FromPipeline(err))
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}
