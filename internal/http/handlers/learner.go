package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pickleball-backend/internal/http/response"
	"github.com/yungbote/pickleball-backend/internal/platform/apierr"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
	"github.com/yungbote/pickleball-backend/internal/services"
)

type LearnerHandler struct {
	log      *logger.Logger
	learners services.LearnerService
}

func NewLearnerHandler(log *logger.Logger, learners services.LearnerService) *LearnerHandler {
	return &LearnerHandler{
		log:      log.With("handler", "LearnerHandler"),
		learners: learners,
	}
}

// GET /api/learners/:userId
func (h *LearnerHandler) GetLearner(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	learner, err := h.learners.Get(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		h.log.Error("GetLearner failed", "error", err, "user_id", userID)
		response.RespondAPIError(c, apierr.FromPipeline(err))
		return
	}
	if learner == nil {
		response.RespondError(c, http.StatusNotFound, "learner_not_found", errors.New("learner not found"))
		return
	}
	response.RespondOK(c, gin.H{"learner": learner})
}
