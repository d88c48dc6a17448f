package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	"github.com/yungbote/pickleball-backend/internal/domain/learning"
	"github.com/yungbote/pickleball-backend/internal/http/response"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
	"github.com/yungbote/pickleball-backend/internal/services"
)

type CourseHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewCourseHandler(log *logger.Logger, catalog services.CatalogService) *CourseHandler {
	return &CourseHandler{
		log:     log.With("handler", "CourseHandler"),
		catalog: catalog,
	}
}

// GET /api/courses?level=Beginner
func (h *CourseHandler) ListCourses(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	var (
		courses []*types.Course
		err     error
	)
	if raw := strings.TrimSpace(c.Query("level")); raw != "" {
		if !learning.KnownLevel(raw) {
			response.RespondError(c, http.StatusBadRequest, "invalid_level", errors.New("level must be Beginner, Intermediate or Advanced"))
			return
		}
		courses, err = h.catalog.ListCoursesByLevel(dbc, learning.ParseLevel(raw))
	} else {
		courses, err = h.catalog.ListCourses(dbc)
	}
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_courses_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	course, err := h.catalog.GetCourse(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		h.log.Error("GetCourse failed", "error", err, "course_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_course_failed", err)
		return
	}
	if course == nil {
		response.RespondError(c, http.StatusNotFound, "course_not_found", errors.New("course not found"))
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// GET /api/courses/:id/lessons
func (h *CourseHandler) ListCourseLessons(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	lessons, err := h.catalog.ListLessonsByCourse(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		h.log.Error("ListCourseLessons failed", "error", err, "course_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_lessons_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

func courseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", errors.New("invalid course id"))
		return 0, false
	}
	return id, true
}
