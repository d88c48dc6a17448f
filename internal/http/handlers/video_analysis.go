package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pickleball-backend/internal/http/response"
	"github.com/yungbote/pickleball-backend/internal/platform/apierr"
	"github.com/yungbote/pickleball-backend/internal/platform/ctxutil"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
	"github.com/yungbote/pickleball-backend/internal/services"
)

// multipartSlack covers form fields and part headers on top of the video itself.
const multipartSlack int64 = 1 << 20

// Upload failures reach the caller with these fixed messages; the cause is only logged.
var (
	errInvalidForm     = errors.New("invalid multipart form")
	errUnreadableVideo = errors.New("could not read uploaded video")
)

type VideoAnalysisHandler struct {
	log      *logger.Logger
	pipeline services.VideoAnalysisService
	queries  services.AnalysisQueryService
}

func NewVideoAnalysisHandler(log *logger.Logger, pipeline services.VideoAnalysisService, queries services.AnalysisQueryService) *VideoAnalysisHandler {
	return &VideoAnalysisHandler{
		log:      log.With("handler", "VideoAnalysisHandler"),
		pipeline: pipeline,
		queries:  queries,
	}
}

type analysisResponse struct {
	*services.Result
	Code string `json:"code,omitempty"`
}

// POST /api/ai/full-analysis
func (h *VideoAnalysisHandler) FullAnalysis(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxVideoBytes+multipartSlack)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeResult(c, &services.Result{
				Status:  services.ResultFailed,
				Message: "video exceeds the 100 MiB limit",
			}, apierr.New(http.StatusBadRequest, "invalid_submission", nil))
			return
		}
		h.log.Warn("FullAnalysis: multipart parse failed", "error", err)
		response.RespondError(c, http.StatusBadRequest, "invalid_form", errInvalidForm)
		return
	}
	if form := c.Request.MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
	}

	sub := services.Submission{
		UserID:            c.Request.FormValue("userId"),
		SelfAssessedLevel: c.Request.FormValue("selfAssessedLevel"),
	}
	ctxutil.SetUserID(c.Request.Context(), strings.TrimSpace(sub.UserID))

	if fh := firstFile(c.Request.MultipartForm, "video"); fh != nil {
		f, err := fh.Open()
		if err != nil {
			h.log.Error("FullAnalysis: open upload failed", "error", err, "file_name", fh.Filename)
			response.RespondError(c, http.StatusBadRequest, "invalid_video", errUnreadableVideo)
			return
		}
		defer f.Close()
		video, contentType, err := sniffContentType(f, fh.Header.Get("Content-Type"))
		if err != nil {
			h.log.Error("FullAnalysis: read upload failed", "error", err, "file_name", fh.Filename)
			response.RespondError(c, http.StatusBadRequest, "invalid_video", errUnreadableVideo)
			return
		}
		sub.Video = video
		sub.FileName = fh.Filename
		sub.Size = fh.Size
		sub.ContentType = contentType
	}

	res, err := h.pipeline.Analyze(c.Request.Context(), sub)
	h.writeResult(c, res, apierr.FromPipeline(err))
}

func (h *VideoAnalysisHandler) writeResult(c *gin.Context, res *services.Result, aerr *apierr.Error) {
	if res == nil {
		res = &services.Result{Status: services.ResultFailed, Message: apierr.GenericMessage}
	}
	if aerr == nil {
		c.JSON(http.StatusOK, analysisResponse{Result: res})
		return
	}
	status := aerr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, analysisResponse{Result: res, Code: aerr.Code})
}

// GET /api/ai/analyses/:id
func (h *VideoAnalysisHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_analysis_id", errors.New("invalid analysis id"))
		return
	}
	analysis, err := h.queries.GetAnalysis(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		h.log.Error("GetAnalysis failed", "error", err, "analysis_id", id)
		response.RespondAPIError(c, apierr.FromPipeline(err))
		return
	}
	if analysis == nil {
		response.RespondError(c, http.StatusNotFound, "analysis_not_found", errors.New("analysis not found"))
		return
	}
	response.RespondOK(c, gin.H{"analysis": analysis})
}

// GET /api/ai/analyses/user/:userId
func (h *VideoAnalysisHandler) ListUserAnalyses(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	analyses, err := h.queries.ListUserAnalyses(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		h.log.Error("ListUserAnalyses failed", "error", err, "user_id", userID)
		response.RespondAPIError(c, apierr.FromPipeline(err))
		return
	}
	response.RespondOK(c, gin.H{"analyses": analyses})
}

// GET /api/ai/analyses/user/:userId/latest-recommendation
func (h *VideoAnalysisHandler) LatestRecommendation(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	latest, err := h.queries.LatestRecommendation(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		h.log.Error("LatestRecommendation failed", "error", err, "user_id", userID)
		response.RespondAPIError(c, apierr.FromPipeline(err))
		return
	}
	if latest == nil {
		response.RespondError(c, http.StatusNotFound, "recommendation_not_found", errors.New("no analysis recorded for user"))
		return
	}
	response.RespondOK(c, gin.H{
		"recommendation": latest.Record,
		"lessons":        latest.Lessons,
	})
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// sniffContentType trusts the part header unless it is missing or generic, in which
// case the first 512 bytes decide. The returned reader replays the sniffed bytes.
func sniffContentType(r io.Reader, declared string) (io.Reader, string, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return r, declared, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), http.DetectContentType(head), nil
}
