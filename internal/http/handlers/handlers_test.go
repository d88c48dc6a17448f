package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pickleball-backend/internal/domain"
	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
	"github.com/yungbote/pickleball-backend/internal/platform/dbctx"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
	"github.com/yungbote/pickleball-backend/internal/services"
)

type fakePipeline struct {
	sub  services.Submission
	body []byte
	res  *services.Result
	err  error
}

func (f *fakePipeline) Analyze(_ context.Context, sub services.Submission) (*services.Result, error) {
	f.sub = sub
	if sub.Video != nil {
		f.body, _ = io.ReadAll(sub.Video)
	}
	return f.res, f.err
}

func (f *fakePipeline) Shutdown(context.Context) error { return nil }

type fakeQueries struct {
	analysis *types.VideoAnalysis
	latest   *services.LatestRecommendation
	err      error
}

func (f *fakeQueries) GetAnalysis(dbctx.Context, uuid.UUID) (*types.VideoAnalysis, error) {
	return f.analysis, f.err
}

func (f *fakeQueries) ListUserAnalyses(_ dbctx.Context, userID string) ([]*types.VideoAnalysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.analysis == nil {
		return nil, nil
	}
	return []*types.VideoAnalysis{f.analysis}, nil
}

func (f *fakeQueries) LatestRecommendation(dbctx.Context, string) (*services.LatestRecommendation, error) {
	return f.latest, f.err
}

type fakeCatalog struct {
	courses  []*types.Course
	lessons  []*types.Lesson
	level    types.Level
	byLevel  bool
	notFound bool
}

func (f *fakeCatalog) ListCourses(dbctx.Context) ([]*types.Course, error) { return f.courses, nil }

func (f *fakeCatalog) ListCoursesByLevel(_ dbctx.Context, level types.Level) ([]*types.Course, error) {
	f.byLevel = true
	f.level = level
	return f.courses, nil
}

func (f *fakeCatalog) GetCourse(_ dbctx.Context, id int64) (*types.Course, error) {
	if f.notFound || len(f.courses) == 0 {
		return nil, nil
	}
	return f.courses[0], nil
}

func (f *fakeCatalog) ListLessonsByCourse(dbctx.Context, int64) ([]*types.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeCatalog) GetLesson(dbctx.Context, uuid.UUID) (*types.Lesson, error) {
	if f.notFound || len(f.lessons) == 0 {
		return nil, nil
	}
	return f.lessons[0], nil
}

type fakeCurriculum struct {
	lessons []*types.Lesson
	userID  string
}

func (f *fakeCurriculum) RecommendFromAnalysis(dbctx.Context, string, types.Level, []string) ([]*types.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeCurriculum) LatestRecommendedLessons(_ dbctx.Context, learnerID string) ([]*types.Lesson, error) {
	f.userID = learnerID
	return f.lessons, nil
}

func newTestRouter(t *testing.T, pipeline services.VideoAnalysisService, queries services.AnalysisQueryService, catalog services.CatalogService, curriculum services.CurriculumService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	r := gin.New()
	va := NewVideoAnalysisHandler(log, pipeline, queries)
	r.POST("/api/ai/full-analysis", va.FullAnalysis)
	r.GET("/api/ai/analyses/:id", va.GetAnalysis)
	r.GET("/api/ai/analyses/user/:userId", va.ListUserAnalyses)
	r.GET("/api/ai/analyses/user/:userId/latest-recommendation", va.LatestRecommendation)

	ch := NewCourseHandler(log, catalog)
	r.GET("/api/courses", ch.ListCourses)
	r.GET("/api/courses/:id", ch.GetCourse)
	r.GET("/api/courses/:id/lessons", ch.ListCourseLessons)

	lh := NewLessonHandler(log, catalog, curriculum)
	r.GET("/api/lessons/:id", lh.GetLesson)
	r.GET("/api/learners/:userId/recommended-lessons", lh.RecommendedLessons)
	return r
}

// mp4Head is the smallest prefix net/http sniffs as video/mp4.
var mp4Head = append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)

type formFile struct {
	contentType string
	body        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, video *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if video != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="video"; filename="rally.mp4"`)
		if video.contentType != "" {
			h.Set("Content-Type", video.contentType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(video.body); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/ai/full-analysis", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestFullAnalysisPassesSubmissionThrough(t *testing.T) {
	avg := 82.5
	pipeline := &fakePipeline{res: &services.Result{
		Status:  services.ResultCompleted,
		Message: "Video analysis successful",
		Payload: &services.AnalysisPayload{SkillLevel: "Advanced", AverageScore: &avg},
	}}
	r := newTestRouter(t, pipeline, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})

	req := multipartRequest(t, map[string]string{"userId": "u-1"}, &formFile{contentType: "video/quicktime", body: []byte("frames")})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if pipeline.sub.UserID != "u-1" {
		t.Fatalf("user id: want=%q got=%q", "u-1", pipeline.sub.UserID)
	}
	if pipeline.sub.ContentType != "video/quicktime" {
		t.Fatalf("content type: want=%q got=%q", "video/quicktime", pipeline.sub.ContentType)
	}
	if pipeline.sub.FileName != "rally.mp4" || pipeline.sub.Size != int64(len("frames")) {
		t.Fatalf("file: want=rally.mp4/%d got=%s/%d", len("frames"), pipeline.sub.FileName, pipeline.sub.Size)
	}
	if string(pipeline.body) != "frames" {
		t.Fatalf("video body: want=%q got=%q", "frames", pipeline.body)
	}
	body := decodeBody(t, rec)
	if body["status"] != "completed" {
		t.Fatalf("status field: want=completed got=%v", body["status"])
	}
	data, _ := body["data"].(map[string]any)
	if data["skillLevel"] != "Advanced" {
		t.Fatalf("skillLevel: want=Advanced got=%v", data["skillLevel"])
	}
}

func TestFullAnalysisSniffsGenericContentType(t *testing.T) {
	pipeline := &fakePipeline{res: &services.Result{Status: services.ResultCompleted}}
	r := newTestRouter(t, pipeline, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})

	req := multipartRequest(t, map[string]string{"userId": "u-1"}, &formFile{contentType: "application/octet-stream", body: mp4Head})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if pipeline.sub.ContentType != "video/mp4" {
		t.Fatalf("sniffed content type: want=%q got=%q", "video/mp4", pipeline.sub.ContentType)
	}
	if !bytes.Equal(pipeline.body, mp4Head) {
		t.Fatalf("sniffed body must be replayed: want=%d bytes got=%d", len(mp4Head), len(pipeline.body))
	}
}

func TestFullAnalysisSelfAssessedWithoutVideo(t *testing.T) {
	pipeline := &fakePipeline{res: &services.Result{Status: services.ResultSelfAssessed}}
	r := newTestRouter(t, pipeline, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})

	req := multipartRequest(t, map[string]string{"userId": "u-2", "selfAssessedLevel": "Beginner"}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if pipeline.sub.Video != nil {
		t.Fatalf("video: want=nil got=%T", pipeline.sub.Video)
	}
	if pipeline.sub.SelfAssessedLevel != "Beginner" {
		t.Fatalf("level: want=Beginner got=%q", pipeline.sub.SelfAssessedLevel)
	}
}

func TestFullAnalysisMapsPipelineErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", perrors.Validation("op", "user id is required"), http.StatusBadRequest, "invalid_submission"},
		{"rejection", perrors.Rejection("op", "no player detected"), http.StatusUnprocessableEntity, "analysis_rejected"},
		{"gateway", perrors.Gateway("op", errors.New("dial tcp: refused")), http.StatusBadGateway, "analysis_unavailable"},
		{"malformed", perrors.Malformed("op", "missing sections"), http.StatusInternalServerError, "processing_failed"},
		{"persistence", perrors.Persistence("op", errors.New("disk full")), http.StatusInternalServerError, "processing_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := &fakePipeline{
				res: &services.Result{Status: services.ResultFailed, Message: "Video processing failed"},
				err: tc.err,
			}
			r := newTestRouter(t, pipeline, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, multipartRequest(t, map[string]string{"userId": "u-1"}, &formFile{contentType: "video/mp4", body: mp4Head}))

			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			body := decodeBody(t, rec)
			if body["code"] != tc.code {
				t.Fatalf("code: want=%q got=%v", tc.code, body["code"])
			}
			if body["message"] != "Video processing failed" {
				t.Fatalf("message must come from the result: got=%v", body["message"])
			}
		})
	}
}

func TestFullAnalysisRejectsNonMultipart(t *testing.T) {
	pipeline := &fakePipeline{}
	r := newTestRouter(t, pipeline, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})

	req := httptest.NewRequest(http.MethodPost, "/api/ai/full-analysis", bytes.NewBufferString(`{"userId":"u-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	if pipeline.sub.UserID != "" {
		t.Fatalf("pipeline must not run: got submission for %q", pipeline.sub.UserID)
	}
}

func TestFullAnalysisHidesFormParseErrors(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{"not multipart", "application/json", `{"userId":"u-1"}`},
		{"truncated", "multipart/form-data; boundary=xyz", "--xyz\r\nContent-Disposition: form-data; name=\"userId\"\r\n\r\nu-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := &fakePipeline{}
			r := newTestRouter(t, pipeline, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})

			req := httptest.NewRequest(http.MethodPost, "/api/ai/full-analysis", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
			}
			body := decodeBody(t, rec)
			env, _ := body["error"].(map[string]any)
			if env["code"] != "invalid_form" {
				t.Fatalf("code: want=invalid_form got=%v", env["code"])
			}
			if env["message"] != "invalid multipart form" {
				t.Fatalf("message: want=%q got=%v", "invalid multipart form", env["message"])
			}
		})
	}
}

func TestGetAnalysis(t *testing.T) {
	id := uuid.New()
	r := newTestRouter(t, &fakePipeline{}, &fakeQueries{analysis: &types.VideoAnalysis{ID: id, UserID: "u-1"}}, &fakeCatalog{}, &fakeCurriculum{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/analyses/"+id.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/analyses/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}

	missing := newTestRouter(t, &fakePipeline{}, &fakeQueries{}, &fakeCatalog{}, &fakeCurriculum{})
	rec = httptest.NewRecorder()
	missing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/analyses/"+id.String(), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
}

func TestUserAnalysisRoutesDoNotCollideWithID(t *testing.T) {
	q := &fakeQueries{analysis: &types.VideoAnalysis{ID: uuid.New(), UserID: "u-1"}}
	r := newTestRouter(t, &fakePipeline{}, q, &fakeCatalog{}, &fakeCurriculum{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/analyses/user/u-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	body := decodeBody(t, rec)
	if list, _ := body["analyses"].([]any); len(list) != 1 {
		t.Fatalf("analyses: want=1 got=%v", body["analyses"])
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ai/analyses/user/u-1/latest-recommendation", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("latest without analysis: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
}

func TestListCoursesLevelFilter(t *testing.T) {
	catalog := &fakeCatalog{courses: []*types.Course{{ID: 1, Title: "Dink Fundamentals"}}}
	r := newTestRouter(t, &fakePipeline{}, &fakeQueries{}, catalog, &fakeCurriculum{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses?level=beginner", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if !catalog.byLevel || catalog.level != types.LevelBeginner {
		t.Fatalf("level filter: want=Beginner got=%v (byLevel=%v)", catalog.level, catalog.byLevel)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses?level=pro", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown level: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
}

func TestCourseAndLessonLookups(t *testing.T) {
	catalog := &fakeCatalog{notFound: true}
	r := newTestRouter(t, &fakePipeline{}, &fakeQueries{}, catalog, &fakeCurriculum{})

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/api/courses/7", http.StatusNotFound},
		{"/api/courses/abc", http.StatusBadRequest},
		{"/api/courses/0/lessons", http.StatusBadRequest},
		{"/api/lessons/" + uuid.NewString(), http.StatusNotFound},
		{"/api/lessons/nope", http.StatusBadRequest},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s: want=%d got=%d", tc.path, tc.status, rec.Code)
		}
	}
}

func TestRecommendedLessons(t *testing.T) {
	cur := &fakeCurriculum{lessons: []*types.Lesson{{ID: uuid.New(), Title: "Continental Grip"}}}
	r := newTestRouter(t, &fakePipeline{}, &fakeQueries{}, &fakeCatalog{}, cur)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/learners/u-9/recommended-lessons", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if cur.userID != "u-9" {
		t.Fatalf("learner id: want=u-9 got=%q", cur.userID)
	}
	body := decodeBody(t, rec)
	if list, _ := body["lessons"].([]any); len(list) != 1 {
		t.Fatalf("lessons: want=1 got=%v", body["lessons"])
	}
}

type fakeLearners struct {
	learner *types.Learner
}

func (f *fakeLearners) Get(_ dbctx.Context, userID string) (*types.Learner, error) {
	if userID == "" {
		return nil, perrors.Validation("learner.get", "user id is required")
	}
	return f.learner, nil
}

func (f *fakeLearners) FindOrCreate(dbctx.Context, string) (*types.Learner, error) {
	return f.learner, nil
}

func TestGetLearner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewLearnerHandler(logger.Nop(), &fakeLearners{learner: &types.Learner{UserID: "u-3", SkillLevel: string(types.LevelAdvanced)}})
	r.GET("/api/learners/:userId", h.GetLearner)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/learners/u-3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}

	missing := gin.New()
	missing.GET("/api/learners/:userId", NewLearnerHandler(logger.Nop(), &fakeLearners{}).GetLearner)
	rec = httptest.NewRecorder()
	missing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/learners/u-4", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
}
