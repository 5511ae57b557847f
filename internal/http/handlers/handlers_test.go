package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/http/response"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/services"
)

type stubGenerations struct {
	services.GenerationService
	start func(topicID uuid.UUID, stage types.Stage) (*types.Generation, error)
	hist  func(topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error)
}

func (s *stubGenerations) StartGeneration(_ context.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error) {
	return s.start(topicID, stage)
}

func (s *stubGenerations) History(_ context.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error) {
	return s.hist(topicID, stage)
}

type stubPublish struct {
	gotText, gotDB string
	err            error
}

func (s *stubPublish) ProcessResponse(_ context.Context, id uuid.UUID, text, db string) (*services.PublishResult, error) {
	s.gotText, s.gotDB = text, db
	if s.err != nil {
		return nil, s.err
	}
	return &services.PublishResult{GenerationID: id, DocumentURL: "https://notion.test/p", FileURL: "https://drive.test/f"}, nil
}

type stubContent struct {
	services.ContentService
	gotType types.ContentType
	gotName string
	gotData []byte
}

func (s *stubContent) UploadContent(_ context.Context, topicID uuid.UUID, ct types.ContentType, name string, data []byte) (*types.ContentItem, error) {
	s.gotType, s.gotName, s.gotData = ct, name, data
	return &types.ContentItem{ID: uuid.New(), TopicID: topicID, ContentType: ct, FileName: name, Active: true}, nil
}

type stubCatalog struct {
	services.CatalogService
	err error
}

func (s *stubCatalog) CreateModule(_ context.Context, in services.ModuleInput) (*types.Module, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.Module{ID: uuid.New(), Name: *in.Name}, nil
}

func (s *stubCatalog) DeleteTopic(context.Context, uuid.UUID) error { return s.err }

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestStartGenerationHandler(t *testing.T) {
	topicID := uuid.New()
	gens := &stubGenerations{start: func(id uuid.UUID, stage types.Stage) (*types.Generation, error) {
		if stage != types.StageMK2 {
			t.Fatalf("stage: want=MK2 got=%s", stage)
		}
		return &types.Generation{ID: uuid.New(), TopicID: id, Stage: stage, Version: 1, Status: types.GenerationPending}, nil
	}}
	h := NewGenerationHandler(logger.Nop(), gens, &stubPublish{})
	r := newEngine()
	r.POST("/api/topics/:id/generations", h.StartGeneration)

	rec := doJSON(t, r, http.MethodPost, "/api/topics/"+topicID.String()+"/generations", map[string]string{"stage": "mk2"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var out struct {
		Generation types.Generation `json:"generation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Generation.TopicID != topicID || out.Generation.Version != 1 {
		t.Fatalf("generation: %+v", out.Generation)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/topics/"+topicID.String()+"/generations", map[string]string{"stage": "MK9"})
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_stage" {
		t.Fatalf("bad stage: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, http.MethodPost, "/api/topics/not-a-uuid/generations", map[string]string{"stage": "MK1"})
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_topic_id" {
		t.Fatalf("bad id: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestStartGenerationHandlerMapsErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apierr.Validation("generation.start", "Cannot generate MK1 for topic. Missing requirements: Missing Lecture Pdf"), http.StatusBadRequest, "validation"},
		{apierr.NotFound("generation.start", "Topic", "t-1"), http.StatusNotFound, "not_found"},
		{apierr.DataIntegrity("generation.start", "g-1", "broken"), http.StatusUnprocessableEntity, "data_integrity"},
	}
	for _, tc := range cases {
		gens := &stubGenerations{start: func(uuid.UUID, types.Stage) (*types.Generation, error) { return nil, tc.err }}
		h := NewGenerationHandler(logger.Nop(), gens, &stubPublish{})
		r := newEngine()
		r.POST("/api/topics/:id/generations", h.StartGeneration)

		rec := doJSON(t, r, http.MethodPost, "/api/topics/"+uuid.NewString()+"/generations", map[string]string{"stage": "MK1"})
		if rec.Code != tc.status {
			t.Fatalf("%s: status want=%d got=%d", tc.code, tc.status, rec.Code)
		}
		body := decodeError(t, rec)
		if body.Code != tc.code || body.Message != tc.err.Error() {
			t.Fatalf("%s: body=%+v", tc.code, body)
		}
	}
}

func TestListGenerationsStageFilter(t *testing.T) {
	var gotStage types.Stage = "unset"
	gens := &stubGenerations{hist: func(_ uuid.UUID, stage types.Stage) ([]*types.Generation, error) {
		gotStage = stage
		return []*types.Generation{}, nil
	}}
	h := NewGenerationHandler(logger.Nop(), gens, &stubPublish{})
	r := newEngine()
	r.GET("/api/topics/:id/generations", h.ListGenerations)

	rec := doJSON(t, r, http.MethodGet, "/api/topics/"+uuid.NewString()+"/generations?stage=mk3", nil)
	if rec.Code != http.StatusOK || gotStage != types.StageMK3 {
		t.Fatalf("filtered: status=%d stage=%q", rec.Code, gotStage)
	}
	rec = doJSON(t, r, http.MethodGet, "/api/topics/"+uuid.NewString()+"/generations", nil)
	if rec.Code != http.StatusOK || gotStage != "" {
		t.Fatalf("unfiltered: status=%d stage=%q", rec.Code, gotStage)
	}
}

func TestPublishHandler(t *testing.T) {
	pub := &stubPublish{}
	h := NewGenerationHandler(logger.Nop(), &stubGenerations{}, pub)
	r := newEngine()
	r.POST("/api/generations/:id/publish", h.Publish)
	id := uuid.New()

	rec := doJSON(t, r, http.MethodPost, "/api/generations/"+id.String()+"/publish", map[string]string{
		"response_text": "# Notes",
		"database_id":   "db-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if pub.gotText != "# Notes" || pub.gotDB != "db-1" {
		t.Fatalf("forwarded: text=%q db=%q", pub.gotText, pub.gotDB)
	}
	var res services.PublishResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.DocumentURL == "" || res.GenerationID != id {
		t.Fatalf("result: %+v err=%v", res, err)
	}

	pubErr := apierr.New(apierr.KindExternal, "publish.process_response", "failed to process response for generation "+id.String()+": boom", nil)
	pubErr.ID = id.String()
	pub.err = pubErr
	rec = doJSON(t, r, http.MethodPost, "/api/generations/"+id.String()+"/publish", map[string]string{"response_text": "x"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("external: want=502 got=%d", rec.Code)
	}
	if body := decodeError(t, rec); body.ID != id.String() || body.Code != "external" {
		t.Fatalf("external body: %+v", body)
	}
}

func TestUploadContentHandler(t *testing.T) {
	content := &stubContent{}
	h := NewContentHandler(logger.Nop(), content)
	r := newEngine()
	r.POST("/api/topics/:id/content", h.UploadContent)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("content_type", "lecture_pdf")
	fw, err := mw.CreateFormFile("file", "week1.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte("%PDF"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/topics/"+uuid.NewString()+"/content", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if content.gotType != types.ContentLecturePDF || content.gotName != "week1.pdf" || string(content.gotData) != "%PDF" {
		t.Fatalf("forwarded: type=%s name=%q data=%q", content.gotType, content.gotName, content.gotData)
	}
}

func TestUploadContentHandlerRejectsUnknownType(t *testing.T) {
	h := NewContentHandler(logger.Nop(), &stubContent{})
	r := newEngine()
	r.POST("/api/topics/:id/content", h.UploadContent)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("content_type", "slides")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/topics/"+uuid.NewString()+"/content", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_content_type" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCatalogHandler(t *testing.T) {
	cat := &stubCatalog{}
	h := NewCatalogHandler(logger.Nop(), cat)
	r := newEngine()
	r.POST("/api/modules", h.CreateModule)
	r.DELETE("/api/topics/:id", h.DeleteTopic)

	rec := doJSON(t, r, http.MethodPost, "/api/modules", map[string]string{"name": "Equity"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: want=201 got=%d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/topics/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: want=204 got=%d", rec.Code)
	}

	cat.err = apierr.Conflict("catalog.delete_topic", "t-1", "topic still has 2 active content item(s) and 0 generation(s)")
	rec = doJSON(t, r, http.MethodDelete, "/api/topics/"+uuid.NewString(), nil)
	if rec.Code != http.StatusConflict || decodeError(t, rec).ID != "t-1" {
		t.Fatalf("conflict: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHealthCheckReportsDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		ping func(context.Context) error
		want int
	}{
		{"no ping", nil, http.StatusOK},
		{"db up", func(context.Context) error { return nil }, http.StatusOK},
		{"db down", func(context.Context) error { return context.DeadlineExceeded }, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/healthz", NewHealthHandler(tc.ping).HealthCheck)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.name, tc.want, rec.Code)
		}
	}
}
