package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"interview-practice-server/internal/coach"
	"interview-practice-server/internal/config"
	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/evaluator"
	"interview-practice-server/internal/extractor"
	"interview-practice-server/internal/metrics"
	"interview-practice-server/internal/questions"
	"interview-practice-server/internal/registry"
	"interview-practice-server/internal/report"
	"interview-practice-server/internal/session"
	"interview-practice-server/internal/storage"
)

func interviewTestConfig() *config.Config {
	return &config.Config{
		InterviewConfig: config.InterviewConfig{
			RoleProfile: "full-stack developer",
			Tiers: []config.TierSpec{
				{Difficulty: "easy", Count: 2, Seconds: 20},
				{Difficulty: "medium", Count: 2, Seconds: 60},
				{Difficulty: "hard", Count: 2, Seconds: 120},
			},
		},
		FallbackQuestions: []config.QuestionSpec{
			{ID: "easy-1", Difficulty: "easy", Prompt: "Q1", Seconds: 20},
			{ID: "easy-2", Difficulty: "easy", Prompt: "Q2", Seconds: 20},
			{ID: "medium-1", Difficulty: "medium", Prompt: "Q3", Seconds: 60},
			{ID: "medium-2", Difficulty: "medium", Prompt: "Q4", Seconds: 60},
			{ID: "hard-1", Difficulty: "hard", Prompt: "Q5", Seconds: 120},
			{ID: "hard-2", Difficulty: "hard", Prompt: "Q6", Seconds: 120},
		},
		FeedbackBands: []config.FeedbackBand{
			{MinScore: 1, Message: "Score %d/10."},
		},
	}
}

func setupTestServer(t *testing.T) (*Server, Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	appCfg := &config.AppConfig{
		Server: config.ServerConfig{
			Port:            8080,
			DataDir:         t.TempDir(),
			MaxUploadBytes:  1 * 1024 * 1024,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: time.Second,
		},
	}
	cfg := interviewTestConfig()

	store, err := storage.New(appCfg.Server.DataDir)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	m := metrics.New()
	registrySvc := registry.New()
	questionsSvc := questions.New(nil, cfg)
	evaluatorSvc := evaluator.New(nil, cfg)
	sessions := session.NewManager(questionsSvc, evaluatorSvc, m, nil, nil)
	t.Cleanup(sessions.Close)

	svc := Services{
		Extractor: extractor.New(nil),
		Questions: questionsSvc,
		Evaluator: evaluatorSvc,
		Coach:     coach.New(nil),
		Registry:  registrySvc,
		Sessions:  sessions,
		Store:     store,
		Report:    report.New(),
		Metrics:   m,
	}

	return New(appCfg, svc), svc
}

func uploadRequest(t *testing.T, contentType, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/resume", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := decodeJSON(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	services, ok := body["services"].(map[string]any)
	if !ok {
		t.Fatalf("services missing in health response")
	}
	if services["database"] != "local_storage" {
		t.Errorf("database = %v, want local_storage", services["database"])
	}
	if services["gemini"] != "missing_api_key" {
		t.Errorf("gemini = %v, want missing_api_key", services["gemini"])
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/resume", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decodeJSON(t, rec)["error"] != "Missing file" {
		t.Errorf("unexpected error message: %s", rec.Body.String())
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := uploadRequest(t, "text/plain", "resume.txt", []byte("plain text resume"))
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decodeJSON(t, rec)["error"] != "Unsupported file type" {
		t.Errorf("unexpected error message: %s", rec.Body.String())
	}
}

func TestUploadPDFCreatesCandidateWithPlaceholders(t *testing.T) {
	srv, svc := setupTestServer(t)

	req := uploadRequest(t, "application/pdf", "resume.pdf", []byte("%PDF-1.4"))
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeJSON(t, rec)
	candidate := body["candidate"].(map[string]any)
	if candidate["name"] != "Unknown Candidate" {
		t.Errorf("name = %v, want Unknown Candidate", candidate["name"])
	}
	if candidate["email"] != "unknown@example.com" {
		t.Errorf("email = %v, want unknown@example.com", candidate["email"])
	}

	missing, _ := body["missingFields"].([]any)
	if len(missing) != 3 {
		t.Errorf("missingFields = %v, want all three", missing)
	}

	if rec.Header().Get("X-Session-ID") == "" {
		t.Errorf("upload must issue a session id")
	}

	all := svc.Registry.All()
	if len(all) != 1 || all[0].Name != "Unknown Candidate" {
		t.Errorf("registry = %+v, want one placeholder candidate", all)
	}
}

func TestSessionInterviewFlow(t *testing.T) {
	srv, _ := setupTestServer(t)

	// Загрузка резюме открывает сессию и сбор контактов
	req := uploadRequest(t, "application/pdf", "resume.pdf", []byte("%PDF-1.4"))
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	sessionID := rec.Header().Get("X-Session-ID")
	if sessionID == "" {
		t.Fatalf("no session id issued")
	}

	do := func(method, path, payload string) *httptest.ResponseRecorder {
		t.Helper()
		var reqBody *strings.Reader
		if payload == "" {
			reqBody = strings.NewReader("{}")
		} else {
			reqBody = strings.NewReader(payload)
		}
		r := httptest.NewRequest(method, path, reqBody)
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("X-Session-ID", sessionID)
		w := httptest.NewRecorder()
		srv.engine.ServeHTTP(w, r)
		return w
	}

	// Уточнение контактов
	w := do(http.MethodPost, "/api/session/info", `{"name":"Jane Doe","email":"jane@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("info: expected 200, got %d", w.Code)
	}
	var state session.State
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Candidate == nil || state.Candidate.Name != "Jane Doe" {
		t.Errorf("candidate not merged: %+v", state.Candidate)
	}

	// Старт: без Gemini немедленно отдается запасной список вопросов
	w = do(http.MethodPost, "/api/session/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Status != session.StatusInProgress || len(state.Questions) != 6 {
		t.Fatalf("start: status=%s questions=%d", state.Status, len(state.Questions))
	}

	// Повторный старт отклоняется
	if w = do(http.MethodPost, "/api/session/start", ""); w.Code != http.StatusConflict {
		t.Errorf("double start: expected 409, got %d", w.Code)
	}

	// Ответ на первый вопрос
	w = do(http.MethodPost, "/api/session/answer", `{"content":"props are read-only, state is owned by the component"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.CurrentIndex != 1 || len(state.Answers) != 1 {
		t.Errorf("answer: index=%d answers=%d", state.CurrentIndex, len(state.Answers))
	}

	// Пауза и возобновление
	if w = do(http.MethodPost, "/api/session/pause", ""); w.Code != http.StatusOK {
		t.Errorf("pause: expected 200, got %d", w.Code)
	}
	if w = do(http.MethodPost, "/api/session/resume", ""); w.Code != http.StatusOK {
		t.Errorf("resume: expected 200, got %d", w.Code)
	}

	// Сброс возвращает сессию в начальное состояние
	w = do(http.MethodPost, "/api/session/reset", "")
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Status != session.StatusNotStarted || len(state.Answers) != 0 {
		t.Errorf("reset: status=%s answers=%d", state.Status, len(state.Answers))
	}
}

func TestAnswerWithoutInterviewRejected(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/session/answer", strings.NewReader(`{"content":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestChatFallbackReplies(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeJSON(t, rec)["reply"] != "Could you share more details about your question?" {
		t.Errorf("unexpected fallback reply: %s", rec.Body.String())
	}
}

func TestCandidatesCRUD(t *testing.T) {
	srv, svc := setupTestServer(t)
	svc.Registry.Add(domain.Candidate{ID: "c1", Name: "Jane Doe", Email: "jane@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/candidates", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/candidates/c1", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", rec.Code)
	}
	if got, _ := svc.Registry.Get("c1"); got.Status != domain.CandidateCompleted {
		t.Errorf("patch did not apply: %+v", got)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/candidates/c1", nil)
	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/candidates/c1", nil)
	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}

	svc.Registry.Add(domain.Candidate{ID: "c2", Name: "John Smith"})
	svc.Registry.Add(domain.Candidate{ID: "c3", Name: "Ann Lee"})
	req = httptest.NewRequest(http.MethodDelete, "/api/candidates", nil)
	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear: expected 204, got %d", rec.Code)
	}
	if left := len(svc.Registry.All()); left != 0 {
		t.Errorf("registry has %d candidates after clear, want 0", left)
	}
}

func TestCandidateReportPDF(t *testing.T) {
	srv, svc := setupTestServer(t)

	score := 8
	svc.Registry.Add(domain.Candidate{
		ID:     "c1",
		Name:   "Jane Doe",
		Email:  "jane@example.com",
		Status: domain.CandidateCompleted,
		InterviewSummary: &domain.InterviewSummary{
			TotalScore:  42,
			PerQuestion: []domain.PerQuestionResult{{QuestionID: "easy-1", Score: &score}},
			Notes:       "Answered 6 of 6 questions.",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/candidates/c1/report", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("report body is not a PDF")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if _, ok := body["resumes_uploaded"]; !ok {
		t.Errorf("metrics response missing counters: %s", rec.Body.String())
	}
}
