package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"interview-practice-server/internal/config"
	"interview-practice-server/internal/domain"
	"interview-practice-server/internal/extractor"
	"interview-practice-server/internal/ingestion"
	"interview-practice-server/internal/session"
)

const (
	apiVersion      = "1.0.0"
	sessionHeader   = "X-Session-ID"
	placeholderName = "Unknown Candidate"
	placeholderMail = "unknown@example.com"
)

// API содержит обработчики HTTP-маршрутов
type API struct {
	cfg *config.AppConfig
	svc Services
}

// NewAPI создает набор обработчиков
func NewAPI(cfg *config.AppConfig, svc Services) *API {
	return &API{cfg: cfg, svc: svc}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)
		apiGroup.GET("/metrics", api.handleMetrics)

		apiGroup.POST("/resume", api.handleUploadResume)

		apiGroup.GET("/session", api.handleGetSession)
		apiGroup.POST("/session/info", api.handleCollectInfo)
		apiGroup.POST("/session/start", api.handleStartInterview)
		apiGroup.POST("/session/answer", api.handleSubmitAnswer)
		apiGroup.PUT("/session/draft", api.handleStageDraft)
		apiGroup.POST("/session/pause", api.handlePause)
		apiGroup.POST("/session/resume", api.handleResume)
		apiGroup.POST("/session/reset", api.handleReset)

		apiGroup.GET("/candidates", api.handleListCandidates)
		apiGroup.DELETE("/candidates", api.handleClearCandidates)
		apiGroup.GET("/candidates/:id", api.handleGetCandidate)
		apiGroup.PATCH("/candidates/:id", api.handleUpdateCandidate)
		apiGroup.DELETE("/candidates/:id", api.handleDeleteCandidate)
		apiGroup.GET("/candidates/:id/report", api.handleCandidateReport)

		apiGroup.POST("/chat", api.handleChat)
	}
}

// session возвращает сессию по заголовку X-Session-ID.
// Отсутствующий или незнакомый идентификатор создает новую сессию;
// ее идентификатор всегда возвращается в том же заголовке ответа.
func (a *API) session(c *gin.Context) *session.Engine {
	eng := a.svc.Sessions.GetOrCreate(c.GetHeader(sessionHeader))
	c.Header(sessionHeader, eng.ID())
	return eng
}

func (a *API) handleHealth(c *gin.Context) {
	gemini := "missing_api_key"
	if a.cfg.Gemini.Configured() {
		gemini = "configured"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   apiVersion,
		"services": gin.H{
			"api":      "operational",
			"gemini":   gemini,
			"database": "local_storage",
		},
	})
}

func (a *API) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Metrics.Stats())
}

func (a *API) handleUploadResume(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Missing file")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !ingestion.Supported(contentType) {
		respondMessage(c, http.StatusBadRequest, "Unsupported file type")
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	data, err := io.ReadAll(upload)
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	a.svc.Metrics.IncResumeUploaded()

	text, err := ingestion.ExtractText(contentType, data)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	fields := a.svc.Extractor.ExtractWithFallback(c.Request.Context(), text)
	missing := extractor.MissingFields(fields)
	a.svc.Metrics.IncResumeParsed()

	candidate := domain.Candidate{
		ID:     uuid.New().String(),
		Name:   fields.Name,
		Email:  fields.Email,
		Phone:  fields.Phone,
		Status: domain.CandidateNotStarted,
	}
	if candidate.Name == "" {
		candidate.Name = placeholderName
	}
	if candidate.Email == "" {
		candidate.Email = placeholderMail
	}

	a.svc.Registry.Add(candidate)
	eng := a.session(c)
	eng.StartCandidate(candidate)

	c.JSON(http.StatusOK, gin.H{
		"candidate": gin.H{
			"name":  candidate.Name,
			"email": candidate.Email,
			"phone": candidate.Phone,
		},
		"extracted": gin.H{
			"name":  fields.Name,
			"email": fields.Email,
			"phone": fields.Phone,
		},
		"missingFields": missing,
		"meta": gin.H{
			"length":           len(text),
			"hasExtractedInfo": fields.Name != "" || fields.Email != "" || fields.Phone != "",
		},
		"sessionId": eng.ID(),
	})
}

func (a *API) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, a.session(c).Snapshot())
}

func (a *API) handleCollectInfo(c *gin.Context) {
	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	eng := a.session(c)
	state := eng.CollectInfo(
		strings.TrimSpace(payload.Name),
		strings.TrimSpace(payload.Email),
		strings.TrimSpace(payload.Phone),
	)

	// Контакты в реестре держатся в синхроне с сессией
	if state.Candidate != nil {
		a.svc.Registry.Update(state.Candidate.ID, registryContactPatch(*state.Candidate))
	}

	c.JSON(http.StatusOK, state)
}

func (a *API) handleStartInterview(c *gin.Context) {
	eng := a.session(c)
	state, err := eng.StartInterview(c.Request.Context())
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, session.ErrNoCandidate) {
			status = http.StatusBadRequest
		}
		respondError(c, status, err)
		return
	}

	if state.Candidate != nil {
		inProgress := domain.CandidateInProgress
		a.svc.Registry.Update(state.Candidate.ID, registryStatusPatch(inProgress))
	}

	c.JSON(http.StatusOK, state)
}

func (a *API) handleSubmitAnswer(c *gin.Context) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	state, err := a.session(c).SubmitAnswer(payload.Content)
	if err != nil {
		respondError(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (a *API) handleStageDraft(c *gin.Context) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	a.session(c).StageDraft(payload.Content)
	c.Status(http.StatusNoContent)
}

func (a *API) handlePause(c *gin.Context) {
	c.JSON(http.StatusOK, a.session(c).Pause())
}

func (a *API) handleResume(c *gin.Context) {
	c.JSON(http.StatusOK, a.session(c).Resume())
}

func (a *API) handleReset(c *gin.Context) {
	c.JSON(http.StatusOK, a.session(c).Reset())
}

func (a *API) handleListCandidates(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Registry.All())
}

func (a *API) handleClearCandidates(c *gin.Context) {
	a.svc.Registry.Clear()
	c.Status(http.StatusNoContent)
}

func (a *API) handleGetCandidate(c *gin.Context) {
	candidate, ok := a.svc.Registry.Get(c.Param("id"))
	if !ok {
		respondMessage(c, http.StatusNotFound, "candidate not found")
		return
	}
	c.JSON(http.StatusOK, candidate)
}

func (a *API) handleUpdateCandidate(c *gin.Context) {
	var payload struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		Phone  *string `json:"phone"`
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	patch := registryPatchFrom(payload.Name, payload.Email, payload.Phone, payload.Status)
	candidate, ok := a.svc.Registry.Update(c.Param("id"), patch)
	if !ok {
		respondMessage(c, http.StatusNotFound, "candidate not found")
		return
	}
	c.JSON(http.StatusOK, candidate)
}

func (a *API) handleDeleteCandidate(c *gin.Context) {
	if !a.svc.Registry.Delete(c.Param("id")) {
		respondMessage(c, http.StatusNotFound, "candidate not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleCandidateReport(c *gin.Context) {
	candidate, ok := a.svc.Registry.Get(c.Param("id"))
	if !ok {
		respondMessage(c, http.StatusNotFound, "candidate not found")
		return
	}

	data, err := a.svc.Report.Generate(candidate)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	a.svc.Metrics.IncReportGenerated()

	filename := fmt.Sprintf("interview-report-%s.pdf", candidate.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (a *API) handleChat(c *gin.Context) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	reply := a.svc.Coach.Reply(c.Request.Context(), payload.Message)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
