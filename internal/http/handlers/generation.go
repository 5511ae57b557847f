package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/http/response"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/services"
)

type GenerationHandler struct {
	log         *logger.Logger
	generations services.GenerationService
	publish     services.PublishService
}

func NewGenerationHandler(log *logger.Logger, generations services.GenerationService, publish services.PublishService) *GenerationHandler {
	return &GenerationHandler{
		log:         log.With("handler", "GenerationHandler"),
		generations: generations,
		publish:     publish,
	}
}

// GET /api/topics/:id/stages
func (h *GenerationHandler) StageOverview(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	stages, err := h.generations.StageOverview(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stages": stages})
}

// GET /api/topics/:id/generations?stage=MK1
func (h *GenerationHandler) ListGenerations(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	var stage types.Stage
	if raw := strings.TrimSpace(c.Query("stage")); raw != "" {
		s, err := types.ParseStage(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_stage", err)
			return
		}
		stage = s
	}
	rows, err := h.generations.History(c.Request.Context(), id, stage)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"generations": rows})
}

type startGenerationRequest struct {
	Stage string `json:"stage"`
}

// POST /api/topics/:id/generations
func (h *GenerationHandler) StartGeneration(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	var req startGenerationRequest
	if !bindJSON(c, &req) {
		return
	}
	stage, err := types.ParseStage(req.Stage)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_stage", err)
		return
	}
	g, err := h.generations.StartGeneration(c.Request.Context(), id, stage)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"generation": g})
}

// GET /api/generations/:id
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	id, ok := pathID(c, "generation")
	if !ok {
		return
	}
	g, err := h.generations.GetGeneration(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"generation": g})
}

// DELETE /api/generations/:id
func (h *GenerationHandler) DeleteGeneration(c *gin.Context) {
	id, ok := pathID(c, "generation")
	if !ok {
		return
	}
	if err := h.generations.DeleteGeneration(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type publishRequest struct {
	ResponseText string `json:"response_text"`
	DatabaseID   string `json:"database_id"`
}

// POST /api/generations/:id/publish
func (h *GenerationHandler) Publish(c *gin.Context) {
	id, ok := pathID(c, "generation")
	if !ok {
		return
	}
	var req publishRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.publish.ProcessResponse(c.Request.Context(), id, req.ResponseText, req.DatabaseID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/generations/:id/response
func (h *GenerationHandler) SaveResponse(c *gin.Context) {
	id, ok := pathID(c, "generation")
	if !ok {
		return
	}
	var req publishRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.generations.UpdateGenerationResponse(c.Request.Context(), id, req.ResponseText, types.GenerationCompleted)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"generation": g})
}

// POST /api/generations/:id/fail
func (h *GenerationHandler) MarkFailed(c *gin.Context) {
	id, ok := pathID(c, "generation")
	if !ok {
		return
	}
	g, err := h.generations.MarkGenerationFailed(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"generation": g})
}
