package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lawflow-backend/internal/http/response"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/services"
)

type CatalogHandler struct {
	log *logger.Logger
	svc services.CatalogService
}

func NewCatalogHandler(log *logger.Logger, svc services.CatalogService) *CatalogHandler {
	return &CatalogHandler{log: log.With("handler", "CatalogHandler"), svc: svc}
}

// GET /api/modules
func (h *CatalogHandler) ListModules(c *gin.Context) {
	modules, err := h.svc.ListModules(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"modules": modules})
}

// POST /api/modules
func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req services.ModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.CreateModule(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"module": m})
}

// GET /api/modules/:id
func (h *CatalogHandler) GetModule(c *gin.Context) {
	id, ok := pathID(c, "module")
	if !ok {
		return
	}
	m, err := h.svc.GetModule(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": m})
}

// PATCH /api/modules/:id
func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	id, ok := pathID(c, "module")
	if !ok {
		return
	}
	var req services.ModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpdateModule(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": m})
}

// DELETE /api/modules/:id
func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	id, ok := pathID(c, "module")
	if !ok {
		return
	}
	if err := h.svc.DeleteModule(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/modules/:id/topics
func (h *CatalogHandler) ListTopics(c *gin.Context) {
	id, ok := pathID(c, "module")
	if !ok {
		return
	}
	topics, err := h.svc.ListTopics(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": topics})
}

type topicRequest struct {
	Name string `json:"name"`
}

// POST /api/modules/:id/topics
func (h *CatalogHandler) CreateTopic(c *gin.Context) {
	id, ok := pathID(c, "module")
	if !ok {
		return
	}
	var req topicRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.CreateTopic(c.Request.Context(), id, req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"topic": t})
}

// GET /api/topics/:id
func (h *CatalogHandler) GetTopic(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	t, err := h.svc.GetTopic(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topic": t})
}

// PATCH /api/topics/:id
func (h *CatalogHandler) RenameTopic(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	var req topicRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.RenameTopic(c.Request.Context(), id, req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topic": t})
}

// DELETE /api/topics/:id
func (h *CatalogHandler) DeleteTopic(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	if err := h.svc.DeleteTopic(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
