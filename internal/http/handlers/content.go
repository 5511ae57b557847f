package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/http/response"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/services"
)

const maxUploadBytes = 64 << 20

type ContentHandler struct {
	log *logger.Logger
	svc services.ContentService
}

func NewContentHandler(log *logger.Logger, svc services.ContentService) *ContentHandler {
	return &ContentHandler{log: log.With("handler", "ContentHandler"), svc: svc}
}

// GET /api/topics/:id/content
func (h *ContentHandler) ListContent(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	items, err := h.svc.ListContent(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"content": items})
}

// POST /api/topics/:id/content (multipart: file, content_type)
func (h *ContentHandler) UploadContent(c *gin.Context) {
	id, ok := pathID(c, "topic")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	ct, err := types.ParseContentType(c.PostForm("content_type"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_type", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	item, err := h.svc.UploadContent(c.Request.Context(), id, ct, strings.TrimSpace(fh.Filename), data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"content": item})
}

// DELETE /api/content/:id
func (h *ContentHandler) RemoveContent(c *gin.Context) {
	id, ok := pathID(c, "content")
	if !ok {
		return
	}
	res, err := h.svc.RemoveContent(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
