package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studynotes/internal/app"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/transport/http/response"
)

type MaterialHandler struct {
	materials *app.MaterialService
	maxBytes  int64
	logger    *zap.Logger
}

func NewMaterialHandler(materials *app.MaterialService, maxBytes int64, logger *zap.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, maxBytes: maxBytes, logger: logger}
}

func (h *MaterialHandler) Upload(c *gin.Context) {
	file, err := readUpload(c, h.maxBytes, "file")
	if err != nil {
		writeError(c, h.logger, "upload study material", err)
		return
	}
	if file == nil {
		writeError(c, h.logger, "upload study material", apperr.Invalid("file is required"))
		return
	}

	material, err := h.materials.Upload(c.Request.Context(), file.data, file.mediaType, file.filename)
	if err != nil {
		writeError(c, h.logger, "upload study material", err)
		return
	}
	response.JSON(c, http.StatusCreated, material)
}

func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.materials.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.logger, "list study materials", err)
		return
	}
	response.JSON(c, http.StatusOK, materials)
}

func (h *MaterialHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.materials.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "delete study material", err)
		return
	}
	response.Message(c, "Study material deleted", gin.H{"id": id})
}

// Download sends a stored file as an attachment.
func (h *MaterialHandler) Download(c *gin.Context) {
	h.serveKey(c, "attachment")
}

// View sends a stored file for display in the browser.
func (h *MaterialHandler) View(c *gin.Context) {
	h.serveKey(c, "inline")
}

// File sends a material's file by record id under its original filename.
func (h *MaterialHandler) File(c *gin.Context) {
	material, rc, err := h.materials.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "download study material", err)
		return
	}
	defer rc.Close()
	h.stream(c, rc, material.StorageKey, material.OriginalFilename, "attachment")
}

func (h *MaterialHandler) serveKey(c *gin.Context, disposition string) {
	key := c.Param("filename")
	rc, err := h.materials.OpenFile(c.Request.Context(), key)
	if err != nil {
		writeError(c, h.logger, "serve file", err)
		return
	}
	defer rc.Close()
	h.stream(c, rc, key, key, disposition)
}

func (h *MaterialHandler) stream(c *gin.Context, rc io.Reader, key, filename, disposition string) {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("stream file failed", zap.String("key", key), zap.Error(err))
	}
}
