package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studynotes/internal/app"
	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/repository"
	"studynotes/internal/transport/http/response"
)

type NoteHandler struct {
	notes    *app.NoteService
	ingest   *app.IngestService
	maxBytes int64
	logger   *zap.Logger
}

type IngestTextRequest struct {
	Text          string `json:"text"`
	Title         string `json:"title"`
	RetainContent *bool  `json:"retainContent"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type AskNoteRequest struct {
	Question string `json:"question"`
}

type UploadedNote struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewNoteHandler(notes *app.NoteService, ingest *app.IngestService, maxBytes int64, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, ingest: ingest, maxBytes: maxBytes, logger: logger}
}

func (h *NoteHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		writeError(c, h.logger, "list notes", err)
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		writeError(c, h.logger, "list notes", err)
		return
	}

	result, err := h.notes.List(c.Request.Context(), app.NoteQuery{Query: c.Query("q"), Page: page, Limit: limit})
	if err != nil {
		writeError(c, h.logger, "list notes", err)
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	response.JSON(c, http.StatusOK, result.Notes)
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req app.CreateNoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	note, err := h.notes.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "create note", err)
		return
	}
	response.JSON(c, http.StatusCreated, note)
}

func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get note", err)
		return
	}
	response.JSON(c, http.StatusOK, note)
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	note, err := h.notes.Update(c.Request.Context(), c.Param("id"), repository.NotePatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeError(c, h.logger, "update note", err)
		return
	}
	response.JSON(c, http.StatusOK, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "delete note", err)
		return
	}
	response.Message(c, "Note deleted", gin.H{"id": id})
}

func (h *NoteHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	note, err := h.ingest.IngestText(c.Request.Context(), app.IngestTextInput{
		Text:          req.Text,
		Title:         req.Title,
		RetainContent: req.RetainContent == nil || *req.RetainContent,
	})
	if err != nil {
		writeError(c, h.logger, "ingest text", err)
		return
	}
	response.JSON(c, http.StatusCreated, note)
}

// UploadPDF ingests a PDF or image into a Note.
func (h *NoteHandler) UploadPDF(c *gin.Context) {
	file, err := readUpload(c, h.maxBytes, "file", "pdf")
	if err != nil {
		writeError(c, h.logger, "upload pdf", err)
		return
	}
	if file == nil {
		writeError(c, h.logger, "upload pdf", apperr.Invalid("file is required"))
		return
	}
	retain, err := formBool(c, "retainContent")
	if err != nil {
		writeError(c, h.logger, "upload pdf", err)
		return
	}

	result, err := h.ingest.IngestFile(c.Request.Context(), app.IngestFileInput{
		Data:          file.data,
		MediaType:     file.mediaType,
		Filename:      file.filename,
		Target:        app.TargetNote,
		RetainContent: retain == nil || *retain,
	})
	if err != nil {
		writeError(c, h.logger, "upload pdf", err)
		return
	}
	response.JSON(c, http.StatusOK, uploadedNote(result.Note))
}

func (h *NoteHandler) Ask(c *gin.Context) {
	var req AskNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	answer, err := h.notes.Ask(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		writeError(c, h.logger, "ask note", err)
		return
	}
	response.JSON(c, http.StatusOK, answer)
}

func (h *NoteHandler) Questions(c *gin.Context) {
	pairs, err := h.notes.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "note questions", err)
		return
	}
	response.JSON(c, http.StatusOK, pairs)
}

func uploadedNote(note *model.Note) UploadedNote {
	return UploadedNote{
		ID:        note.ID,
		Title:     note.Title,
		Summary:   note.Summary,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
	}
}
