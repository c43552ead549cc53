package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studynotes/internal/app"
	"studynotes/internal/transport/http/response"
)

// StudyHandler serves the stateless study tools.
type StudyHandler struct {
	gateway *app.Gateway
	logger  *zap.Logger
}

type SummarizeRequest struct {
	Notes string `json:"notes"`
}

type AskRequest struct {
	Notes    string `json:"notes"`
	Question string `json:"question"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type AskQuestionRequest struct {
	Question string `json:"question"`
	Content  string `json:"content"`
}

type ReverseLearnRequest struct {
	Input string `json:"input"`
	Mode  string `json:"mode"`
}

func NewStudyHandler(gateway *app.Gateway, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{gateway: gateway, logger: logger}
}

func (h *StudyHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	summary, err := h.gateway.SummarizeText(c.Request.Context(), req.Notes)
	if err != nil {
		writeError(c, h.logger, "summarize", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"summary": summary})
}

func (h *StudyHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	h.answer(c, req.Notes, req.Question)
}

func (h *StudyHandler) AskQuestion(c *gin.Context) {
	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	h.answer(c, req.Content, req.Question)
}

func (h *StudyHandler) answer(c *gin.Context, document, question string) {
	answer, err := h.gateway.AnswerQuestion(c.Request.Context(), app.AnswerInput{
		Document: document,
		Question: question,
	})
	if err != nil {
		writeError(c, h.logger, "answer question", err)
		return
	}
	response.JSON(c, http.StatusOK, answer)
}

func (h *StudyHandler) AnalyzeText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	summary, err := h.gateway.SummarizeStructured(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, h.logger, "analyze text", err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

func (h *StudyHandler) GenerateQuestions(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	questions, err := h.gateway.GenerateQuestions(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, h.logger, "generate questions", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"questions": questions})
}

func (h *StudyHandler) ReverseLearn(c *gin.Context) {
	var req ReverseLearnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	reply, err := h.gateway.ReverseLearn(c.Request.Context(), req.Mode, req.Input)
	if err != nil {
		writeError(c, h.logger, "reverse learn", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reply": reply})
}

func (h *StudyHandler) TextToSpeech(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	audio, err := h.gateway.SynthesizeSpeech(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, h.logger, "text to speech", err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
