package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/repository"
)

const maxPageSize = 100

type NoteQuery struct {
	Query string
	Page  int
	Limit int
}

type NotePage struct {
	Notes []model.Note `json:"notes"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

type CreateNoteInput struct {
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	Content   string         `json:"content"`
	Questions []model.QAPair `json:"questions"`
}

type NoteService struct {
	notes        NoteStore
	gateway      *Gateway
	history      QAHistory
	publisher    QAPublisher
	maxHistory   int
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// NewNoteService builds the note service. history and publisher are optional;
// without them Q&A history is read from the note and pairs persist inline.
func NewNoteService(
	notes NoteStore,
	gateway *Gateway,
	history QAHistory,
	publisher QAPublisher,
	maxHistory int,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *NoteService {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &NoteService{
		notes:        notes,
		gateway:      gateway,
		history:      history,
		publisher:    publisher,
		maxHistory:   maxHistory,
		storeTimeout: storeTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *NoteService) List(ctx context.Context, q NoteQuery) (*NotePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	notes, total, err := s.notes.List(storeCtx, repository.NoteFilter{
		Query:  strings.TrimSpace(q.Query),
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return &NotePage{Notes: notes, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *NoteService) Get(ctx context.Context, id string) (*model.Note, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	note, err := s.notes.GetByID(storeCtx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperr.ErrNotFound
	}
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, input CreateNoteInput) (*model.Note, error) {
	if strings.TrimSpace(input.Title) == "" && strings.TrimSpace(input.Summary) == "" && strings.TrimSpace(input.Content) == "" {
		return nil, apperr.Invalid("title, summary or content is required")
	}
	questions := input.Questions
	if questions == nil {
		questions = []model.QAPair{}
	}
	note := &model.Note{
		Title:     firstNonEmpty(input.Title, ManualNoteTitle),
		Summary:   input.Summary,
		Content:   input.Content,
		Questions: questions,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.notes.Create(storeCtx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, id string, patch repository.NotePatch) (*model.Note, error) {
	if patch.Title == nil && patch.Content == nil {
		return nil, apperr.Invalid("title or content is required")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperr.Invalid("title must not be empty")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.notes.Update(storeCtx, id, patch)
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.notes.Delete(storeCtx, id); err != nil {
		return err
	}
	if s.history != nil {
		if err := s.history.Delete(ctx, id); err != nil {
			s.logger.Warn("clear qa history failed", zap.String("note_id", id), zap.Error(err))
		}
	}
	return nil
}

// Ask answers a question about a stored note, using the note's earlier
// questions as conversation history, and records the new pair.
func (s *NoteService) Ask(ctx context.Context, id, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.Invalid("question is required")
	}
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	document := firstNonEmpty(note.Content, note.Summary)
	if document == "" {
		return nil, apperr.Invalid("note has no content to ask about")
	}

	history := s.loadHistory(ctx, note)
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	answer, err := s.gateway.AnswerQuestion(ctx, AnswerInput{
		Document: document,
		Question: question,
		History:  history,
	})
	if err != nil {
		return nil, err
	}

	pair := model.QAPair{
		Question:   question,
		Answer:     answer.Answer,
		Confidence: answer.Confidence,
		AskedAt:    s.now().UTC(),
	}
	if s.history != nil {
		if err := s.history.Append(ctx, note.ID, pair); err != nil {
			s.logger.Warn("append qa history failed", zap.String("note_id", note.ID), zap.Error(err))
		}
	}
	s.persistPair(ctx, note.ID, pair)
	return answer, nil
}

// History returns the Q&A pairs recorded for a note, oldest first.
func (s *NoteService) History(ctx context.Context, id string) ([]model.QAPair, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadHistory(ctx, note), nil
}

func (s *NoteService) loadHistory(ctx context.Context, note *model.Note) []model.QAPair {
	persisted := note.Questions
	if persisted == nil {
		persisted = []model.QAPair{}
	}
	if s.history == nil {
		return persisted
	}

	pairs, found, err := s.history.Get(ctx, note.ID)
	if err != nil {
		s.logger.Warn("read qa history failed, using stored questions", zap.String("note_id", note.ID), zap.Error(err))
		return persisted
	}
	if found {
		return pairs
	}
	if len(persisted) > 0 {
		if err := s.history.Seed(ctx, note.ID, persisted); err != nil {
			s.logger.Warn("seed qa history failed", zap.String("note_id", note.ID), zap.Error(err))
		}
	}
	return persisted
}

func (s *NoteService) persistPair(ctx context.Context, noteID string, pair model.QAPair) {
	if s.publisher != nil {
		err := s.publisher.Publish(ctx, model.QAMessage{NoteID: noteID, Pair: pair})
		if err == nil {
			return
		}
		s.logger.Warn("publish qa pair failed, persisting inline", zap.String("note_id", noteID), zap.Error(err))
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()
	if err := s.notes.AppendQuestion(storeCtx, noteID, pair); err != nil {
		s.logger.Error("persist qa pair failed", zap.String("note_id", noteID), zap.Error(err))
	}
}
