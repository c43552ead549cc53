package app

import (
	"context"
	"io"

	"studynotes/internal/model"
	"studynotes/internal/repository"
)

type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, id string) (*model.Note, error)
	List(ctx context.Context, filter repository.NoteFilter) ([]model.Note, int64, error)
	Update(ctx context.Context, id string, patch repository.NotePatch) (*model.Note, error)
	Delete(ctx context.Context, id string) error
	AppendQuestion(ctx context.Context, id string, pair model.QAPair) error
}

type MaterialStore interface {
	Create(ctx context.Context, material *model.StudyMaterial) error
	GetByID(ctx context.Context, id string) (*model.StudyMaterial, error)
	List(ctx context.Context, query string) ([]model.StudyMaterial, error)
	Delete(ctx context.Context, id string) error
}

type ProfileStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	Save(ctx context.Context, profile *model.Profile) error
}

type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

// QAPublisher hands a Q&A pair to the asynchronous persistence queue.
type QAPublisher interface {
	Publish(ctx context.Context, msg model.QAMessage) error
}

// QAHistory is the short-lived per-note Q&A session.
type QAHistory interface {
	Get(ctx context.Context, noteID string) ([]model.QAPair, bool, error)
	Append(ctx context.Context, noteID string, pair model.QAPair) error
	Seed(ctx context.Context, noteID string, pairs []model.QAPair) error
	Delete(ctx context.Context, noteID string) error
}
