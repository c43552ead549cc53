package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

// NoteFilter narrows a note listing. Zero Limit means no paging.
type NoteFilter struct {
	Query  string
	Offset int
	Limit  int
}

// NotePatch carries the editable note fields; nil fields are left untouched.
type NotePatch struct {
	Title   *string
	Content *string
}

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("create note failed: %w", err)
	}
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note failed: %w", err)
	}
	return &note, nil
}

// List returns notes newest first together with the unpaged total.
func (r *NoteRepository) List(ctx context.Context, filter NoteFilter) ([]model.Note, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Note{})
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(content) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notes failed: %w", err)
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}
	notes := make([]model.Note, 0)
	if err := query.Find(&notes).Error; err != nil {
		return nil, 0, fmt.Errorf("list notes failed: %w", err)
	}
	return notes, total, nil
}

func (r *NoteRepository) Update(ctx context.Context, id string, patch NotePatch) (*model.Note, error) {
	note, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperr.ErrNotFound
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
		note.Content = *patch.Content
	}
	if len(updates) == 0 {
		return note, nil
	}
	if err := r.db.WithContext(ctx).Model(note).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update note failed: %w", err)
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Note{})
	if result.Error != nil {
		return fmt.Errorf("delete note failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// AppendQuestion adds a Q&A pair under a row lock so concurrent appends keep every pair.
func (r *NoteRepository) AppendQuestion(ctx context.Context, id string, pair model.QAPair) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note model.Note
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&note).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("load note for question failed: %w", err)
		}
		note.Questions = append(note.Questions, pair)
		if err := tx.Model(&note).Select("questions").Updates(&note).Error; err != nil {
			return fmt.Errorf("append note question failed: %w", err)
		}
		return nil
	})
}
