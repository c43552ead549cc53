package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

// MemoryNoteRepository keeps notes in process memory. Used by the memory store driver and tests.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[string]model.Note
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{notes: make(map[string]model.Note)}
}

func (r *MemoryNoteRepository) Create(_ context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	r.notes[note.ID] = cloneNote(*note)
	return nil
}

func (r *MemoryNoteRepository) GetByID(_ context.Context, id string) (*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	out := cloneNote(note)
	return &out, nil
}

func (r *MemoryNoteRepository) List(_ context.Context, filter NoteFilter) ([]model.Note, int64, error) {
	r.mu.RLock()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]model.Note, 0, len(r.notes))
	for _, note := range r.notes {
		if q != "" && !containsFold(q, note.Title, note.Summary, note.Content) {
			continue
		}
		matched = append(matched, cloneNote(note))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if filter.Limit > 0 {
		start := min(filter.Offset, len(matched))
		end := min(start+filter.Limit, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *MemoryNoteRepository) Update(_ context.Context, id string, patch NotePatch) (*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	note.UpdatedAt = time.Now()
	r.notes[id] = note
	out := cloneNote(note)
	return &out, nil
}

func (r *MemoryNoteRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *MemoryNoteRepository) AppendQuestion(_ context.Context, id string, pair model.QAPair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return apperr.ErrNotFound
	}
	note.Questions = append(note.Questions, pair)
	r.notes[id] = note
	return nil
}

type MemoryMaterialRepository struct {
	mu        sync.RWMutex
	materials map[string]model.StudyMaterial
}

func NewMemoryMaterialRepository() *MemoryMaterialRepository {
	return &MemoryMaterialRepository{materials: make(map[string]model.StudyMaterial)}
}

func (r *MemoryMaterialRepository) Create(_ context.Context, material *model.StudyMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now()
	}
	r.materials[material.ID] = *material
	return nil
}

func (r *MemoryMaterialRepository) GetByID(_ context.Context, id string) (*model.StudyMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	material, ok := r.materials[id]
	if !ok {
		return nil, nil
	}
	return &material, nil
}

func (r *MemoryMaterialRepository) List(_ context.Context, query string) ([]model.StudyMaterial, error) {
	r.mu.RLock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.StudyMaterial, 0, len(r.materials))
	for _, m := range r.materials {
		if q != "" && !containsFold(q, m.Filename, m.Summary) {
			continue
		}
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DateUploaded != out[j].DateUploaded {
			return out[i].DateUploaded > out[j].DateUploaded
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryMaterialRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.materials[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.materials, id)
	return nil
}

type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: make(map[string]model.Profile)}
}

func (r *MemoryProfileRepository) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[email]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (r *MemoryProfileRepository) Create(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[profile.Email]; exists {
		return apperr.Invalid("profile email already exists")
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.profiles[profile.Email] = *profile
	return nil
}

func (r *MemoryProfileRepository) Save(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.UpdatedAt = time.Now()
	r.profiles[profile.Email] = *profile
	return nil
}

// Count reports how many profiles are stored.
func (r *MemoryProfileRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

func cloneNote(note model.Note) model.Note {
	if note.Questions != nil {
		note.Questions = append([]model.QAPair(nil), note.Questions...)
	}
	return note
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
