package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(ctx context.Context, material *model.StudyMaterial) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(material).Error; err != nil {
		return fmt.Errorf("create study material failed: %w", err)
	}
	return nil
}

func (r *MaterialRepository) GetByID(ctx context.Context, id string) (*model.StudyMaterial, error) {
	var material model.StudyMaterial
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get study material failed: %w", err)
	}
	return &material, nil
}

// List returns materials by newest upload, optionally filtered on filename or summary.
func (r *MaterialRepository) List(ctx context.Context, query string) ([]model.StudyMaterial, error) {
	db := r.db.WithContext(ctx).Model(&model.StudyMaterial{})
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		db = db.Where("LOWER(filename) LIKE ? OR LOWER(summary) LIKE ?", like, like)
	}
	materials := make([]model.StudyMaterial, 0)
	if err := db.Order("date_uploaded DESC").Order("created_at DESC").Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("list study materials failed: %w", err)
	}
	return materials, nil
}

func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.StudyMaterial{})
	if result.Error != nil {
		return fmt.Errorf("delete study material failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
