package app

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"studynotes/internal/filestore"
	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

type MaterialService struct {
	ingest       *IngestService
	materials    MaterialStore
	files        FileStore
	storeTimeout time.Duration
	logger       *zap.Logger
}

func NewMaterialService(ingest *IngestService, materials MaterialStore, files FileStore, storeTimeout time.Duration, logger *zap.Logger) *MaterialService {
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &MaterialService{
		ingest:       ingest,
		materials:    materials,
		files:        files,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

func (s *MaterialService) Upload(ctx context.Context, data []byte, mediaType, filename string) (*model.StudyMaterial, error) {
	result, err := s.ingest.IngestFile(ctx, IngestFileInput{
		Data:      data,
		MediaType: mediaType,
		Filename:  filename,
		Target:    TargetMaterial,
	})
	if err != nil {
		return nil, err
	}
	return result.Material, nil
}

// List returns materials newest first, filtered by filename or summary.
func (s *MaterialService) List(ctx context.Context, query string) ([]model.StudyMaterial, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	materials, err := s.materials.List(storeCtx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	if materials == nil {
		materials = []model.StudyMaterial{}
	}
	return materials, nil
}

func (s *MaterialService) Get(ctx context.Context, id string) (*model.StudyMaterial, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	material, err := s.materials.GetByID(storeCtx, id)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, apperr.ErrNotFound
	}
	return material, nil
}

// Delete removes the record, then its stored file. A file that cannot be
// removed is logged and left behind.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	material, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.materials.Delete(storeCtx, id); err != nil {
		return err
	}
	if material.StorageKey == "" {
		return nil
	}
	if err := s.files.Delete(storeCtx, material.StorageKey); err != nil {
		s.logger.Warn("delete material file failed",
			zap.String("material_id", id),
			zap.String("key", material.StorageKey),
			zap.Error(err),
		)
	}
	return nil
}

// OpenFile streams a stored file by key. The caller closes the reader.
func (s *MaterialService) OpenFile(ctx context.Context, key string) (io.ReadCloser, error) {
	if !filestore.ValidKey(key) {
		return nil, apperr.ErrNotFound
	}
	return s.files.Open(ctx, key)
}

// Download returns the material record together with its file contents.
func (s *MaterialService) Download(ctx context.Context, id string) (*model.StudyMaterial, io.ReadCloser, error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.OpenFile(ctx, material.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return material, rc, nil
}
