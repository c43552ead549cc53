package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studynotes/internal/extract"
	"studynotes/internal/filestore"
	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

const (
	NoTextPlaceholder = "[No text extracted]"
	ManualNoteTitle   = "Manual Note"
)

type Target int

const (
	TargetNote Target = iota
	TargetMaterial
)

type IngestTextInput struct {
	Text          string
	Title         string
	RetainContent bool
}

type IngestFileInput struct {
	Data          []byte
	MediaType     string
	Filename      string
	Target        Target
	RetainContent bool
}

// IngestResult holds exactly one of Note or Material, depending on the target.
type IngestResult struct {
	Note     *model.Note
	Material *model.StudyMaterial
}

type IngestService struct {
	gateway      *Gateway
	extractor    TextExtractor
	notes        NoteStore
	materials    MaterialStore
	files        FileStore
	maxBytes     int64
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewIngestService(
	gateway *Gateway,
	extractor TextExtractor,
	notes NoteStore,
	materials MaterialStore,
	files FileStore,
	maxBytes int64,
	storeTimeout time.Duration,
	logger *zap.Logger,
) *IngestService {
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &IngestService{
		gateway:      gateway,
		extractor:    extractor,
		notes:        notes,
		materials:    materials,
		files:        files,
		maxBytes:     maxBytes,
		storeTimeout: storeTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// IngestText turns typed text into a Note with a model-written summary.
func (s *IngestService) IngestText(ctx context.Context, input IngestTextInput) (*model.Note, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperr.Invalid("text is required")
	}

	summary, err := s.gateway.SummarizeStructured(ctx, text)
	var parseErr *apperr.ParseError
	switch {
	case err == nil:
	case errors.As(err, &parseErr):
		s.logger.Warn("structured summary was not json, keeping raw output", zap.Int("raw_len", len(parseErr.Raw)))
		summary = &StructuredSummary{Summary: strings.TrimSpace(parseErr.Raw)}
	default:
		return nil, fmt.Errorf("ingest text failed: %w", err)
	}

	note := &model.Note{
		Title:     firstNonEmpty(input.Title, summary.Title, ManualNoteTitle),
		Summary:   summary.Summary,
		Questions: []model.QAPair{},
	}
	if input.RetainContent {
		note.Content = input.Text
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.notes.Create(storeCtx, note); err != nil {
		return nil, err
	}
	s.logger.Info("note ingested from text", zap.String("note_id", note.ID))
	return note, nil
}

// IngestFile extracts text from a PDF or image and stores the result as a Note
// or a StudyMaterial. Nothing is persisted unless every external call succeeds.
func (s *IngestService) IngestFile(ctx context.Context, input IngestFileInput) (*IngestResult, error) {
	if len(input.Data) == 0 {
		return nil, apperr.Invalid("file is empty")
	}
	if s.maxBytes > 0 && int64(len(input.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, s.maxBytes)
	}
	mediaType := extract.MediaType(input.MediaType, input.Data)
	fileType, err := extract.FileType(mediaType)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("filename", input.Filename), zap.String("media_type", mediaType))

	text, err := s.extractor.Extract(ctx, input.Data, mediaType)
	if err != nil {
		logger.Error("extract text failed", zap.Error(err))
		return nil, fmt.Errorf("ingest file failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		text = NoTextPlaceholder
	}

	if input.Target == TargetMaterial {
		material, err := s.ingestMaterial(ctx, input, mediaType, fileType, text, logger)
		if err != nil {
			return nil, err
		}
		return &IngestResult{Material: material}, nil
	}

	summary, err := s.gateway.SummarizeDocument(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ingest file failed: %w", err)
	}
	note := &model.Note{
		Title:     titleFromFilename(input.Filename),
		Summary:   summary,
		Questions: []model.QAPair{},
	}
	if input.RetainContent {
		note.Content = text
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.notes.Create(storeCtx, note); err != nil {
		return nil, err
	}
	logger.Info("note ingested from file", zap.String("note_id", note.ID))
	return &IngestResult{Note: note}, nil
}

func (s *IngestService) ingestMaterial(
	ctx context.Context,
	input IngestFileInput,
	mediaType, fileType, text string,
	logger *zap.Logger,
) (*model.StudyMaterial, error) {
	var summary, title string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.gateway.SummarizeDocument(gctx, text)
		summary = out
		return err
	})
	g.Go(func() error {
		out, err := s.gateway.SuggestTitle(gctx, text)
		title = out
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest material failed: %w", err)
	}
	if title == "" {
		title = titleFromFilename(input.Filename)
	}

	now := s.now()
	key := fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], filestore.SanitizeName(input.Filename))

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.files.Save(storeCtx, key, bytes.NewReader(input.Data), int64(len(input.Data)), mediaType); err != nil {
		return nil, fmt.Errorf("store material file failed: %w", err)
	}

	material := &model.StudyMaterial{
		Title:            title,
		OriginalFilename: input.Filename,
		Filename:         title,
		FileType:         fileType,
		FileURL:          s.files.URL(key),
		StorageKey:       key,
		Summary:          summary,
		DateUploaded:     now.Format(time.DateOnly),
		CreatedAt:        now,
	}
	if err := s.materials.Create(storeCtx, material); err != nil {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer cleanupCancel()
		if delErr := s.files.Delete(cleanupCtx, key); delErr != nil {
			logger.Warn("remove orphaned material file failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	logger.Info("study material ingested", zap.String("material_id", material.ID), zap.String("key", key))
	return material, nil
}

func titleFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	title := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" || title == "." || title == "/" {
		return "Untitled"
	}
	return title
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
