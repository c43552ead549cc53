package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studynotes/internal/extract"
	"studynotes/internal/filestore"
	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

type Upload struct {
	Data      []byte
	Filename  string
	MediaType string
}

// NotificationPatch holds the preference flags a request set explicitly.
type NotificationPatch struct {
	StudyReminders *bool
	AIInsights     *bool
	WeeklyReports  *bool
	NewFeatures    *bool
}

func (p NotificationPatch) apply(prefs model.NotificationPreferences) model.NotificationPreferences {
	if p.StudyReminders != nil {
		prefs.StudyReminders = *p.StudyReminders
	}
	if p.AIInsights != nil {
		prefs.AIInsights = *p.AIInsights
	}
	if p.WeeklyReports != nil {
		prefs.WeeklyReports = *p.WeeklyReports
	}
	if p.NewFeatures != nil {
		prefs.NewFeatures = *p.NewFeatures
	}
	return prefs
}

type ProfileInput struct {
	Name          string
	Email         string
	University    string
	Major         string
	Avatar        *Upload
	Notifications NotificationPatch
}

type ProfileService struct {
	profiles     ProfileStore
	files        FileStore
	maxBytes     int64
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewProfileService(profiles ProfileStore, files FileStore, maxBytes int64, storeTimeout time.Duration, logger *zap.Logger) *ProfileService {
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &ProfileService{
		profiles:     profiles,
		files:        files,
		maxBytes:     maxBytes,
		storeTimeout: storeTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// Upsert creates or updates the profile identified by email. The avatar URL
// only changes when a new avatar is supplied.
func (s *ProfileService) Upsert(ctx context.Context, input ProfileInput) (*model.Profile, error) {
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Invalid("a valid email is required")
	}

	if input.Avatar == nil || len(input.Avatar.Data) == 0 {
		return s.upsert(ctx, email, input, "")
	}

	key, err := s.saveAvatar(ctx, email, input.Avatar)
	if err != nil {
		return nil, err
	}
	profile, err := s.upsert(ctx, email, input, s.files.URL(key))
	if err != nil {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer cleanupCancel()
		if delErr := s.files.Delete(cleanupCtx, key); delErr != nil {
			s.logger.Warn("remove orphaned avatar failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) upsert(ctx context.Context, email string, input ProfileInput, avatarURL string) (*model.Profile, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.profiles.FindByEmail(storeCtx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		profile := &model.Profile{
			Name:                    strings.TrimSpace(input.Name),
			Email:                   email,
			AvatarURL:               avatarURL,
			University:              strings.TrimSpace(input.University),
			Major:                   strings.TrimSpace(input.Major),
			NotificationPreferences: input.Notifications.apply(model.DefaultNotificationPreferences()),
		}
		createErr := s.profiles.Create(storeCtx, profile)
		if createErr == nil {
			s.logger.Info("profile created", zap.String("profile_id", profile.ID))
			return profile, nil
		}
		// A concurrent request may have created the same email first.
		existing, err = s.profiles.FindByEmail(storeCtx, email)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, createErr
		}
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.University = strings.TrimSpace(input.University)
	existing.Major = strings.TrimSpace(input.Major)
	if avatarURL != "" {
		existing.AvatarURL = avatarURL
	}
	existing.NotificationPreferences = input.Notifications.apply(existing.NotificationPreferences)
	if err := s.profiles.Save(storeCtx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ProfileService) Get(ctx context.Context, email string) (*model.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Invalid("email is required")
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	profile, err := s.profiles.FindByEmail(storeCtx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.ErrNotFound
	}
	return profile, nil
}

// saveAvatar validates and stores an avatar image and returns its storage key.
func (s *ProfileService) saveAvatar(ctx context.Context, email string, avatar *Upload) (string, error) {
	if s.maxBytes > 0 && int64(len(avatar.Data)) > s.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, s.maxBytes)
	}
	mediaType := extract.MediaType(avatar.MediaType, avatar.Data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: avatar must be an image, got %s", apperr.ErrUnsupportedType, mediaType)
	}

	name := avatar.Filename
	if name == "" {
		name = "avatar"
	}
	key := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString()[:8], filestore.SanitizeName(name))

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.files.Save(storeCtx, key, bytes.NewReader(avatar.Data), int64(len(avatar.Data)), mediaType); err != nil {
		return "", fmt.Errorf("store avatar failed: %w", err)
	}
	s.logger.Info("avatar stored", zap.String("email", email), zap.String("key", key))
	return key, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
