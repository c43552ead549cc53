package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studynotes/internal/app"
	"studynotes/internal/transport/http/response"
)

type ProfileHandler struct {
	profiles *app.ProfileService
	maxBytes int64
	logger   *zap.Logger
}

func NewProfileHandler(profiles *app.ProfileService, maxBytes int64, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxBytes: maxBytes, logger: logger}
}

// Update upserts a profile from a multipart form keyed by email.
func (h *ProfileHandler) Update(c *gin.Context) {
	avatar, err := readUpload(c, h.maxBytes, "avatar")
	if err != nil {
		writeError(c, h.logger, "update profile", err)
		return
	}

	input := app.ProfileInput{
		Name:       c.PostForm("name"),
		Email:      c.PostForm("email"),
		University: c.PostForm("university"),
		Major:      c.PostForm("major"),
	}
	if avatar != nil {
		input.Avatar = &app.Upload{Data: avatar.data, Filename: avatar.filename, MediaType: avatar.mediaType}
	}
	flags := []struct {
		name string
		dst  **bool
	}{
		{"studyReminders", &input.Notifications.StudyReminders},
		{"aiInsights", &input.Notifications.AIInsights},
		{"weeklyReports", &input.Notifications.WeeklyReports},
		{"newFeatures", &input.Notifications.NewFeatures},
	}
	for _, f := range flags {
		v, err := formBool(c, f.name)
		if err != nil {
			writeError(c, h.logger, "update profile", err)
			return
		}
		*f.dst = v
	}

	profile, err := h.profiles.Upsert(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.logger, "update profile", err)
		return
	}
	response.Message(c, "Profile updated successfully", gin.H{"profile": profile})
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, h.logger, "get profile", err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}
