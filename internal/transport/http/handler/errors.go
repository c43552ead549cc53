package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studynotes/internal/pkg/apperr"
	"studynotes/internal/transport/http/middleware"
	"studynotes/internal/transport/http/response"
)

// writeError maps a service error onto a status and error code. 5xx causes are
// logged and hidden from the client.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var maxBytesErr *http.MaxBytesError
	status, code, message := http.StatusInternalServerError, response.CodeInternalServer, op+" failed"
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, apperr.ErrTooLarge):
		status, code, message = http.StatusRequestEntityTooLarge, response.CodeTooLarge, apperr.ErrTooLarge.Error()
	case errors.Is(err, apperr.ErrUnsupportedType):
		status, code, message = http.StatusUnsupportedMediaType, response.CodeUnsupportedType, err.Error()
	case errors.Is(err, apperr.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, response.CodeBadRequest, err.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status, code, message = http.StatusNotFound, response.CodeNotFound, "not found"
	case errors.Is(err, apperr.ErrExtraction):
		status, code, message = http.StatusInternalServerError, response.CodeExtraction, apperr.ErrExtraction.Error()
	case errors.Is(err, apperr.ErrParse):
		status, code, message = http.StatusBadGateway, response.CodeParse, apperr.ErrParse.Error()
	case errors.Is(err, apperr.ErrUpstream):
		status, code, message = http.StatusBadGateway, response.CodeUpstream, apperr.ErrUpstream.Error()
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}
	_ = c.Error(err)
	response.Error(c, status, code, message)
}

func badRequest(c *gin.Context, message string) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, message)
}

type upload struct {
	data      []byte
	filename  string
	mediaType string
}

// readUpload reads the first present multipart field of names. It returns
// (nil, nil) when none is present.
func readUpload(c *gin.Context, maxBytes int64, names ...string) (*upload, error) {
	var (
		header *multipart.FileHeader
		err    error
	)
	for _, name := range names {
		header, err = c.FormFile(name)
		if err == nil {
			break
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			return nil, apperr.Invalid("malformed multipart body")
		}
	}
	if header == nil {
		return nil, nil
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, maxBytes)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload failed: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	return &upload{
		data:      data,
		filename:  header.Filename,
		mediaType: header.Header.Get("Content-Type"),
	}, nil
}

// formBool returns nil when the field is absent.
func formBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperr.Invalid(name + " must be a boolean")
	}
	return &v, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Invalid(name + " must be a non-negative integer")
	}
	return v, nil
}
