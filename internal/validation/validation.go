package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/curator-cms/curator/internal/config"
	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

// Validator checks candidate attachment content against the configured
// MIME allow-list and size/dimension constraints. Failures are
// ValidationError; nothing is persisted on failure.
type Validator struct {
	cfg          config.Attachments
	allowedMimes map[string]bool
}

func New(cfg config.Attachments) *Validator {
	return &Validator{
		cfg:          cfg,
		allowedMimes: buildAllowedMimeMap(cfg.AllowedImageMimes, cfg.AllowedFileMimes),
	}
}

// Validate produces a PendingFile from raw content. The data is fully
// buffered so the caller can both persist it and reset on error.
func (v *Validator) Validate(filename string, data io.Reader) (*domain.PendingFile, error) {
	content, err := readLimited(data, v.cfg.MaxFileSizeBytes)
	if err != nil {
		return nil, err
	}

	mimeType, err := detectMimeType(filename, content)
	if err != nil {
		return nil, err
	}
	if !v.allowedMimes[mimeType] {
		return nil, &internal_errors.ValidationError{
			Message: fmt.Sprintf("MIME type %s is not allowed (file: %s)", mimeType, filename),
		}
	}

	width, height := extractImageDimensions(content, mimeType)
	if v.cfg.MaxImagePixels > 0 && width != nil && height != nil {
		if *width > v.cfg.MaxImagePixels || *height > v.cfg.MaxImagePixels {
			return nil, &internal_errors.ValidationError{
				Message: fmt.Sprintf("image is %dx%d, limit is %d pixels per side", *width, *height, v.cfg.MaxImagePixels),
			}
		}
	}

	return &domain.PendingFile{
		FileCommonMetadata: domain.FileCommonMetadata{
			Filename:    filepath.Base(filename),
			MimeType:    mimeType,
			SizeBytes:   int64(len(content)),
			ImageWidth:  width,
			ImageHeight: height,
		},
		Data: bytes.NewReader(content),
	}, nil
}

func readLimited(data io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		content, err := io.ReadAll(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read file data: %w", err)
		}
		return content, nil
	}

	// Read one byte past the limit to distinguish "exactly at" from "over".
	content, err := io.ReadAll(io.LimitReader(data, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	if int64(len(content)) > maxSize {
		return nil, &internal_errors.ValidationError{
			Message: fmt.Sprintf("file exceeds size limit of %d bytes", maxSize),
		}
	}
	return content, nil
}

func buildAllowedMimeMap(imageMimes, fileMimes []string) map[string]bool {
	allowed := make(map[string]bool)
	for _, m := range imageMimes {
		allowed[m] = true
	}
	for _, m := range fileMimes {
		allowed[m] = true
	}
	return allowed
}

// detectMimeType sniffs content first and falls back to the extension for
// types http.DetectContentType can't identify.
func detectMimeType(filename string, content []byte) (string, error) {
	mimeType := http.DetectContentType(content)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		ext := filepath.Ext(filename)
		if detected := mime.TypeByExtension(ext); detected != "" {
			mimeType = detected
			if i := strings.Index(mimeType, ";"); i >= 0 {
				mimeType = mimeType[:i]
			}
		}
	}

	if mimeType == "" {
		return "", &internal_errors.ValidationError{
			Message: fmt.Sprintf("could not detect MIME type for file: %s", filename),
		}
	}
	return mimeType, nil
}

func extractImageDimensions(content []byte, mimeType string) (*int, *int) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		// Not decodable is not fatal, dimensions stay unknown.
		return nil, nil
	}

	width, height := cfg.Width, cfg.Height
	return &width, &height
}

// ValidateAndParseMultipart enforces the request size limit and parses the
// multipart form. MaxBytesReader stops reading past the limit, so an
// oversized upload cannot exhaust the server.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return &internal_errors.ValidationError{Message: "payload too large"}
	}
	return nil
}
