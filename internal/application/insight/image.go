package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrEmptySubject is returned when there is nothing to draw
var ErrEmptySubject = shared.NewDomainError("IMAGE_EMPTY_SUBJECT", "Enter a title before generating an image")

// ImageService renders illustrative images for console content
type ImageService struct {
	ai     ImageGenerator
	logger *zap.Logger
}

// NewImageService creates an image service
func NewImageService(ai ImageGenerator, logger *zap.Logger) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{ai: ai, logger: logger.Named("image")}
}

// Prompt builds the image prompt for a content title
func Prompt(subject string) string {
	return fmt.Sprintf("A clean, modern, professional editorial illustration for a financial-services website about: %q. "+
		"No text, no logos, soft corporate colour palette.", subject)
}

// Generate returns an image reference for subject. Failures are returned to
// the caller and the working copy is left untouched.
func (s *ImageService) Generate(ctx context.Context, subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrEmptySubject
	}
	url, err := s.ai.GenerateImage(ctx, Prompt(subject))
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Image generation failed", append(logger.ErrorFields(err), zap.String("subject", subject))...)
		return "", err
	}
	return url, nil
}
