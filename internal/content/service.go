// Package content glues the packagers to the platform: it resolves block
// sources and fans a course publish out into per-block repackaging.
package content

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"mobile-gateway/internal/content/htmlblock"
	"mobile-gateway/internal/platform/lms"
)

// BlockSource is the slice of the LMS API the content service consumes.
type BlockSource interface {
	CourseHTMLBlocks(ctx context.Context, courseID string) ([]lms.HTMLBlockSource, error)
	HTMLBlock(ctx context.Context, courseID, blockID string) (*lms.HTMLBlockSource, error)
}

// Service repackages course content. It implements events.Repackager.
type Service struct {
	source   BlockSource
	packager *htmlblock.Packager
	logger   *slog.Logger
}

// NewService builds the content service.
func NewService(source BlockSource, packager *htmlblock.Packager, logger *slog.Logger) *Service {
	return &Service{source: source, packager: packager, logger: logger}
}

// RepackageCourse rebuilds the offline bundle of every HTML block in a
// course. One failing block does not stop the rest; the errors are joined.
func (s *Service) RepackageCourse(ctx context.Context, courseID string) error {
	blocks, err := s.source.CourseHTMLBlocks(ctx, courseID)
	if err != nil {
		return fmt.Errorf("list html blocks of %s: %w", courseID, err)
	}

	var errs []error
	for _, block := range blocks {
		if err := s.packager.Repackage(ctx, block); err != nil {
			s.logger.ErrorContext(ctx, "block repackage failed",
				"course_id", courseID,
				"block_id", block.BlockID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("block %s: %w", block.BlockID, err))
		}
	}
	return errors.Join(errs...)
}

// StudentViewData resolves a block's authored source and returns its
// packaged bundle description, building the bundle on first access.
func (s *Service) StudentViewData(ctx context.Context, courseID, blockID string) (*htmlblock.StudentViewData, error) {
	block, err := s.source.HTMLBlock(ctx, courseID, blockID)
	if err != nil {
		return nil, err
	}
	return s.packager.StudentViewData(ctx, *block)
}
