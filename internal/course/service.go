// Package course implements the mobile course endpoints: thin decorations
// over the platform's own APIs that add the fields the native apps need in
// one round trip.
package course

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"log/slog"

	"mobile-gateway/internal/course/metrics"
	"mobile-gateway/internal/course/store"
	"mobile-gateway/internal/platform/lms"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/sentinel"
)

// Platform is the slice of the LMS API the course endpoints consume.
// internal/platform/lms.Client implements it.
type Platform interface {
	CourseGrade(ctx context.Context, username, courseID string) (*lms.CourseGradeSummary, error)
	Enrollments(ctx context.Context, username string, page, pageSize int) (*lms.Page, error)
	CreateComment(ctx context.Context, username string, body map[string]any) (map[string]any, error)
	ProfileImage(ctx context.Context, username string) (map[string]any, error)
	Blocks(ctx context.Context, params url.Values, hideAccessDenials bool) (map[string]any, error)
	Overview(ctx context.Context, courseID string) (*lms.CourseOverview, error)
	CoursewareAccess(ctx context.Context, username, courseID string) (map[string]any, error)
	Certificate(ctx context.Context, username, courseID string) (*lms.CertificateStatus, error)
	CourseDetail(ctx context.Context, courseKey, username string) (map[string]any, error)
	IsEnrolled(ctx context.Context, username, courseKey string) (bool, error)
	Courses(ctx context.Context, filter lms.CourseFilter, page, pageSize int) (*lms.Page, error)
	PasswordHash(ctx context.Context, username string) (string, error)
	Deactivate(ctx context.Context, username string) error
}

// Service decorates platform responses for the mobile apps.
type Service struct {
	platform    Platform
	enrollments store.EnrollmentCache
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// NewService builds the course service. cache may be nil to disable
// enrollment caching.
func NewService(platform Platform, cache store.EnrollmentCache, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		platform:    platform,
		enrollments: cache,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("mobile-gateway/course"),
	}
}

// SubsectionProgress is one graded subsection in the progress summary.
type SubsectionProgress struct {
	Earned           float64     `json:"earned"`
	Total            float64     `json:"total"`
	PercentageString string      `json:"percentageString"`
	DisplayName      string      `json:"display_name"`
	Score            []lms.Score `json:"score"`
	ShowGrades       bool        `json:"show_grades"`
	Graded           bool        `json:"graded"`
	GradeType        string      `json:"grade_type"`
}

// ChapterProgress groups subsection progress under a chapter.
type ChapterProgress struct {
	DisplayName string               `json:"display_name"`
	Subsections []SubsectionProgress `json:"subsections"`
}

// Progress is the course progress summary response.
type Progress struct {
	Sections []ChapterProgress `json:"sections"`
}

// CourseProgress summarizes a user's graded progress through a course,
// chapter by chapter.
func (s *Service) CourseProgress(ctx context.Context, username, courseID string) (*Progress, error) {
	ctx, span := s.tracer.Start(ctx, "course.progress")
	defer span.End()

	summary, err := s.platform.CourseGrade(ctx, username, courseID)
	if err != nil {
		return nil, err
	}

	out := &Progress{Sections: make([]ChapterProgress, 0, len(summary.Chapters))}
	for _, chapter := range summary.Chapters {
		cp := ChapterProgress{
			DisplayName: chapter.DisplayName,
			Subsections: make([]SubsectionProgress, 0, len(chapter.Sections)),
		}
		for _, sec := range chapter.Sections {
			scores := sec.ProblemScores
			if scores == nil {
				scores = []lms.Score{}
			}
			cp.Subsections = append(cp.Subsections, SubsectionProgress{
				Earned:           sec.Earned,
				Total:            sec.Possible,
				PercentageString: fmt.Sprintf("%.0f%%", sec.PercentGraded*100),
				DisplayName:      sec.DisplayName,
				Score:            scores,
				ShowGrades:       sec.ShowGrades || summary.StaffAccess,
				Graded:           sec.Graded,
				GradeType:        sec.Format,
			})
		}
		out.Sections = append(out.Sections, cp)
	}
	return out, nil
}

// Enrollments lists every enrollment of a user. Pages are cached briefly so
// app foregrounding does not hammer the platform.
func (s *Service) Enrollments(ctx context.Context, username string, page, pageSize int) (*lms.Page, error) {
	ctx, span := s.tracer.Start(ctx, "course.enrollments")
	defer span.End()

	if s.enrollments != nil {
		switch cached, err := s.enrollments.Get(ctx, username, page); {
		case err == nil:
			s.metrics.CacheResults.WithLabelValues("hit").Inc()
			return cached, nil
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.CacheResults.WithLabelValues("miss").Inc()
		case errors.Is(err, sentinel.ErrExpired):
			s.metrics.CacheResults.WithLabelValues("expired").Inc()
		default:
			s.metrics.CacheResults.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "enrollment cache read failed", "error", err)
		}
	}

	fresh, err := s.platform.Enrollments(ctx, username, page, pageSize)
	if err != nil {
		return nil, err
	}
	if s.enrollments != nil {
		if err := s.enrollments.Put(ctx, username, page, fresh); err != nil {
			s.logger.WarnContext(ctx, "enrollment cache write failed", "error", err)
		}
	}
	return fresh, nil
}

// CreateComment posts a discussion comment and appends the author's profile
// image metadata the way the mobile discussion screens expect.
func (s *Service) CreateComment(ctx context.Context, username string, body map[string]any) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "course.create_comment")
	defer span.End()

	comment, err := s.platform.CreateComment(ctx, username, body)
	if err != nil {
		return nil, err
	}

	profileImage := map[string]any{}
	if img, err := s.platform.ProfileImage(ctx, username); err == nil && img != nil {
		profileImage = img
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "profile image lookup failed",
			"username", username,
			"error", err,
		)
	}
	comment["profile_image"] = profileImage
	return comment, nil
}

// Blocks fetches the block tree for a course and folds the course-level
// info the apps need into the same response. v1 callers get access-denied
// blocks hidden; v2 callers see the denials.
func (s *Service) Blocks(ctx context.Context, username string, params url.Values, hideAccessDenials bool) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "course.blocks")
	defer span.End()

	courseID := params.Get("course_id")
	if courseID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "course_id is required.")
	}

	blocks, err := s.platform.Blocks(ctx, params, hideAccessDenials)
	if err != nil {
		return nil, err
	}

	overview, err := s.platform.Overview(ctx, courseID)
	if err != nil {
		return nil, err
	}
	access, err := s.platform.CoursewareAccess(ctx, username, courseID)
	if err != nil {
		return nil, err
	}

	certificate := map[string]any{}
	if status, err := s.platform.Certificate(ctx, username, courseID); err == nil && status.IsDownloadable {
		certificate["url"] = status.DownloadURL
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "certificate status lookup failed",
			"course_id", courseID,
			"error", err,
		)
	}

	blocks["id"] = overview.ID
	blocks["name"] = overview.Name
	blocks["number"] = overview.Number
	blocks["org"] = overview.Org
	blocks["start"] = overview.Start
	blocks["start_display"] = overview.StartDisplay
	blocks["start_type"] = overview.StartType
	blocks["end"] = overview.End
	blocks["courseware_access"] = access
	blocks["media"] = map[string]any{"image": overview.Media}
	blocks["certificate"] = certificate
	blocks["is_self_paced"] = overview.IsSelfPaced
	return blocks, nil
}

// CourseDetail returns the catalog detail for a course with the caller's
// enrollment state appended.
func (s *Service) CourseDetail(ctx context.Context, courseKey, username string) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "course.detail")
	defer span.End()

	detail, err := s.platform.CourseDetail(ctx, courseKey, username)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.platform.IsEnrolled(ctx, username, courseKey)
	if err != nil {
		return nil, err
	}
	detail["is_enrolled"] = enrolled
	return detail, nil
}

// Courses lists the courses visible to a user under the given filter.
func (s *Service) Courses(ctx context.Context, filter lms.CourseFilter, page, pageSize int) (*lms.Page, error) {
	ctx, span := s.tracer.Start(ctx, "course.list")
	defer span.End()
	return s.platform.Courses(ctx, filter, page, pageSize)
}

// Deactivate retires the caller's own account after re-verifying their
// password. Acting on another account is forbidden regardless of password.
func (s *Service) Deactivate(ctx context.Context, requester, target, password string) error {
	ctx, span := s.tracer.Start(ctx, "course.deactivate")
	defer span.End()

	if password == "" {
		fieldErrs := dErrors.FieldErrors{}
		fieldErrs.Add("password", "This field is required.")
		return fieldErrs
	}
	if target != "" && target != requester {
		return dErrors.New(dErrors.CodeForbidden, "You do not have permission to deactivate this account.")
	}

	hash, err := s.platform.PasswordHash(ctx, requester)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return dErrors.New(dErrors.CodeForbidden, "Password is incorrect.")
	}
	if err := s.platform.Deactivate(ctx, requester); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deactivated", "username", requester)
	return nil
}
