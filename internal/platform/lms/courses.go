package lms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Score is one problem's earned/possible pair.
type Score struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

// SectionGrade is the graded summary of one subsection.
type SectionGrade struct {
	DisplayName   string  `json:"display_name"`
	Earned        float64 `json:"earned"`
	Possible      float64 `json:"possible"`
	PercentGraded float64 `json:"percent_graded"`
	ProblemScores []Score `json:"problem_scores"`
	ShowGrades    bool    `json:"show_grades"`
	Graded        bool    `json:"graded"`
	Format        string  `json:"format"`
}

// ChapterGrade groups section grades under their chapter.
type ChapterGrade struct {
	DisplayName string         `json:"display_name"`
	Sections    []SectionGrade `json:"sections"`
}

// CourseGradeSummary is the gradebook read for one user and course.
type CourseGradeSummary struct {
	Chapters    []ChapterGrade `json:"chapters"`
	StaffAccess bool           `json:"staff_access"`
}

// CourseGrade reads the per-chapter grade summary for a user.
func (c *Client) CourseGrade(ctx context.Context, username, courseID string) (*CourseGradeSummary, error) {
	q := url.Values{"username": {username}}
	var summary CourseGradeSummary
	if err := c.do(ctx, http.MethodGet, "/api/grades/v1/courses/"+url.PathEscape(courseID)+"/summary/", q, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Page is one page of an upstream paginated listing, items untyped so the
// gateway can decorate and pass them through unchanged.
type Page struct {
	Count       int              `json:"count"`
	Next        *string          `json:"next"`
	Previous    *string          `json:"previous"`
	CurrentPage int              `json:"current_page"`
	Start       int              `json:"start"`
	Results     []map[string]any `json:"results"`
}

// Enrollments lists every enrollment of a user, one page at a time.
func (c *Client) Enrollments(ctx context.Context, username string, page, pageSize int) (*Page, error) {
	q := url.Values{
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(pageSize)},
	}
	var out Page
	if err := c.do(ctx, http.MethodGet, "/api/mobile/v1/users/"+url.PathEscape(username)+"/course_enrollments/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateComment posts a discussion comment on behalf of username and
// returns the created comment as the discussion service renders it.
func (c *Client) CreateComment(ctx context.Context, username string, body map[string]any) (map[string]any, error) {
	q := url.Values{"username": {username}}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/discussion/v1/comments/", q, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProfileImage fetches the profile image metadata for a user, empty map
// when the user has no profile.
func (c *Client) ProfileImage(ctx context.Context, username string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/api/user/v1/accounts/"+url.PathEscape(username)+"/profile_image/", nil, nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Blocks fetches the course block tree. hideAccessDenials controls whether
// gated blocks are silently dropped or annotated with their denial.
func (c *Client) Blocks(ctx context.Context, params url.Values, hideAccessDenials bool) (map[string]any, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("hide_access_denials", strconv.FormatBool(hideAccessDenials))
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/courses/v2/blocks/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CourseOverview is the catalog record for one course.
type CourseOverview struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Number       string         `json:"number"`
	Org          string         `json:"org"`
	Start        *string        `json:"start"`
	StartDisplay string         `json:"start_display"`
	StartType    string         `json:"start_type"`
	End          *string        `json:"end"`
	Media        map[string]any `json:"media"`
	IsSelfPaced  bool           `json:"is_self_paced"`
}

// Overview fetches the catalog record for a course.
func (c *Client) Overview(ctx context.Context, courseID string) (*CourseOverview, error) {
	var out CourseOverview
	if err := c.do(ctx, http.MethodGet, "/api/courses/v1/courses/"+url.PathEscape(courseID)+"/overview/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CoursewareAccess reports whether a user may load a course, with the
// denial serialized when not.
func (c *Client) CoursewareAccess(ctx context.Context, username, courseID string) (map[string]any, error) {
	q := url.Values{"username": {username}, "course_id": {courseID}}
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/courseware/access/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CertificateStatus is the downloadable-certificate check for a user and
// course.
type CertificateStatus struct {
	IsDownloadable bool   `json:"is_downloadable"`
	DownloadURL    string `json:"download_url"`
}

// Certificate reports the user's certificate status in a course.
func (c *Client) Certificate(ctx context.Context, username, courseID string) (*CertificateStatus, error) {
	q := url.Values{"username": {username}, "course_id": {courseID}}
	var out CertificateStatus
	if err := c.do(ctx, http.MethodGet, "/api/certificates/v0/status/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CourseDetail fetches the course detail payload as the catalog renders it.
func (c *Client) CourseDetail(ctx context.Context, courseKey, username string) (map[string]any, error) {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/courses/v1/courses/"+url.PathEscape(courseKey)+"/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsEnrolled reports whether a user holds an active enrollment in a course.
func (c *Client) IsEnrolled(ctx context.Context, username, courseKey string) (bool, error) {
	q := url.Values{"username": {username}, "course_id": {courseKey}}
	var out struct {
		IsEnrolled bool `json:"is_enrolled"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/enrollment/v1/enrollment_status/", q, nil, &out); err != nil {
		return false, err
	}
	return out.IsEnrolled, nil
}

// CourseFilter narrows the course listing.
type CourseFilter struct {
	Username   string
	Org        string
	SearchTerm string
	// Permissions each have to hold for the user for a course to show.
	Permissions []string
}

// Courses lists the courses visible to a user under the given filter.
func (c *Client) Courses(ctx context.Context, filter CourseFilter, page, pageSize int) (*Page, error) {
	q := url.Values{
		"page":      {strconv.Itoa(page)},
		"page_size": {strconv.Itoa(pageSize)},
	}
	if filter.Username != "" {
		q.Set("username", filter.Username)
	}
	if filter.Org != "" {
		q.Set("org", filter.Org)
	}
	if filter.SearchTerm != "" {
		q.Set("search_term", filter.SearchTerm)
	}
	for _, p := range filter.Permissions {
		q.Add("permissions", p)
	}
	var out Page
	if err := c.do(ctx, http.MethodGet, "/api/courses/v1/courses/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deactivate retires an account: unusable password, forced logout, and a
// retirement record upstream.
func (c *Client) Deactivate(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodPost, "/api/user/v1/accounts/"+url.PathEscape(username)+"/deactivate/", nil, nil, nil)
}
