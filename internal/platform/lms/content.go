package lms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	dErrors "mobile-gateway/pkg/domain-errors"
)

// HTMLBlockSource is the authored content of one HTML block, as the
// platform exports it for packaging.
type HTMLBlockSource struct {
	CourseID    string    `json:"course_id"`
	BlockID     string    `json:"block_id"`
	BlockType   string    `json:"block_type"`
	Org         string    `json:"org"`
	Course      string    `json:"course"`
	DisplayName string    `json:"display_name"`
	HTML        string    `json:"html"`
	PublishedAt time.Time `json:"published_at"`
}

// CourseHTMLBlocks lists the HTML blocks of a course with their authored
// markup, the input to the offline packager.
func (c *Client) CourseHTMLBlocks(ctx context.Context, courseID string) ([]HTMLBlockSource, error) {
	var out struct {
		Blocks []HTMLBlockSource `json:"blocks"`
	}
	q := url.Values{"course_id": {courseID}, "block_type": {"html"}}
	if err := c.do(ctx, http.MethodGet, "/api/content/v1/export_blocks/", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Blocks, nil
}

// HTMLBlock fetches one HTML block's authored content.
func (c *Client) HTMLBlock(ctx context.Context, courseID, blockID string) (*HTMLBlockSource, error) {
	q := url.Values{"course_id": {courseID}}
	var out HTMLBlockSource
	if err := c.do(ctx, http.MethodGet, "/api/content/v1/export_blocks/"+url.PathEscape(blockID)+"/", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchAsset downloads one static course asset by its platform path
// (e.g. /static/diagram.png resolved against the course).
func (c *Client) FetchAsset(ctx context.Context, courseID, assetPath string) ([]byte, error) {
	u := c.baseURL + "/asset/" + url.PathEscape(courseID) + assetPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build asset request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "lms unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, c.statusError(resp.StatusCode, assetPath, "")
	}
	return io.ReadAll(resp.Body)
}

// PublishGrade records an earned score for a user on a block, used when a
// runtime package reports a score back.
func (c *Client) PublishGrade(ctx context.Context, username, blockID string, earned, possible float64) error {
	body := struct {
		Username string  `json:"username"`
		Earned   float64 `json:"earned"`
		Possible float64 `json:"possible"`
	}{username, earned, possible}
	return c.do(ctx, http.MethodPost, "/api/grades/v1/blocks/"+url.PathEscape(blockID)+"/score/", nil, body, nil)
}

// EmitCompletion records block completion for a user, 0 to 1.
func (c *Client) EmitCompletion(ctx context.Context, username, blockID string, completion float64) error {
	body := struct {
		Username   string  `json:"username"`
		Completion float64 `json:"completion"`
	}{username, completion}
	return c.do(ctx, http.MethodPost, "/api/completion/v1/blocks/"+url.PathEscape(blockID)+"/", nil, body, nil)
}
