// Package lms is the REST client for the upstream learning platform. Every
// outbound dependency of the gateway — accounts, the social-auth pipeline,
// course data, content sources — goes through this one client so the rest
// of the codebase depends on narrow interfaces it satisfies.
package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"log/slog"

	"mobile-gateway/internal/auth/federation"
	"mobile-gateway/internal/auth/models"
	"mobile-gateway/internal/platform/config"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/sentinel"
)

// Client talks to the LMS REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient builds a client for the configured LMS.
func NewClient(cfg config.LMS, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		tracer:  otel.Tracer("mobile-gateway/lms"),
	}
}

// apiError is the upstream error envelope.
type apiError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (e apiError) text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// do runs one request against the LMS, encoding body as JSON when non-nil
// and decoding the response into out when non-nil. Upstream statuses map
// onto the gateway's error codes so callers never see raw HTTP.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "lms."+method+" "+path,
		trace.WithAttributes(attribute.String("lms.path", path)))
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode lms request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build lms request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "lms unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var upstream apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&upstream)
		return c.statusError(resp.StatusCode, path, upstream.text())
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode lms response")
		}
	}
	return nil
}

func (c *Client) statusError(status int, path, detail string) error {
	if detail == "" {
		detail = fmt.Sprintf("lms returned %d for %s", status, path)
	}
	switch {
	case status == http.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, detail)
	case status == http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, detail)
	case status == http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, detail)
	case status >= 500:
		return dErrors.New(dErrors.CodeUnavailable, detail)
	default:
		return dErrors.New(dErrors.CodeBadRequest, detail)
	}
}

// --- social-auth pipeline (federation.PipelineClient) ---

type beginAuthRequest struct {
	CallbackURL string            `json:"callback_url"`
	Params      map[string]string `json:"params,omitempty"`
}

type completionEnvelope struct {
	User         *models.User `json:"user,omitempty"`
	PartialToken string       `json:"partial_token,omitempty"`
	Response     *struct {
		Status      int    `json:"status"`
		ContentType string `json:"content_type"`
		Body        string `json:"body"`
	} `json:"response,omitempty"`
}

func (e completionEnvelope) toCompletion() federation.Completion {
	out := federation.Completion{User: e.User}
	if e.PartialToken != "" {
		out.Partial = &federation.PartialState{Token: e.PartialToken}
	}
	if e.Response != nil {
		out.Response = &federation.CustomResponse{
			Status:      e.Response.Status,
			ContentType: e.Response.ContentType,
			Body:        []byte(e.Response.Body),
		}
	}
	return out
}

func flatten(params url.Values) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k := range params {
		out[k] = params.Get(k)
	}
	return out
}

// BeginAuth starts the platform pipeline for a backend and returns the
// provider redirect.
func (c *Client) BeginAuth(ctx context.Context, backend, callbackURL string, params url.Values) (federation.Redirect, error) {
	var resp struct {
		RedirectURL string `json:"redirect_url"`
	}
	err := c.do(ctx, http.MethodPost, "/api/third_party_auth/v0/auth/"+backend+"/begin/", nil,
		beginAuthRequest{CallbackURL: callbackURL, Params: flatten(params)}, &resp)
	if err != nil {
		return federation.Redirect{}, err
	}
	return federation.Redirect{URL: resp.RedirectURL}, nil
}

// CompleteAuth runs the pipeline's completion step from the provider
// callback parameters.
func (c *Client) CompleteAuth(ctx context.Context, backend string, callbackParams url.Values, authenticatedUserID string) (federation.Completion, error) {
	body := struct {
		Params              map[string]string `json:"params,omitempty"`
		AuthenticatedUserID string            `json:"authenticated_user_id,omitempty"`
	}{flatten(callbackParams), authenticatedUserID}

	var envelope completionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/third_party_auth/v0/auth/"+backend+"/complete/", nil, body, &envelope); err != nil {
		return federation.Completion{}, err
	}
	return envelope.toCompletion(), nil
}

// ResumeAuth continues a parked pipeline run.
func (c *Client) ResumeAuth(ctx context.Context, backend, partialToken string) (federation.Completion, error) {
	body := struct {
		PartialToken string `json:"partial_token"`
	}{partialToken}

	var envelope completionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/third_party_auth/v0/auth/"+backend+"/resume/", nil, body, &envelope); err != nil {
		return federation.Completion{}, err
	}
	return envelope.toCompletion(), nil
}

// --- accounts (service.UserDirectory) ---

// FindUser fetches the account record for a user ID.
func (c *Client) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/user/v1/accounts/by_id/"+userID.String()+"/", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Activate marks the account active without email confirmation.
func (c *Client) Activate(ctx context.Context, userID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/user/v1/accounts/"+userID.String()+"/activate/", nil, nil, nil)
}

// ActivationURL is the link the activation email carries.
func (c *Client) ActivationURL(userID uuid.UUID) string {
	return c.baseURL + "/activate/" + userID.String()
}

// PasswordHash fetches the stored credential hash for a username, used to
// verify a deactivation password without shipping it upstream in clear
// before the check.
func (c *Client) PasswordHash(ctx context.Context, username string) (string, error) {
	var resp struct {
		PasswordHash string `json:"password_hash"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/v1/accounts/"+url.PathEscape(username)+"/credential/", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.PasswordHash, nil
}
