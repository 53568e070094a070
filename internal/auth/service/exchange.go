package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"mobile-gateway/internal/auth/models"
	clientstore "mobile-gateway/internal/auth/store/client"
	"mobile-gateway/internal/events"
	"mobile-gateway/internal/token"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/sentinel"
)

// codeLength is the fixed width of issued authorization codes.
const codeLength = 32

// ExchangeCode trades a one-time authorization code for a bearer token.
// Both inputs are validated independently so a client with a bad id and a
// bad code learns about both in one round trip. The code is cleared only
// after the token mints, so a failed mint leaves it exchangeable.
func (s *Service) ExchangeCode(ctx context.Context, req models.ExchangeRequest) (*models.TokenResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.exchange_code")
	defer span.End()
	timer := prometheus.NewTimer(s.metrics.ExchangeDuration)
	defer timer.ObserveDuration()

	fieldErrs := dErrors.FieldErrors{}

	var client *models.Client
	switch {
	case req.ClientID == "":
		fieldErrs.Add("client_id", "This field is required.")
	default:
		found, err := s.clients.FindByClientID(ctx, req.ClientID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			fieldErrs.Add("client_id", fmt.Sprintf("Client id [%s] does not exist.", req.ClientID))
		case err != nil:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up client")
		default:
			client = found
		}
	}

	var userID uuid.UUID
	switch {
	case req.AuthorizationCode == "":
		fieldErrs.Add("authorization_code", "This field is required.")
	case len(req.AuthorizationCode) > codeLength:
		fieldErrs.Add("authorization_code", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", codeLength, len(req.AuthorizationCode)))
	default:
		found, err := s.codes.FindUser(ctx, req.AuthorizationCode)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			fieldErrs.Add("authorization_code", fmt.Sprintf("Can't find user associated with [%s] authorization code.", req.AuthorizationCode))
		case err != nil:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve authorization code")
		default:
			userID = found
		}
	}

	if client != nil && client.IsConfidential() {
		if req.ClientSecret == "" || !clientstore.VerifySecret(client, req.ClientSecret) {
			fieldErrs.Add("client_secret", "Invalid client secret.")
		}
	}

	if fieldErrs.HasErrors() {
		s.metrics.Exchanges.WithLabelValues("invalid").Inc()
		return nil, fieldErrs
	}

	result, err := s.tokens.CreateToken(ctx, token.GrantRequest{
		UserID:    userID,
		ClientID:  client.ClientID,
		Scopes:    s.cfg.DefaultScopes,
		GrantType: client.GrantType,
		ExpiresIn: s.accessTokenTTL(),
	})
	if err != nil {
		s.metrics.Exchanges.WithLabelValues("error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mint access token")
	}

	// Single use: the code stops resolving the moment a token exists for it.
	// Losing the race to a concurrent exchange is fine, the code is gone
	// either way.
	if err := s.codes.Clear(ctx, req.AuthorizationCode); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.Exchanges.WithLabelValues("error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "clear authorization code")
	}

	s.metrics.Exchanges.WithLabelValues("success").Inc()
	s.emit(ctx, events.AuthEvent{
		Type:     events.TypeCodeExchanged,
		UserID:   userID.String(),
		ClientID: client.ClientID,
	})
	s.logger.InfoContext(ctx, "authorization code exchanged",
		"user_id", userID,
		"client_id", client.ClientID,
	)
	return result, nil
}
