package service

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"

	"mobile-gateway/internal/events"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/sentinel"
)

// maxCodeAttempts bounds the generate-and-store loop. Collisions on a
// 128-bit code are vanishingly rare; exhausting the bound means the store
// is misbehaving, not that we ran out of luck.
const maxCodeAttempts = 5

// ErrCodeGenerationExhausted is returned when every generation attempt
// collided with an existing code.
var ErrCodeGenerationExhausted = dErrors.New(dErrors.CodeInternal, "authorization code generation exhausted")

// newCode produces a 32-character lowercase hex authorization code.
func newCode() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// IssueCode returns the authorization code for userID, creating one if the
// account has none. Issuance is idempotent: repeated calls for the same
// account return the same code until it is exchanged. A nil userID means
// no authenticated account and yields an empty code without error.
func (s *Service) IssueCode(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", nil
	}
	ctx, span := s.tracer.Start(ctx, "auth.issue_code")
	defer span.End()

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := newCode()
		stored, err := s.codes.Assign(ctx, userID, code)
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.CodeRetries.Inc()
			s.logger.WarnContext(ctx, "authorization code collision",
				"user_id", userID,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "persist authorization code")
		}
		if stored == code {
			// A fresh code was written, not an existing one returned.
			s.metrics.CodesIssued.Inc()
			s.emit(ctx, events.AuthEvent{
				Type:   events.TypeCodeIssued,
				UserID: userID.String(),
			})
		}
		return stored, nil
	}
	return "", ErrCodeGenerationExhausted
}
