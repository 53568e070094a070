package scorm

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"log/slog"

	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/platform/sentinel"
)

// State is the SCORM runtime data tracked for one learner and block.
type State struct {
	// Values holds the raw cmi.* data model entries as the player set
	// them, plus last_updated_time.
	Values map[string]any `json:"values"`
	// LessonScore is the normalized 0..1 score, nil until a score arrives.
	LessonScore   *float64 `json:"lesson_score,omitempty"`
	LessonStatus  string   `json:"lesson_status,omitempty"`
	SuccessStatus string   `json:"success_status,omitempty"`
	// LastUpdatedTime orders batched offline syncs; stale batches lose.
	LastUpdatedTime int64 `json:"last_updated_time"`
}

func newState() *State {
	return &State{Values: map[string]any{}}
}

// TrackerStore persists runtime state per learner and block.
type TrackerStore interface {
	// Load returns the state, sentinel.ErrNotFound when none exists yet.
	Load(ctx context.Context, username, blockID string) (*State, error)
	Save(ctx context.Context, username, blockID string, state *State) error
}

// Runtime receives the grade and completion signals the tracker derives.
// internal/platform/lms.Client implements it.
type Runtime interface {
	PublishGrade(ctx context.Context, username, blockID string, earned, possible float64) error
	EmitCompletion(ctx context.Context, username, blockID string, completion float64) error
}

// BlockConfig carries the per-block grading settings the tracker needs.
type BlockConfig struct {
	HasScore bool
	// Weight scales the normalized score into the gradebook.
	Weight float64
}

// Tracker applies SCORM runtime writes and forwards their grading side
// effects.
type Tracker struct {
	states  TrackerStore
	runtime Runtime
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerClock injects a deterministic clock for tests.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker builds a tracker over the given state store and runtime.
func NewTracker(states TrackerStore, runtime Runtime, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		states:  states,
		runtime: runtime,
		logger:  logger,
		tracer:  otel.Tracer("mobile-gateway/scorm"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetValueRequest is one runtime write from the player.
type SetValueRequest struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// SetValuesRequest is a batched offline sync: every write the app queued
// plus the client-side timestamp of the newest one.
type SetValuesRequest struct {
	Data            []SetValueRequest `json:"data"`
	LastUpdatedTime int64             `json:"last_updated_time"`
}

// GetValues returns the raw runtime data for a learner and block.
func (t *Tracker) GetValues(ctx context.Context, username, blockID string) (map[string]any, error) {
	state, err := t.load(ctx, username, blockID)
	if err != nil {
		return nil, err
	}
	return state.snapshot(), nil
}

// SetValue applies one live runtime write and returns the result context
// the SCORM API contract expects.
func (t *Tracker) SetValue(ctx context.Context, username, blockID string, cfg BlockConfig, req SetValueRequest) (map[string]any, error) {
	ctx, span := t.tracer.Start(ctx, "scorm.set_value")
	defer span.End()

	state, err := t.load(ctx, username, blockID)
	if err != nil {
		return nil, err
	}
	result, err := t.apply(ctx, username, blockID, cfg, state, req, true)
	if err != nil {
		return nil, err
	}
	if err := t.states.Save(ctx, username, blockID, state); err != nil {
		return nil, err
	}
	return result, nil
}

// SetValues applies a batched sync. The batch only lands when its timestamp
// is newer than the stored one; a stale batch returns the current state
// with is_updated false so the app reconciles instead of clobbering newer
// progress.
func (t *Tracker) SetValues(ctx context.Context, username, blockID string, cfg BlockConfig, req SetValuesRequest) (map[string]any, error) {
	ctx, span := t.tracer.Start(ctx, "scorm.set_values")
	defer span.End()

	state, err := t.load(ctx, username, blockID)
	if err != nil {
		return nil, err
	}

	updated := false
	if state.LastUpdatedTime < req.LastUpdatedTime {
		for _, datum := range req.Data {
			if _, err := t.apply(ctx, username, blockID, cfg, state, datum, false); err != nil {
				return nil, err
			}
		}
		state.LastUpdatedTime = req.LastUpdatedTime
		state.Values["last_updated_time"] = req.LastUpdatedTime
		if err := t.states.Save(ctx, username, blockID, state); err != nil {
			return nil, err
		}
		updated = true
	}

	out := state.snapshot()
	out["is_updated"] = updated
	return out, nil
}

func (t *Tracker) load(ctx context.Context, username, blockID string) (*State, error) {
	state, err := t.states.Load(ctx, username, blockID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return newState(), nil
	}
	if err != nil {
		return nil, err
	}
	if state.Values == nil {
		state.Values = map[string]any{}
	}
	return state, nil
}

// apply runs one write through the SCORM 1.2/2004 field mapping, forwarding
// grade and completion side effects.
func (t *Tracker) apply(ctx context.Context, username, blockID string, cfg BlockConfig, state *State, req SetValueRequest, setLastUpdatedTime bool) (map[string]any, error) {
	var (
		completionPercent *float64
		successStatus     string
		completionStatus  string
		lessonScore       *float64
	)

	state.Values[req.Name] = req.Value

	switch req.Name {
	case "cmi.core.lesson_status":
		switch status := stringValue(req.Value); status {
		case "passed", "failed":
			successStatus = status
		case "completed", "incomplete":
			completionStatus = status
		}
	case "cmi.success_status":
		successStatus = stringValue(req.Value)
	case "cmi.completion_status":
		completionStatus = stringValue(req.Value)
	case "cmi.core.score.raw", "cmi.score.raw":
		if cfg.HasScore {
			raw, err := positiveFloat(req.Value, req.Name)
			if err != nil {
				return nil, err
			}
			normalized := raw / 100.0
			lessonScore = &normalized
		}
	case "cmi.progress_measure":
		measure, err := positiveFloat(req.Value, req.Name)
		if err != nil {
			return nil, err
		}
		completionPercent = &measure
	}

	result := map[string]any{"result": "success"}

	if lessonScore != nil {
		state.LessonScore = lessonScore
		result["grade"] = state.grade(cfg)
		if cfg.HasScore {
			t.publishGrade(ctx, username, blockID, cfg, state, setLastUpdatedTime)
		}
	}
	if completionPercent != nil {
		t.emitCompletion(ctx, username, blockID, *completionPercent)
	}
	if completionStatus != "" {
		state.LessonStatus = completionStatus
		result["completion_status"] = completionStatus
	}
	if successStatus != "" {
		state.SuccessStatus = successStatus
	}
	if completionStatus == "completed" {
		t.emitCompletion(ctx, username, blockID, 1)
	}
	if (successStatus != "" || completionStatus == "completed") && cfg.HasScore {
		t.publishGrade(ctx, username, blockID, cfg, state, setLastUpdatedTime)
	}
	return result, nil
}

func (t *Tracker) publishGrade(ctx context.Context, username, blockID string, cfg BlockConfig, state *State, setLastUpdatedTime bool) {
	if setLastUpdatedTime {
		state.LastUpdatedTime = t.now().Unix()
		state.Values["last_updated_time"] = state.LastUpdatedTime
	}
	if err := t.runtime.PublishGrade(ctx, username, blockID, state.grade(cfg), cfg.Weight); err != nil {
		t.logger.WarnContext(ctx, "grade publication failed",
			"block_id", blockID,
			"error", err,
		)
	}
}

func (t *Tracker) emitCompletion(ctx context.Context, username, blockID string, completion float64) {
	if err := t.runtime.EmitCompletion(ctx, username, blockID, completion); err != nil {
		t.logger.WarnContext(ctx, "completion emission failed",
			"block_id", blockID,
			"error", err,
		)
	}
}

// grade scales the normalized lesson score into the block's weight.
func (s *State) grade(cfg BlockConfig) float64 {
	if s.LessonScore == nil {
		return 0
	}
	return *s.LessonScore * cfg.Weight
}

// snapshot renders the raw values map for API responses.
func (s *State) snapshot() map[string]any {
	out := make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		out[k] = v
	}
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// positiveFloat parses a non-negative float from the player's value, which
// arrives as either a JSON number or a string.
func positiveFloat(v any, name string) (float64, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, dErrors.Newf(dErrors.CodeBadRequest, "Could not parse value %v for cmi datamodel %s.", v, name)
		}
		f = parsed
	default:
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "Could not parse value %v for cmi datamodel %s.", v, name)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "Could not parse value %v for cmi datamodel %s.", v, name)
	}
	return f, nil
}
