// Package validation checks launch requests arriving over HTTP before they
// reach the animation loop.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/opd-ai/go-trajectory/pkg/config"
)

// Request limits.
const (
	MaxRequestSize         = 4 * 1024
	MaxLaunchAngleDeg      = 360.0
	DefaultStartsPerMinute = 30
)

// ErrRateLimited is returned when a client starts runs too quickly.
var ErrRateLimited = errors.New("rate limit exceeded")

// LaunchRequest is the JSON body of a start request. Omitted fields keep
// the server's configured launch parameters.
type LaunchRequest struct {
	LaunchAngleDeg  *float64 `json:"launchAngleDeg"`
	LaunchSpeed     *float64 `json:"launchSpeed"`
	Gravity         *float64 `json:"gravity"`
	DragCoefficient *float64 `json:"dragCoefficient"`
	WindDirection   *int     `json:"windDirection"`
	WindSpeed       *float64 `json:"windSpeed"`
	ShowTrajectory  *bool    `json:"showTrajectory"`
}

// Apply overlays the fields present in r onto base.
func (r LaunchRequest) Apply(base config.SimulationConfig) config.SimulationConfig {
	if r.LaunchAngleDeg != nil {
		base.LaunchAngleDeg = *r.LaunchAngleDeg
	}
	if r.LaunchSpeed != nil {
		base.LaunchSpeed = *r.LaunchSpeed
	}
	if r.Gravity != nil {
		base.Gravity = *r.Gravity
	}
	if r.DragCoefficient != nil {
		base.DragCoefficient = *r.DragCoefficient
	}
	if r.WindDirection != nil {
		base.WindDirection = *r.WindDirection
	}
	if r.WindSpeed != nil {
		base.WindSpeed = *r.WindSpeed
	}
	if r.ShowTrajectory != nil {
		base.ShowTrajectory = *r.ShowTrajectory
	}
	return base
}

// LaunchValidator decodes and rate limits launch requests
type LaunchValidator struct {
	rateLimiter     *RateLimiter
	startsPerMinute int
}

// NewLaunchValidator creates a validator allowing startsPerMinute launches
// per client. Non-positive values use DefaultStartsPerMinute.
func NewLaunchValidator(startsPerMinute int) *LaunchValidator {
	if startsPerMinute <= 0 {
		startsPerMinute = DefaultStartsPerMinute
	}
	return &LaunchValidator{
		rateLimiter:     NewRateLimiter(startsPerMinute, time.Minute),
		startsPerMinute: startsPerMinute,
	}
}

// Close releases resources used by the validator
func (v *LaunchValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// ValidateLaunch reads a launch request from body, merges it onto base and
// checks the result. clientID identifies the caller for rate limiting.
func (v *LaunchValidator) ValidateLaunch(body io.Reader, base config.SimulationConfig, clientID string) (config.SimulationConfig, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestSize+1))
	if err != nil {
		return config.SimulationConfig{}, fmt.Errorf("failed to read request: %w", err)
	}

	req, err := DecodeLaunchRequest(data)
	if err != nil {
		return config.SimulationConfig{}, err
	}

	if !v.rateLimiter.Allow(clientID) {
		return config.SimulationConfig{}, fmt.Errorf("%w: max %d starts per minute", ErrRateLimited, v.startsPerMinute)
	}

	cfg := req.Apply(base)
	if err := ValidateLaunchAngle(cfg.LaunchAngleDeg); err != nil {
		return config.SimulationConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.SimulationConfig{}, err
	}
	return cfg, nil
}

// DecodeLaunchRequest parses a request body. An empty body is an empty
// request; unknown fields are rejected.
func DecodeLaunchRequest(data []byte) (LaunchRequest, error) {
	var req LaunchRequest

	if len(data) > MaxRequestSize {
		return req, fmt.Errorf("request too large: %d bytes (max %d)", len(data), MaxRequestSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	if !json.Valid(data) {
		return req, fmt.Errorf("invalid JSON format")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid launch request: %w", err)
	}
	return req, nil
}

// ValidateLaunchAngle rejects angles of more than one full turn.
func ValidateLaunchAngle(angleDeg float64) error {
	if angleDeg < -MaxLaunchAngleDeg || angleDeg > MaxLaunchAngleDeg {
		return &config.ValidationError{
			Field:   "launchAngleDeg",
			Value:   angleDeg,
			Message: fmt.Sprintf("must be within ±%.0f degrees", MaxLaunchAngleDeg),
		}
	}
	return nil
}
