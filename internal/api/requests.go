// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.New is expensive;
// the instance caches struct metadata and is safe for concurrent use.
var validate = validator.New()

// CreateSwipeRequest is the body of POST /api/v1/swipes.
type CreateSwipeRequest struct {
	SessionID     string `json:"session_id" validate:"required,uuid4"`
	DestinationID string `json:"destination_id" validate:"required,uuid4"`
	Action        string `json:"action" validate:"required,oneof=like skip detail_tap"`
	Direction     string `json:"direction" validate:"required,oneof=left right tap"`

	// Optional gesture telemetry captured by the client.
	Velocity       *float64 `json:"velocity,omitempty" validate:"omitempty,gte=0"`
	DurationMs     *int64   `json:"duration_ms,omitempty" validate:"omitempty,gte=0"`
	ViewDurationMs *int64   `json:"view_duration_ms,omitempty" validate:"omitempty,gte=0"`
}

// RecommendationsQuery holds the parsed query parameters of
// GET /api/v1/recommendations.
type RecommendationsQuery struct {
	SessionID string   `validate:"required,uuid4"`
	Budget    string   `validate:"required,oneof=low mid high"`
	Window    string   `validate:"required,oneof=evening halfday fullday"`
	Tags      []string `validate:"required,min=1,dive,required"`
}

// fieldError is one entry of a validation failure detail list.
type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// validateRequest runs struct validation and converts failures into
// field-level details suitable for a ValidationError response.
func validateRequest(req interface{}) (details []fieldError, err error) {
	err = validate.Struct(req)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	for _, fe := range verrs {
		details = append(details, fieldError{
			Field:  strings.ToLower(fe.Field()),
			Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return details, err
}

// splitTags parses a comma-separated tag list, dropping empty elements.
func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
