// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cairnfeed/activity/internal/feed"
)

// errorBody is the JSON shape written for every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// feedErrorStatus maps a feed.FeedError kind to the HTTP status the admin
// surface reports for it (SPEC_FULL §4.11, §7's propagation policy rendered
// over HTTP rather than in-process).
func feedErrorStatus(err error) (int, string) {
	var fe *feed.FeedError
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError, "internal"
	}
	switch fe.Kind {
	case feed.KindArgument:
		return http.StatusBadRequest, "invalid_argument"
	case feed.KindConfig:
		return http.StatusBadRequest, "invalid_config"
	case feed.KindNotFound:
		return http.StatusNotFound, "not_found"
	case feed.KindTimeout:
		return http.StatusGatewayTimeout, "timeout"
	case feed.KindTransport:
		return http.StatusBadGateway, "transport_error"
	default:
		return http.StatusInternalServerError, "provider_error"
	}
}

func writeFeedError(w http.ResponseWriter, err error) {
	status, code := feedErrorStatus(err)
	writeError(w, status, code, err.Error())
}

// userResult is the per-user entry shape used by every batch response
// below; it preserves input order per §4.6 and surfaces each user's error
// independently instead of failing the whole request.
type userResult[T any] struct {
	UserID string `json:"user_id"`
	Value  T      `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// toResults flattens a feed.Response into the ordered, per-user JSON shape
// every batch endpoint returns.
func toResults[T any](resp *feed.Response[T]) []userResult[T] {
	out := make([]userResult[T], 0, resp.Len())
	for _, userID := range resp.Keys() {
		r := userResult[T]{UserID: userID}
		if v, ok := resp.Value(userID); ok {
			r.Value = v
		} else if err := resp.Err(userID); err != nil {
			r.Error = err.Error()
		}
		out = append(out, r)
	}
	return out
}
