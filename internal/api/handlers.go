// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cairnfeed/activity/internal/feed"
	"github.com/cairnfeed/activity/internal/metrics"
	"github.com/cairnfeed/activity/internal/validation"
)

// Handler adapts the feed package's Activity handles to HTTP. It is glue,
// not core (SPEC_FULL §4.11): it parses a request, calls an Activity, and
// serializes the Response.
type Handler struct {
	registry    *feed.Registry
	callTimeout time.Duration
}

// NewHandler constructs a Handler over registry. callTimeout bounds every
// batch call's FeedContext deadline; zero means no deadline.
func NewHandler(registry *feed.Registry, callTimeout time.Duration) *Handler {
	return &Handler{registry: registry, callTimeout: callTimeout}
}

func (h *Handler) lookupFeed(w http.ResponseWriter, r *http.Request) (*feed.Feed, bool) {
	name := chi.URLParam(r, "feed")
	f, err := h.registry.Lookup(name)
	if err != nil {
		writeFeedError(w, err)
		return nil, false
	}
	return f, true
}

func (h *Handler) userIDs(r *http.Request) []string {
	if raw := r.URL.Query().Get("user_ids"); raw != "" {
		parts := strings.Split(raw, ",")
		ids := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}
		return ids
	}
	return []string{chi.URLParam(r, "user_id")}
}

func (h *Handler) activity(r *http.Request, f *feed.Feed) (*feed.MultiActivity, error) {
	ids := h.userIDs(r)
	if h.callTimeout <= 0 {
		return f.Activity(ids...)
	}
	return f.ActivityWithDeadline(time.Now().Add(h.callTimeout), ids...)
}

// providerKind labels RecordFeedOperation's provider dimension by the
// concrete Provider backing a feed.
func providerKind(p feed.Provider) string {
	switch p.(type) {
	case *feed.MemoryProvider:
		return "memory"
	case *feed.RemoteProvider:
		return "redis"
	default:
		return "unknown"
	}
}

// firstErrKind returns the FeedError kind of the first failing user in resp,
// or "" if every user succeeded, for RecordFeedOperation's error_kind label.
func firstErrKind[T any](resp *feed.Response[T]) string {
	for _, id := range resp.Keys() {
		err := resp.Err(id)
		if err == nil {
			continue
		}
		var fe *feed.FeedError
		if errors.As(err, &fe) {
			return fe.Kind.String()
		}
		return "unknown"
	}
	return ""
}

// recordOperation emits RecordFeedOperation for one handler-level Activity
// call against f, started at start.
func recordOperation[T any](f *feed.Feed, operation string, start time.Time, resp *feed.Response[T]) {
	metrics.RecordFeedOperation(operation, providerKind(f.Config().Provider), time.Since(start), firstErrKind(resp))
}

type storeRequest struct {
	Value string   `json:"value" validate:"required"`
	At    *float64 `json:"at"`
}

// Store handles POST /v1/feeds/{feed}/users/{user_id}/events.
func (h *Handler) Store(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFeed(w, r)
	if !ok {
		return
	}
	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", verr.Error())
		return
	}

	act, err := h.activity(r, f)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	ev := feed.NewEventNow(req.Value)
	if req.At != nil {
		ev = feed.NewEvent(req.Value, *req.At)
	}
	start := time.Now()
	resp := act.Store(r.Context(), ev)
	recordOperation(f, "store", start, resp)
	writeJSON(w, http.StatusOK, toResults(resp))
}

// Delete handles DELETE /v1/feeds/{feed}/users/{user_id}/events/{value}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFeed(w, r)
	if !ok {
		return
	}
	value := chi.URLParam(r, "value")
	act, err := h.activity(r, f)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	start := time.Now()
	resp := act.Delete(r.Context(), feed.NewEvent(value, 0))
	recordOperation(f, "delete", start, resp)
	writeJSON(w, http.StatusOK, toResults(resp))
}

// Paginate handles GET /v1/feeds/{feed}/users/{user_id}/events.
func (h *Handler) Paginate(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFeed(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := queryInt(q, "page", 1)
	perPage := queryInt(q, "per_page", f.Config().PerPage)
	peek := q.Get("peek") == "true"
	withTotal := q.Get("with_total") != "false"

	act, err := h.activity(r, f)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	start := time.Now()
	resp := act.Paginate(r.Context(), page, perPage, peek, withTotal)
	recordOperation(f, "paginate", start, resp)
	writeJSON(w, http.StatusOK, toResults(resp))
}

// ResetLastRead handles POST /v1/feeds/{feed}/users/{user_id}/read.
func (h *Handler) ResetLastRead(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFeed(w, r)
	if !ok {
		return
	}

	var req struct {
		At *float64 `json:"at"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed body")
			return
		}
	}

	act, err := h.activity(r, f)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	start := time.Now()
	resp := act.ResetLastRead(r.Context(), req.At)
	recordOperation(f, "reset_last_read", start, resp)
	writeJSON(w, http.StatusOK, toResults(resp))
}

type counts struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// Counts handles GET /v1/feeds/{feed}/users/{user_id}/counts.
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFeed(w, r)
	if !ok {
		return
	}
	act, err := h.activity(r, f)
	if err != nil {
		writeFeedError(w, err)
		return
	}

	totalStart := time.Now()
	totalResp := act.TotalCount(r.Context())
	recordOperation(f, "total_count", totalStart, totalResp)

	unreadStart := time.Now()
	unreadResp := act.UnreadCount(r.Context())
	recordOperation(f, "unread_count", unreadStart, unreadResp)

	out := make([]userResult[counts], 0, totalResp.Len())
	for _, userID := range totalResp.Keys() {
		r := userResult[counts]{UserID: userID}
		total, totalOK := totalResp.Value(userID)
		unread, unreadOK := unreadResp.Value(userID)
		switch {
		case totalOK && unreadOK:
			r.Value = counts{Total: total, Unread: unread}
		case totalResp.Err(userID) != nil:
			r.Error = totalResp.Err(userID).Error()
		default:
			r.Error = unreadResp.Err(userID).Error()
		}
		out = append(out, r)
	}
	writeJSON(w, http.StatusOK, out)
}

// Wipe handles DELETE /v1/feeds/{feed}/users/{user_id}.
func (h *Handler) Wipe(w http.ResponseWriter, r *http.Request) {
	f, ok := h.lookupFeed(w, r)
	if !ok {
		return
	}
	act, err := h.activity(r, f)
	if err != nil {
		writeFeedError(w, err)
		return
	}
	start := time.Now()
	resp := act.Wipe(r.Context())
	recordOperation(f, "wipe", start, resp)
	writeJSON(w, http.StatusOK, toResults(resp))
}

func queryInt(q map[string][]string, key string, def int) int {
	vals, ok := q[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return def
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
