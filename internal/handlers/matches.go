package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/storage"
)

type updateMatchRequest struct {
	MatchResult string `json:"match_result"`
	Score       *int   `json:"score,omitempty"`
}

func (h *Handlers) requireRecords(w http.ResponseWriter) bool {
	if h.records == nil {
		h.sendDetail(w, http.StatusServiceUnavailable, "match records are disabled")
		return false
	}
	return true
}

func parseMatchID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, errors.ValidationError("invalid match ID")
	}
	return id, nil
}

// GetMatches lists stored verdicts
// @Summary List match records
// @Description Returns stored comparison verdicts, newest first
// @Tags matches
// @Produce json
// @Param university_1 query string false "Filter by first university"
// @Param university_2 query string false "Filter by second university"
// @Param limit query int false "Maximum number of records (default 50, max 500)"
// @Param offset query int false "Number of records to skip"
// @Success 200 {array} storage.MatchRecord "Match records"
// @Failure 422 {object} DetailResponse "Invalid paging parameters"
// @Failure 500 {object} DetailResponse "Storage failure"
// @Router /matches [get]
func (h *Handlers) GetMatches(w http.ResponseWriter, r *http.Request) {
	if !h.requireRecords(w) {
		return
	}

	query := r.URL.Query()
	filter := storage.MatchFilter{
		University1: query.Get("university_1"),
		University2: query.Get("university_2"),
	}

	var err error
	if filter.Limit, err = intParam(query.Get("limit"), "limit"); err != nil {
		h.sendError(w, r, err)
		return
	}
	if filter.Offset, err = intParam(query.Get("offset"), "offset"); err != nil {
		h.sendError(w, r, err)
		return
	}

	records, err := h.records.ListMatches(r.Context(), filter)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	if records == nil {
		records = []*storage.MatchRecord{}
	}

	h.sendJSONResponse(w, records)
}

// GetMatch returns one stored verdict
// @Summary Get match record
// @Tags matches
// @Produce json
// @Param id path int true "Match record ID"
// @Success 200 {object} storage.MatchRecord "Match record"
// @Failure 404 {object} DetailResponse "Match record not found"
// @Failure 422 {object} DetailResponse "Invalid match ID"
// @Router /matches/{id} [get]
func (h *Handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireRecords(w) {
		return
	}

	id, err := parseMatchID(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	record, err := h.records.GetMatch(r.Context(), id)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSONResponse(w, record)
}

// UpdateMatch replaces the verdict of a stored record
// @Summary Update match record
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match record ID"
// @Param request body updateMatchRequest true "New verdict"
// @Success 200 {object} storage.MatchRecord "Updated match record"
// @Failure 400 {object} DetailResponse "Malformed JSON"
// @Failure 404 {object} DetailResponse "Match record not found"
// @Failure 422 {object} DetailResponse "Invalid match ID or empty verdict"
// @Router /matches/{id} [put]
func (h *Handlers) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireRecords(w) {
		return
	}

	id, err := parseMatchID(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	var req updateMatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.sendDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.MatchResult) == "" {
		h.sendError(w, r, errors.ValidationError("match_result must not be empty"))
		return
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		h.sendError(w, r, errors.ValidationError("score must be between 0 and 100"))
		return
	}

	record, err := h.records.UpdateMatchResult(r.Context(), id, req.MatchResult, req.Score)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSONResponse(w, record)
}

// DeleteMatch removes a stored record
// @Summary Delete match record
// @Tags matches
// @Param id path int true "Match record ID"
// @Success 204 "Deleted"
// @Failure 404 {object} DetailResponse "Match record not found"
// @Failure 422 {object} DetailResponse "Invalid match ID"
// @Router /matches/{id} [delete]
func (h *Handlers) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireRecords(w) {
		return
	}

	id, err := parseMatchID(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.records.DeleteMatch(r.Context(), id); err != nil {
		h.sendError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.ValidationError(name + " must be a non-negative integer")
	}
	return value, nil
}
