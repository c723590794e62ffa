package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"course-matcher/internal/matcher"
)

// maxBodyBytes bounds request bodies; twenty URLs never come close
const maxBodyBytes = 1 << 20

// CompareCourses runs a comparison
// @Summary Compare course pages
// @Description Fetches the course pages of two universities and returns the comparison verdict
// @Tags comparison
// @Accept json
// @Produce json
// @Param request body matcher.CompareRequest true "Course page URLs, 1 to 10 per university"
// @Success 200 {object} matcher.Result "Comparison verdict"
// @Failure 400 {object} DetailResponse "Malformed JSON"
// @Failure 422 {object} DetailResponse "Invalid URL lists"
// @Failure 429 {object} DetailResponse "Rate limit exceeded"
// @Failure 500 {object} DetailResponse "Fetch, cache or comparison failure"
// @Router /compare-courses [post]
func (h *Handlers) CompareCourses(w http.ResponseWriter, r *http.Request) {
	var req matcher.CompareRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.sendDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.comparer.Compare(r.Context(), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSONResponse(w, result)
}

type invalidateRequest struct {
	URL string `json:"url"`
}

// InvalidateCache removes one cached page
// @Summary Invalidate a cached page
// @Description Deletes the cached rendering of a URL so the next comparison fetches it again
// @Tags cache
// @Accept json
// @Produce json
// @Param url query string false "Page URL"
// @Param request body invalidateRequest false "Page URL, when not given as query parameter"
// @Success 200 {object} DetailResponse "Whether an entry was removed"
// @Failure 400 {object} DetailResponse "Malformed JSON"
// @Failure 422 {object} DetailResponse "Missing or invalid URL"
// @Failure 429 {object} DetailResponse "Rate limit exceeded"
// @Failure 500 {object} DetailResponse "Cache failure"
// @Router /invalidate-cache [post]
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" && r.ContentLength != 0 {
		var req invalidateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			h.sendDetail(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		url = req.URL
	}

	removed, err := h.comparer.Invalidate(r.Context(), url)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if removed {
		h.sendDetail(w, http.StatusOK, fmt.Sprintf("Cache for %s invalidated", url))
		return
	}
	h.sendDetail(w, http.StatusOK, fmt.Sprintf("No cache entry found for %s", url))
}
