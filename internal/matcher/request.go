package matcher

import (
	"fmt"
	"net/url"
	"strings"

	"course-matcher/internal/common/errors"
)

// MaxURLsPerSide bounds each side of a comparison request
const MaxURLsPerSide = 10

// CompareRequest lists the course pages of two universities. The university
// names are optional and only used to persist the verdict.
type CompareRequest struct {
	SideA       []string `json:"urls_university_1"`
	SideB       []string `json:"urls_university_2"`
	University1 string   `json:"university_1,omitempty"`
	University2 string   `json:"university_2,omitempty"`
}

// Describe summarizes the request for log lines and CLI output
func (r CompareRequest) Describe() string {
	return fmt.Sprintf("%d vs %d pages", len(r.SideA), len(r.SideB))
}

// Validate checks both sides before any I/O happens
func (r CompareRequest) Validate() error {
	if err := validateSide("urls_university_1", r.SideA); err != nil {
		return err
	}
	return validateSide("urls_university_2", r.SideB)
}

func validateSide(field string, urls []string) error {
	if len(urls) == 0 {
		return errors.ValidationError(fmt.Sprintf("%s must contain at least 1 URL", field)).
			WithContext("field", field)
	}
	if len(urls) > MaxURLsPerSide {
		return errors.ValidationError(fmt.Sprintf("%s must contain at most %d URLs", field, MaxURLsPerSide)).
			WithContext("field", field).
			WithContext("count", len(urls))
	}
	for i, raw := range urls {
		if err := ValidateURL(raw); err != nil {
			if appErr, ok := errors.As(err); ok {
				appErr.WithContext("field", field).WithContext("index", i)
			}
			return err
		}
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs with a host
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.ValidationError("URL must not be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid URL %q", raw))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.ValidationError(fmt.Sprintf("URL %q must use http or https", raw))
	}
	if u.Host == "" || u.Hostname() == "" {
		return errors.ValidationError(fmt.Sprintf("URL %q must include a host", raw))
	}
	return nil
}

// Stage is a step of a comparison run
type Stage string

const (
	StageValidating  Stage = "validating"
	StageFetching    Stage = "fetching"
	StageAggregating Stage = "aggregating"
	StageComparing   Stage = "comparing"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// Result is the outcome of a completed comparison
type Result struct {
	Verdict  string `json:"comparison_result"`
	Score    *int   `json:"score,omitempty"`
	RecordID *int64 `json:"record_id,omitempty"`
	// CacheHits counts the pages served from the cache
	CacheHits int `json:"-"`
}
