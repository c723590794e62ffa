package matcher

import (
	"context"
	"time"
)

// Channels comparison events are published on
const (
	ComparisonsChannel   = "course-matcher:comparisons"
	InvalidationsChannel = "course-matcher:invalidations"
)

// Publisher sends JSON encodable events to a channel. *redis.Client
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// ComparisonEvent is published after a comparison completes
type ComparisonEvent struct {
	RequestID   string    `json:"request_id,omitempty"`
	SideA       []string  `json:"urls_university_1"`
	SideB       []string  `json:"urls_university_2"`
	University1 string    `json:"university_1,omitempty"`
	University2 string    `json:"university_2,omitempty"`
	Score       *int      `json:"score,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// InvalidationEvent is published after a cache entry is invalidated
type InvalidationEvent struct {
	RequestID     string    `json:"request_id,omitempty"`
	URL           string    `json:"url"`
	Invalidated   bool      `json:"invalidated"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}
