// Package matcher orchestrates a course comparison: validation, concurrent
// cache-aside page fetches, per-side aggregation and the oracle call.
package matcher

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"course-matcher/internal/cache"
	"course-matcher/internal/common/errors"
	"course-matcher/internal/common/logging"
	"course-matcher/internal/fetcher"
	"course-matcher/internal/oracle"
	"course-matcher/internal/storage"
)

// PageFetcher renders a page and returns its HTML. *fetcher.Engine satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Service runs comparisons and cache invalidations
type Service struct {
	cache      cache.Store
	fetcher    PageFetcher
	normalizer fetcher.Normalizer
	oracle     oracle.Client
	records    storage.Store
	events     Publisher
	ttl        time.Duration
	logger     logging.Logger
	onStage    func(Stage)

	renders singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithNormalizer sets how page HTML is turned into comparison text
func WithNormalizer(n fetcher.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithRecords persists verdicts of requests that name both universities
func WithRecords(store storage.Store) Option {
	return func(s *Service) {
		s.records = store
	}
}

// WithEvents publishes comparison and invalidation events
func WithEvents(p Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithTTL overrides cache.DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStageHook is called on every stage transition of Compare
func WithStageHook(fn func(Stage)) Option {
	return func(s *Service) {
		s.onStage = fn
	}
}

func NewService(store cache.Store, pages PageFetcher, client oracle.Client, opts ...Option) *Service {
	s := &Service{
		cache:      store,
		fetcher:    pages,
		normalizer: fetcher.HTMLNormalizer{},
		oracle:     client,
		ttl:        cache.DefaultTTL,
		logger:     logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compare validates req, gathers both sides' pages concurrently and asks the
// oracle for a verdict. Any failure fails the whole request.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Result, error) {
	logger := s.logger.WithContext(ctx)
	stage := StageValidating
	transition := func(next Stage) {
		stage = next
		logger.Debug("Comparison stage", logging.Field{"stage", string(next)})
		if s.onStage != nil {
			s.onStage(next)
		}
	}
	fail := func(err error) (*Result, error) {
		failedAt := stage
		transition(StageFailed)
		logger.Error("Comparison failed", err,
			logging.Field{"stage", string(failedAt)},
			logging.Field{"error_type", string(errors.GetType(err))},
		)
		return nil, err
	}

	transition(StageValidating)
	if err := req.Validate(); err != nil {
		return fail(err)
	}

	logger.Info("Comparison requested",
		logging.Field{"urls_university_1", len(req.SideA)},
		logging.Field{"urls_university_2", len(req.SideB)},
	)

	transition(StageFetching)
	urls := make([]string, 0, len(req.SideA)+len(req.SideB))
	urls = append(urls, req.SideA...)
	urls = append(urls, req.SideB...)

	pages, hits, err := s.fetchAll(ctx, urls)
	if err != nil {
		return fail(err)
	}

	transition(StageAggregating)
	textA, err := s.aggregate(req.SideA, pages[:len(req.SideA)])
	if err != nil {
		return fail(err)
	}
	textB, err := s.aggregate(req.SideB, pages[len(req.SideA):])
	if err != nil {
		return fail(err)
	}

	transition(StageComparing)
	verdict, err := s.oracle.Compare(ctx, textA, textB)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.ComparisonError("comparison failed", err)
		}
		return fail(err)
	}

	transition(StageCompleted)
	result := &Result{
		Verdict:   verdict.Text,
		Score:     verdict.Score,
		CacheHits: hits,
	}

	s.persist(ctx, req, result)
	s.publish(ctx, ComparisonsChannel, ComparisonEvent{
		RequestID:   logging.RequestIDFromContext(ctx),
		SideA:       req.SideA,
		SideB:       req.SideB,
		University1: req.University1,
		University2: req.University2,
		Score:       result.Score,
		CompletedAt: time.Now().UTC(),
	})

	logger.Info("Comparison completed",
		logging.Field{"pages", len(urls)},
		logging.Field{"cache_hits", hits},
	)

	return result, nil
}

// fetchAll retrieves every URL concurrently. Results are written to the slot
// matching the URL's position, so completion order does not matter. The first
// failure cancels the remaining fetches.
func (s *Service) fetchAll(ctx context.Context, urls []string) ([]string, int, error) {
	pages := make([]string, len(urls))
	var hits int32

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			content, hit, err := s.fetchPage(gctx, url)
			if err != nil {
				return err
			}
			if hit {
				atomic.AddInt32(&hits, 1)
			}
			pages[i] = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return pages, int(hits), nil
}

// fetchPage is the cache-aside read for one URL. Concurrent misses for the
// same URL share one render.
func (s *Service) fetchPage(ctx context.Context, url string) (string, bool, error) {
	key := cache.Key(url)

	content, found, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if found {
		fields := []logging.Field{{"url", url}}
		if expirer, ok := s.cache.(cache.Expirer); ok {
			if ttl, err := expirer.TTL(ctx, key); err == nil && ttl > 0 {
				fields = append(fields, logging.Field{"expires_in", ttl.Round(time.Second).String()})
			}
		}
		s.logger.WithContext(ctx).Debug("Cache hit", fields...)
		return string(content), true, nil
	}

	// The shared render must not die with whichever caller started it; the
	// engine's own timeout bounds it.
	renderCtx := context.WithoutCancel(ctx)
	ch := s.renders.DoChan(key, func() (interface{}, error) {
		s.logger.WithContext(renderCtx).Debug("Cache miss, rendering", logging.Field{"url", url})

		html, err := s.fetcher.Fetch(renderCtx, url)
		if err != nil {
			if _, ok := errors.As(err); !ok {
				err = errors.FetchError(url, err)
			}
			return "", err
		}

		if err := s.cache.Put(renderCtx, key, []byte(html), s.ttl); err != nil {
			return "", err
		}
		return html, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		return res.Val.(string), false, nil
	case <-ctx.Done():
		return "", false, errors.FetchError(url, ctx.Err())
	}
}

func (s *Service) aggregate(urls, pages []string) (string, error) {
	texts := make([]string, len(pages))
	for i, page := range pages {
		text, err := s.normalizer.Normalize(page)
		if err != nil {
			return "", errors.InternalError("failed to normalize page content", err).
				WithContext("url", urls[i])
		}
		texts[i] = text
	}
	return strings.Join(texts, " "), nil
}

// persist stores the verdict when both universities are named. Failures are
// logged only.
func (s *Service) persist(ctx context.Context, req CompareRequest, result *Result) {
	if s.records == nil || req.University1 == "" || req.University2 == "" {
		return
	}

	record := &storage.MatchRecord{
		University1: req.University1,
		University2: req.University2,
		MatchResult: result.Verdict,
		Score:       result.Score,
	}
	if err := s.records.CreateMatch(ctx, record); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to persist match record",
			logging.Field{"error", err.Error()},
			logging.Field{"university_1", req.University1},
			logging.Field{"university_2", req.University2},
		)
		return
	}

	id := record.ID
	result.RecordID = &id
}

func (s *Service) publish(ctx context.Context, channel string, event interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, channel, event); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish event",
			logging.Field{"channel", channel},
			logging.Field{"error", err.Error()},
		)
	}
}

// Invalidate removes the cached page for url and reports whether one existed
func (s *Service) Invalidate(ctx context.Context, url string) (bool, error) {
	logger := s.logger.WithContext(ctx)

	if err := ValidateURL(url); err != nil {
		return false, err
	}

	removed, err := s.cache.Delete(ctx, cache.Key(url))
	if err != nil {
		logger.Error("Cache invalidation failed", err, logging.Field{"url", url})
		return false, err
	}

	if removed {
		logger.Info("Cache entry invalidated", logging.Field{"url", url})
	} else {
		logger.Info("No cache entry to invalidate", logging.Field{"url", url})
	}

	s.publish(ctx, InvalidationsChannel, InvalidationEvent{
		RequestID:     logging.RequestIDFromContext(ctx),
		URL:           url,
		Invalidated:   removed,
		InvalidatedAt: time.Now().UTC(),
	})

	return removed, nil
}
