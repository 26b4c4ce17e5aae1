// Package fetch resolves record ids through the catalog with retries,
// batching and placeholder substitution.
package fetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultSpriteFallback is the sprite used for placeholder records; {id} is replaced.
const DefaultSpriteFallback = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/{id}.png"

// Source reads a single record from the catalog.
type Source interface {
	FetchRecord(ctx context.Context, id int) (domain.Record, error)
}

// Observer is notified of attempt outcomes and placeholder substitutions.
type Observer interface {
	FetchAttempt(ok bool)
	PlaceholderUsed()
}

// Options tunes retry and batching. Zero counts, negative delays and an
// empty sprite template take the defaults.
type Options struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	BatchThreshold int
	BatchSize      int
	BatchDelay     time.Duration
	SpriteFallback string
}

// DefaultOptions returns 3 attempts 1s apart, batches of 50 above 50 ids, 100ms apart.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:    3,
		RetryDelay:     time.Second,
		BatchThreshold: 50,
		BatchSize:      50,
		BatchDelay:     100 * time.Millisecond,
		SpriteFallback: DefaultSpriteFallback,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.BatchThreshold <= 0 {
		o.BatchThreshold = d.BatchThreshold
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = d.BatchDelay
	}
	if o.SpriteFallback == "" {
		o.SpriteFallback = d.SpriteFallback
	}
	return o
}

// Fetcher turns ids into records. It never drops an id.
type Fetcher struct {
	source   Source
	opts     Options
	log      *logger.Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewFetcher builds a Fetcher over source. observer may be nil.
func NewFetcher(source Source, opts Options, log *logger.Logger, observer Observer) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Fetcher{
		source:   source,
		opts:     opts.withDefaults(),
		log:      log.With("component", "fetcher"),
		observer: observer,
		sleep:    sleepContext,
	}
}

// Placeholder returns the synthetic record used when id cannot be fetched.
func Placeholder(id int, spriteTemplate string) domain.Record {
	if spriteTemplate == "" {
		spriteTemplate = DefaultSpriteFallback
	}
	return domain.Record{
		ID:          id,
		Name:        fmt.Sprintf("pokemon-%d", id),
		Sprite:      strings.ReplaceAll(spriteTemplate, "{id}", strconv.Itoa(id)),
		Placeholder: true,
	}
}

// FetchOne tries the source up to MaxAttempts times, waiting RetryDelay
// between attempts, and falls back to a placeholder.
func (f *Fetcher) FetchOne(ctx context.Context, id int) domain.Record {
	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		rec, err := f.source.FetchRecord(ctx, id)
		f.observer.FetchAttempt(err == nil)
		if err == nil {
			return rec
		}
		lastErr = err
		if attempt == f.opts.MaxAttempts {
			break
		}
		f.log.Debug("fetch attempt failed", "id", id, "attempt", attempt, "error", err)
		if err := f.sleep(ctx, f.opts.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	f.log.Warn("using placeholder record", "id", id, "error", lastErr)
	f.observer.PlaceholderUsed()
	return Placeholder(id, f.opts.SpriteFallback)
}

// FetchAll resolves ids in input order. Up to BatchThreshold ids go out in a
// single concurrent wave; larger requests are split into sequential batches
// of BatchSize separated by BatchDelay. progress, if non-nil, is called after
// each wave. An error is returned only when ctx ends before all waves finish.
func (f *Fetcher) FetchAll(ctx context.Context, ids []int, progress func(domain.BatchProgress)) ([]domain.Record, error) {
	records := make([]domain.Record, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	batches := [][]int{ids}
	size := len(ids)
	if len(ids) > f.opts.BatchThreshold {
		size = f.opts.BatchSize
		batches = chunk(ids, size)
	}

	loaded := 0
	for i, batch := range batches {
		if i > 0 && f.opts.BatchDelay > 0 {
			if err := f.sleep(ctx, f.opts.BatchDelay); err != nil {
				return nil, err
			}
		}

		offset := i * size
		g, gctx := errgroup.WithContext(ctx)
		for j, id := range batch {
			j, id := j, id
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				records[offset+j] = f.FetchOne(gctx, id)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		loaded += len(batch)
		if progress != nil {
			progress(domain.BatchProgress{
				Batch:     i + 1,
				Batches:   len(batches),
				Loaded:    loaded,
				Requested: len(ids),
			})
		}
	}
	return records, nil
}

func chunk(ids []int, size int) [][]int {
	out := make([][]int, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type nopObserver struct{}

func (nopObserver) FetchAttempt(bool) {}
func (nopObserver) PlaceholderUsed()  {}
