package responsecache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
	"github.com/rail-service/bridge_service/pkg/metrics"
	"github.com/rail-service/bridge_service/pkg/tracing"
)

const sweepConcurrency = 16

// SweepResult reports what a sweep removed
type SweepResult struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
}

// ClearAll removes every entry that is stale, unreadable or holds search
// results. Keys are processed concurrently and one failure does not stop the
// others; all failures are returned together.
func (c *Cache) ClearAll(ctx context.Context) (SweepResult, error) {
	ctx, span := tracing.StartSpan(ctx, "responsecache.ClearAll")

	keys, err := c.storage.KeysWithPrefix(ctx, c.Prefix())
	if err != nil {
		err = fmt.Errorf("list cache keys: %w", err)
		tracing.EndSpan(span, err)
		return SweepResult{}, err
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		errs    *multierror.Error
		removed []string
		sem     = make(chan struct{}, sweepConcurrency)
	)

	for _, key := range keys {
		wg.Add(1)
		sem <- struct{}{}
		go func(key string) {
			defer func() {
				<-sem
				wg.Done()
			}()

			reason, err := c.sweepReason(ctx, key)
			if err == nil && reason != "" {
				err = c.storage.Remove(ctx, key)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			if reason != "" {
				removed = append(removed, key)
				c.metrics.SweepDeleted(reason)
			}
		}(key)
	}
	wg.Wait()

	sort.Strings(removed)
	result := SweepResult{Scanned: len(keys), Removed: removed}
	err = errs.ErrorOrNil()
	tracing.EndSpan(span, err)

	c.logger.Info("Bridge cache sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("removed", len(result.Removed)),
		zap.Error(err))
	return result, err
}

// sweepReason returns why key should be removed, or "" to keep it
func (c *Cache) sweepReason(ctx context.Context, key string) (string, error) {
	if strings.Contains(key, "search") {
		return metrics.ReasonSearch, nil
	}

	data, err := c.storage.Get(ctx, key)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	e, err := decodeEntry(data)
	if err != nil {
		return metrics.ReasonCorrupt, nil
	}
	if c.isStale(e) {
		return metrics.ReasonStale, nil
	}
	return "", nil
}
