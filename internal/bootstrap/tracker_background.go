package bootstrap

import (
	"context"
	"sync"
	"time"

	"tracker_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Background runs the long-lived maintenance loops of the API process.
type Background struct {
	deps   *Dependencies
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	zlog   zerolog.Logger
}

func NewBackground(deps *Dependencies) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   logger.Component("background"),
	}
}

// Start launches the registry warm-up and the verdict cache sweeper.
func (b *Background) Start() {
	cfg := b.deps.Config

	if b.deps.FilterConfig.Strategy.UsesKeywords() {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.warmRegistry(cfg.UnsafeKeywords, cfg.RegistryRetryInterval)
		}()
		b.deps.VerdictCache.StartSweeper(b.ctx, cfg.KeywordCacheSweep)
	}
}

// Stop cancels every loop and waits for the warm-up to return.
func (b *Background) Stop() {
	b.cancel()
	b.wg.Wait()
}

// warmRegistry resolves the unsafe phrases, retrying until a non-empty set is
// published or the process stops. Until then keyword filtering reports not ready.
func (b *Background) warmRegistry(phrases []string, retry time.Duration) {
	if retry <= 0 {
		retry = 30 * time.Second
	}
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-b.ctx.Done():
			return
		case <-timer.C:
		}

		n, err := b.deps.KeywordRegistry.Initialize(b.ctx, phrases)
		if err == nil {
			b.deps.Metrics.SetRegistrySize(n)
			b.zlog.Info().Int("keyword_ids", n).Int("attempt", attempt).Msg("unsafe keyword registry ready")
			return
		}
		if b.ctx.Err() != nil {
			return
		}

		b.zlog.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", retry).Msg("unsafe keyword registry not ready")
		timer.Reset(retry)
	}
}
