package game

import (
	"context"
	"errors"
	"time"

	"github.com/nightowlcasino/redblack/metrics"
	"go.uber.org/zap"
)

// startPoller polls wallet until its bet resolves, replacing any poller
// already running for it.
func (s *Service) startPoller(wallet string) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}

	if p, ok := s.pollers[wallet]; ok {
		p.cancel()
	} else {
		metrics.ActivePollers.Inc()
	}

	s.nextGen++
	gen := s.nextGen
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PollTimeout)
	s.pollers[wallet] = &poller{gen: gen, cancel: cancel}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.poll(ctx, wallet, gen)
}

// stopPoller cancels the wallet's poller. A non-zero gen only stops that
// generation so a finishing poller never removes its replacement.
func (s *Service) stopPoller(wallet string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pollers[wallet]
	if !ok || (gen != 0 && p.gen != gen) {
		return
	}

	p.cancel()
	delete(s.pollers, wallet)
	metrics.ActivePollers.Dec()
}

// Polling reports whether a poller is running for wallet.
func (s *Service) Polling(wallet string) bool {
	wallet, err := normalize(wallet)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pollers[wallet]
	return ok
}

func (s *Service) poll(ctx context.Context, wallet string, gen uint64) {
	defer s.wg.Done()
	defer s.stopPoller(wallet, gen)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	log := s.log.With(zap.String("wallet_addr", wallet))
	log.Debug("polling for bet result")

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				log.Warn("gave up waiting for bet result", zap.Duration("timeout", s.cfg.PollTimeout))
			}
			return
		case <-ticker.C:
			res, settled, err := s.pollOnce(wallet)
			if err != nil {
				log.Error("failed to check bet result", zap.Error(err))
				continue
			}
			if res != nil {
				log.Debug("poll finished", zap.String("result", string(res.Outcome)))
			}
			if settled {
				return
			}
		}
	}
}
