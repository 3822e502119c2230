package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReaperInterval = 5 * time.Minute
	defaultIdleTTL        = 1 * time.Hour
)

// ReaperService evicts workspaces that have not been used for a while.
type ReaperService struct {
	workspaces *WorkspaceService
	logger     *zap.Logger

	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewReaperService(ws *WorkspaceService, logger *zap.Logger) *ReaperService {
	return &ReaperService{
		workspaces: ws,
		logger:     logger,
		interval:   defaultReaperInterval,
		ttl:        defaultIdleTTL,
		stopCh:     make(chan struct{}),
	}
}

func (s *ReaperService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

func (s *ReaperService) SetIdleTTL(d time.Duration) {
	if d > 0 {
		s.ttl = d
	}
}

// Start runs the reaper on a periodic schedule in a background goroutine.
func (s *ReaperService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("workspace reaper started",
			zap.Duration("interval", s.interval),
			zap.Duration("idle_ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("workspace reaper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the reaper.
func (s *ReaperService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ReaperService) run() {
	if evicted := s.workspaces.EvictIdle(s.ttl); evicted > 0 {
		s.logger.Info("evicted idle workspaces",
			zap.Int("count", evicted),
			zap.Int("remaining", s.workspaces.Count()))
	}
}
