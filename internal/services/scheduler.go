package services

import (
	"context"
	"errors"
	"log"
	"time"
)

const schedulerPollInterval = 1 * time.Minute

// UnlockScheduler periodically nudges the unlock batcher. It is a
// convenience, not a correctness requirement: client polling and the external
// cron endpoint drive the same idempotent TryUnlock contract.
type UnlockScheduler struct {
	unlock   *UnlockService
	stopChan chan struct{}
}

func NewUnlockScheduler(unlock *UnlockService) *UnlockScheduler {
	return &UnlockScheduler{
		unlock:   unlock,
		stopChan: make(chan struct{}),
	}
}

func (s *UnlockScheduler) Start() {
	if s.unlock == nil {
		return
	}

	go s.loop()

	log.Printf("Unlock scheduler started")
}

func (s *UnlockScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *UnlockScheduler) loop() {
	// Run on startup as well as by interval.
	s.tick()

	ticker := time.NewTicker(schedulerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *UnlockScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := s.unlock.TryUnlock(ctx, time.Now().UTC())
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return
		}
		log.Printf("unlock scheduler: %v", err)
		return
	}

	if result.Unlocked > 0 {
		log.Printf("unlock scheduler: released %d question(s)", result.Unlocked)
	}
}
