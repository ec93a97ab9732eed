package server

import (
	"sync"
	"time"
)

// RateLimiter implements per-IP rate limiting with a sliding one-minute
// window.
type RateLimiter struct {
	limits            map[string][]int64
	maxRequestsPerMin int
	mu                sync.RWMutex
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
func NewRateLimiter(maxRequestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		limits:            make(map[string][]int64),
		maxRequestsPerMin: maxRequestsPerMinute,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
	}

	go rl.startCleanup()

	return rl
}

// CheckLimit reports whether a request from the given IP is allowed and
// records it when it is.
func (rl *RateLimiter) CheckLimit(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()

	valid := make([]int64, 0, len(rl.limits[ip]))
	for _, reqTime := range rl.limits[ip] {
		if now-reqTime < 60000 {
			valid = append(valid, reqTime)
		}
	}

	if len(valid) >= rl.maxRequestsPerMin {
		rl.limits[ip] = valid
		return false
	}

	rl.limits[ip] = append(valid, now)
	return true
}

// GetRetryAfter returns the seconds until the oldest request in the
// window expires.
func (rl *RateLimiter) GetRetryAfter(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	requests := rl.limits[ip]
	if len(requests) == 0 {
		return 0
	}

	now := time.Now().UnixMilli()
	retryAfterMs := 60000 - (now - requests[0])
	if retryAfterMs < 0 {
		return 0
	}

	return int((retryAfterMs + 999) / 1000)
}

func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()

	for ip, requests := range rl.limits {
		valid := make([]int64, 0, len(requests))
		for _, reqTime := range requests {
			if now-reqTime < 60000 {
				valid = append(valid, reqTime)
			}
		}
		if len(valid) == 0 {
			delete(rl.limits, ip)
		} else {
			rl.limits[ip] = valid
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}
