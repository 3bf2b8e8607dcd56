package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RateLimiter is a fixed-window counter per key, used for login attempts.
type RateLimiter struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	window  time.Duration
	limit   int
	buckets map[string]rateEntry
}

type rateEntry struct {
	count   int
	expires time.Time
}

func NewRateLimiter(clock clockwork.Clock, limit int, window time.Duration) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clock:   clock,
		window:  window,
		limit:   limit,
		buckets: make(map[string]rateEntry),
	}
}

// Allow counts one attempt for key. When the window is used up it reports
// how long until the next attempt is accepted.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if rl == nil {
		return true, 0
	}
	now := rl.clock.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry := rl.buckets[key]
	if !now.Before(entry.expires) {
		entry = rateEntry{expires: now.Add(rl.window)}
	}
	if entry.count >= rl.limit {
		return false, entry.expires.Sub(now)
	}
	entry.count++
	rl.buckets[key] = entry

	if len(rl.buckets) > rl.limit*50 {
		for k, v := range rl.buckets {
			if !now.Before(v.expires) {
				delete(rl.buckets, k)
			}
		}
	}
	return true, 0
}

// Limit rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(ClientIP(r))
		if !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "too many attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		if ip = strings.TrimSpace(ip); ip != "" {
			return ip
		}
	}
	if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
