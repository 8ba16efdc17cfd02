package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"epk-api-go/logcolors"
	"epk-api-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	TierGeneral = "general"
	TierContact = "contact"
)

// LimiterPair holds the general and contact tier limiters for an IP
type LimiterPair struct {
	General  *rate.Limiter
	Contact  *rate.Limiter
	lastSeen time.Time
}

// GetGeneralTokens returns the number of tokens available in the general tier
func (lp *LimiterPair) GetGeneralTokens() int {
	return int(math.Floor(lp.General.Tokens()))
}

// GetContactTokens returns the number of tokens available in the contact tier
func (lp *LimiterPair) GetContactTokens() int {
	return int(math.Floor(lp.Contact.Tokens()))
}

// Tier returns the limiter for the named tier
func (lp *LimiterPair) Tier(tier string) *rate.Limiter {
	if tier == TierContact {
		return lp.Contact
	}
	return lp.General
}

// IPRateLimiter manages two-tier rate limiting per IP
type IPRateLimiter struct {
	ips          map[string]*LimiterPair
	mu           *sync.Mutex
	generalRate  rate.Limit
	generalBurst int
	contactRate  rate.Limit
	contactBurst int
}

// NewIPRateLimiter creates a new two-tier rate limiter
func NewIPRateLimiter(generalRate rate.Limit, generalBurst int, contactRate rate.Limit, contactBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:          make(map[string]*LimiterPair),
		mu:           &sync.Mutex{},
		generalRate:  generalRate,
		generalBurst: generalBurst,
		contactRate:  contactRate,
		contactBurst: contactBurst,
	}
}

// GetGeneralLimit returns the general tier burst limit
func (i *IPRateLimiter) GetGeneralLimit() int {
	return i.generalBurst
}

// GetContactLimit returns the contact tier burst limit
func (i *IPRateLimiter) GetContactLimit() int {
	return i.contactBurst
}

// limit returns the burst limit of a tier
func (i *IPRateLimiter) limit(tier string) int {
	if tier == TierContact {
		return i.contactBurst
	}
	return i.generalBurst
}

// GetLimiter returns the limiters for ip, creating them on first sight
func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	pair, exists := i.ips[ip]
	if !exists {
		pair = &LimiterPair{
			General: rate.NewLimiter(i.generalRate, i.generalBurst),
			Contact: rate.NewLimiter(i.contactRate, i.contactBurst),
		}
		i.ips[ip] = pair
	}
	pair.lastSeen = time.Now()
	return pair
}

// Len returns the number of tracked IPs
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// Cleanup forgets IPs not seen for longer than idle and returns how many
// were removed
func (i *IPRateLimiter) Cleanup(idle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-idle)
	for ip, pair := range i.ips {
		if pair.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until stop is closed
func (i *IPRateLimiter) StartCleanup(interval, idle time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := i.Cleanup(idle); n > 0 {
					log.Debugf("%s Forgot %d idle clients", logcolors.LogRateLimit, n)
				}
			case <-stop:
				return
			}
		}
	}()
}

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For hop set by the hosting proxy
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects requests over the tier's limit with 429
func RateLimitMiddleware(limiter *IPRateLimiter, tier string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			l := limiter.GetLimiter(ip).Tier(tier)

			w.Header().Set("X-RateLimit-Type", tier)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit(tier)))

			if !l.Allow() {
				stats.Get().RecordRateLimitExceeded()
				retry := 1
				if lim := l.Limit(); lim > 0 && lim != rate.Inf {
					retry = int(math.Ceil(1 / float64(lim)))
				}
				log.Warnf("%s %s tier exceeded by %s for %s", logcolors.LogRateLimit, tier, ip, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests","message":"Slow down and try again shortly"}`))
				return
			}

			remaining := int(math.Floor(l.Tokens()))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
