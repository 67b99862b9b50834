// Package ratelimit throttles login attempts per account and per client IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds login rate limit configuration.
type Config struct {
	MaxAttempts  int           // Failed attempts per account before lockout (default: 5)
	Lockout      time.Duration // Lockout duration after max attempts (default: 5m)
	MaxIPPerHour int           // Login attempts per IP per hour (default: 30)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  5,
		Lockout:      5 * time.Minute,
		MaxIPPerHour: 30,
	}
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

type entry struct {
	count    int
	firstAt  time.Time
	lastAt   time.Time
	lockedAt time.Time // Zero if not locked
}

// Limiter tracks failed logins per account and attempt volume per IP.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex
	// Keyed by hash of account email or IP
	failedByAccount map[string]*entry
	attemptsByIP    map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a login rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:          cfg,
		clock:           clock,
		failedByAccount: make(map[string]*entry),
		attemptsByIP:    make(map[string]*entry),
		cleanupCtx:      ctx,
		cleanupCancel:   cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckLogin reports whether a login attempt for the account may proceed.
// It does not record anything; call RecordFailure / RecordSuccess afterwards.
func (l *Limiter) CheckLogin(account, ip string) Result {
	l.startCleanup()
	now := l.clock.Now()
	accountKey := l.hashKey("login:acct:", normalizeAccount(account))
	ipKey := l.hashKey("login:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.failedByAccount[accountKey]; e != nil {
		if !e.lockedAt.IsZero() {
			elapsed := now.Sub(e.lockedAt)
			if elapsed < l.config.Lockout {
				return Result{Allowed: false, RetryAfter: l.config.Lockout - elapsed, Reason: "lockout"}
			}
		} else if e.count >= l.config.MaxAttempts {
			return Result{Allowed: false, RetryAfter: l.config.Lockout, Reason: "max_attempts"}
		}
	}

	if e := l.attemptsByIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.MaxIPPerHour {
			return Result{Allowed: false, RetryAfter: time.Hour - now.Sub(e.firstAt), Reason: "ip_hourly_limit"}
		}
	}

	return Result{Allowed: true}
}

// RecordFailure records a failed login. Returns true if the account just
// crossed into lockout.
func (l *Limiter) RecordFailure(account, ip string) (lockedOut bool) {
	now := l.clock.Now()
	accountKey := l.hashKey("login:acct:", normalizeAccount(account))

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.failedByAccount[accountKey]
	switch {
	case e == nil:
		l.failedByAccount[accountKey] = &entry{count: 1, firstAt: now, lastAt: now}
	case !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.Lockout:
		// Lockout expired, start over
		l.failedByAccount[accountKey] = &entry{count: 1, firstAt: now, lastAt: now}
	default:
		e.count++
		e.lastAt = now
		if e.count >= l.config.MaxAttempts && e.lockedAt.IsZero() {
			e.lockedAt = now
			lockedOut = true
		}
	}

	l.recordIP(ip, now)
	return lockedOut
}

// RecordSuccess clears the failure counter for the account and counts the
// attempt against the IP budget.
func (l *Limiter) RecordSuccess(account, ip string) {
	now := l.clock.Now()
	accountKey := l.hashKey("login:acct:", normalizeAccount(account))

	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.failedByAccount, accountKey)
	l.recordIP(ip, now)
}

func (l *Limiter) recordIP(ip string, now time.Time) {
	ipKey := l.hashKey("login:ip:", ip)
	e := l.attemptsByIP[ipKey]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		l.attemptsByIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
	}
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeAccount lowercases the email to prevent case-based bypass.
func normalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	maxAge := l.config.Lockout + time.Hour
	for k, e := range l.failedByAccount {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.failedByAccount, k)
		}
	}
	for k, e := range l.attemptsByIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.attemptsByIP, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost non-private IP from
// X-Forwarded-For; when false, X-Forwarded-For is ignored entirely.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

// privateNetworks holds parsed CIDR ranges for private/reserved IPs.
var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10", // Link-local
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SanitizeAccount masks an email for logging.
func SanitizeAccount(account string) string {
	account = normalizeAccount(account)
	if strings.Contains(account, "@") {
		parts := strings.Split(account, "@")
		if len(parts[0]) > 2 {
			return parts[0][:2] + "***@" + parts[1]
		}
		return "***@" + parts[1]
	}
	if len(account) >= 4 {
		return "***" + account[len(account)-4:]
	}
	return "***"
}

// LogLimitExceeded logs a rate limit event with a sanitized account.
func LogLimitExceeded(account, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("account", SanitizeAccount(account)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Login rate limit exceeded")
}
