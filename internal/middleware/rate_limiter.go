package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
)

// the visitor holds the rate limiter and last seen time for one key.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-IP limit and a tighter per-IP, per-form-value limit.
// Rates are expressed in requests per minute.
type RateLimiter struct {
	paramKey    string
	globalRate  float64
	globalBurst int
	paramRate   float64
	paramBurst  int
	idleTimeout time.Duration
	// trustedProxies are the peers allowed to report the client address via X-Forwarded-For.
	trustedProxies []*net.IPNet

	muGlobal sync.Mutex
	// globalVisitors maps IP addresses to their visitor for global rate limiting.
	globalVisitors map[string]*visitor
	muParam        sync.Mutex
	// paramVisitors maps IP -> parameter value -> visitor.
	paramVisitors map[string]map[string]*visitor
}

// NewRateLimiter builds a limiter keyed on the given form/query parameter with rates from config.
func NewRateLimiter(paramKey string) *RateLimiter {
	globalRate, globalBurst := config.GetGlobalRateLimiterConfig()
	paramRate, paramBurst := config.GetParamRateLimiterConfig()
	return &RateLimiter{
		paramKey:       paramKey,
		globalRate:     globalRate,
		globalBurst:    globalBurst,
		paramRate:      paramRate,
		paramBurst:     paramBurst,
		idleTimeout:    config.GetRateLimiterCleanupTimeout(),
		trustedProxies: parseProxies(config.GetTrustedProxies()),
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
	}
}

func perMinute(n float64) rate.Limit {
	return rate.Limit(n / 60.0)
}

// getGlobalLimiter returns the rate limiter for the given IP address, creating one if it does not exist.
func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(perMinute(rl.globalRate), rl.globalBurst)
		rl.globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getParamLimiter returns the rate limiter for the given IP address and parameter value.
func (rl *RateLimiter) getParamLimiter(ip, param string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][param]
	if !exists {
		limiter := rate.NewLimiter(perMinute(rl.paramRate), rl.paramBurst)
		rl.paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Sweep removes visitors that have not been seen for longer than the idle timeout.
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if now.Sub(v.lastSeen) > rl.idleTimeout {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, paramMap := range rl.paramVisitors {
		for param, v := range paramMap {
			if now.Sub(v.lastSeen) > rl.idleTimeout {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// StartCleanup sweeps idle visitors every minute until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.Sweep(now)
			}
		}
	}()
}

// Reset clears all visitor state. Used primarily for testing.
func (rl *RateLimiter) Reset() {
	rl.muGlobal.Lock()
	rl.globalVisitors = make(map[string]*visitor)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	rl.paramVisitors = make(map[string]map[string]*visitor)
	rl.muParam.Unlock()
}

// visitorCount reports how many IPs are tracked by each limiter.
func (rl *RateLimiter) visitorCount() (global, param int) {
	rl.muGlobal.Lock()
	global = len(rl.globalVisitors)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	param = len(rl.paramVisitors)
	rl.muParam.Unlock()
	return
}

// parseProxies accepts CIDRs and bare IPs; invalid entries are logged and skipped.
func parseProxies(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil {
				bits := 8 * net.IPv6len
				if ip.To4() != nil {
					ip, bits = ip.To4(), 8*net.IPv4len
				}
				nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			config.GetLogger().Warnw("Ignoring invalid trusted proxy", "entry", e, "error", err)
			continue
		}
		nets = append(nets, n)
	}
	return nets
}

func (rl *RateLimiter) trusted(ip net.IP) bool {
	for _, n := range rl.trustedProxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// getIP extracts the client's IP address from the HTTP request. X-Forwarded-For is only
// considered when the direct peer is a trusted proxy.
func (rl *RateLimiter) getIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr // fallback
	}
	if peer := net.ParseIP(ip); peer == nil || !rl.trusted(peer) {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	return ip
}

func writeTooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse(errMsg, message))
}

// Middleware returns an HTTP middleware that enforces global and per-parameter rate limiting.
// If the rate limit is exceeded, it responds with a 429 status and a JSON error message.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.getIP(r)
		// FormValue parses the body once; handlers read the cached r.Form afterwards.
		param := strings.TrimSpace(r.FormValue(rl.paramKey))
		if param == "" {
			// If param is missing, treat as a single bucket
			param = "__none__"
		}
		if !rl.getGlobalLimiter(ip).Allow() {
			config.GetLogger().Infow("Rate limit exceeded", "ip", ip, "scope", "global")
			writeTooManyRequests(w, "Rate limit exceeded: too many queries from this address", "Too Many Requests (global limit)")
			return
		}
		if !rl.getParamLimiter(ip, strings.ToLower(param)).Allow() {
			config.GetLogger().Infow("Rate limit exceeded", "ip", ip, "scope", "param", rl.paramKey, param)
			writeTooManyRequests(w, "Rate limit exceeded: too many queries for this "+rl.paramKey, "Too Many Requests (per-param limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
