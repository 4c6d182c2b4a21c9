package jwt

import (
	"sync"
	"sync/atomic"
	"time"
)

// latencyWindow samples kept per latency average
const latencyWindow = 100

// Stats snapshot of the service counters
type Stats struct {
	TotalSigned         int64
	TotalVerified       int64
	TotalRefreshed      int64
	FailedVerifications int64
	ExpiredTokens       int64
	BlacklistedHits     int64
	TotalRevoked        int64
	SignedByType        map[TokenType]int64
	AvgSignLatency      time.Duration
	AvgVerifyLatency    time.Duration
}

type latencyRing struct {
	mu      sync.Mutex
	samples [latencyWindow]time.Duration
	next    int
	n       int
}

func (r *latencyRing) add(d time.Duration) {
	r.mu.Lock()
	r.samples[r.next] = d
	r.next = (r.next + 1) % latencyWindow
	if r.n < latencyWindow {
		r.n++
	}
	r.mu.Unlock()
}

func (r *latencyRing) avg() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < r.n; i++ {
		sum += r.samples[i]
	}
	return sum / time.Duration(r.n)
}

func (r *latencyRing) reset() {
	r.mu.Lock()
	r.next, r.n = 0, 0
	r.mu.Unlock()
}

type stats struct {
	signed       atomic.Int64
	verified     atomic.Int64
	refreshed    atomic.Int64
	failed       atomic.Int64
	expired      atomic.Int64
	blacklisted  atomic.Int64
	revoked      atomic.Int64
	signedByType map[TokenType]*atomic.Int64

	signLatency   latencyRing
	verifyLatency latencyRing
}

func newStats() *stats {
	s := &stats{signedByType: make(map[TokenType]*atomic.Int64, len(TokenTypes))}
	for _, t := range TokenTypes {
		s.signedByType[t] = new(atomic.Int64)
	}
	return s
}

func (s *stats) recordSign(typ TokenType, d time.Duration) {
	s.signed.Add(1)
	if c, ok := s.signedByType[typ]; ok {
		c.Add(1)
	}
	s.signLatency.add(d)
}

// recordVerify every verification counts once in verified, failures also in failed
func (s *stats) recordVerify(res *VerifyResult, d time.Duration) {
	s.verified.Add(1)
	if !res.Valid {
		s.failed.Add(1)
	}
	if res.Expired {
		s.expired.Add(1)
	}
	if res.Blacklisted {
		s.blacklisted.Add(1)
	}
	s.verifyLatency.add(d)
}

func (s *stats) snapshot() Stats {
	byType := make(map[TokenType]int64, len(s.signedByType))
	for t, c := range s.signedByType {
		byType[t] = c.Load()
	}
	return Stats{
		TotalSigned:         s.signed.Load(),
		TotalVerified:       s.verified.Load(),
		TotalRefreshed:      s.refreshed.Load(),
		FailedVerifications: s.failed.Load(),
		ExpiredTokens:       s.expired.Load(),
		BlacklistedHits:     s.blacklisted.Load(),
		TotalRevoked:        s.revoked.Load(),
		SignedByType:        byType,
		AvgSignLatency:      s.signLatency.avg(),
		AvgVerifyLatency:    s.verifyLatency.avg(),
	}
}

func (s *stats) reset() {
	for _, c := range []*atomic.Int64{&s.signed, &s.verified, &s.refreshed, &s.failed,
		&s.expired, &s.blacklisted, &s.revoked} {
		c.Store(0)
	}
	for _, c := range s.signedByType {
		c.Store(0)
	}
	s.signLatency.reset()
	s.verifyLatency.reset()
}
