package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyRing_KeepsLastWindow(t *testing.T) {
	var r latencyRing
	assert.Zero(t, r.avg())

	for i := 0; i < latencyWindow; i++ {
		r.add(time.Millisecond)
	}
	assert.Equal(t, time.Millisecond, r.avg())

	// the old samples roll out one by one
	for i := 0; i < latencyWindow; i++ {
		r.add(3 * time.Millisecond)
	}
	assert.Equal(t, 3*time.Millisecond, r.avg())

	r.reset()
	assert.Zero(t, r.avg())
}

func TestStats_RecordVerify(t *testing.T) {
	s := newStats()
	s.recordVerify(&VerifyResult{Valid: true}, time.Millisecond)
	s.recordVerify(&VerifyResult{Expired: true}, time.Millisecond)
	s.recordVerify(&VerifyResult{Blacklisted: true}, time.Millisecond)
	s.recordSign(TokenTypeReset, time.Millisecond)
	s.recordSign(TokenType("custom"), time.Millisecond)

	snap := s.snapshot()
	assert.Equal(t, int64(3), snap.TotalVerified)
	assert.Equal(t, int64(2), snap.FailedVerifications)
	assert.Equal(t, int64(1), snap.ExpiredTokens)
	assert.Equal(t, int64(1), snap.BlacklistedHits)
	assert.Equal(t, int64(2), snap.TotalSigned)
	assert.Equal(t, int64(1), snap.SignedByType[TokenTypeReset])
	assert.Equal(t, time.Millisecond, snap.AvgVerifyLatency)

	s.reset()
	assert.Equal(t, Stats{SignedByType: map[TokenType]int64{
		TokenTypeAccess: 0, TokenTypeRefresh: 0, TokenTypeReset: 0, TokenTypeVerification: 0,
	}}, s.snapshot())
}
