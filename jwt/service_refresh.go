package jwt

import (
	"context"

	"go.uber.org/zap"
)

// claims carried over from a refresh token into the new pair
var refreshedClaims = []string{"sub", "email", "role", "permissions"}

// RefreshAccessToken exchanges a refresh token for a new pair.
//
// The refresh token is single-use: it is removed from the registry before the
// new pair is minted, and of concurrent calls with the same token only one
// succeeds. The old jti is blacklisted for the rest of its lifetime.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	res, err := s.Verify(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		s.metrics.RecordRefreshed(ctx, "failure")
		return nil, ErrRefresh.Wrapf(res.Err, "refresh token rejected: %s", res.Error)
	}
	old := res.Payload

	removed, err := s.registry.Invalidate(ctx, old.JTI)
	if err != nil {
		s.logger.ErrorCtx(ctx, "refresh registry lookup failed", zap.Error(err))
		return nil, err
	}
	if !removed {
		s.metrics.RecordRefreshed(ctx, "failure")
		s.logger.WarnCtx(ctx, "refresh token reused or unknown",
			zap.String("jti", shortJTI(old.JTI)), zap.String("subject", old.Subject))
		return nil, errRefreshNotFound
	}

	// fail closed: without the blacklist entry the old token would stay usable as an access token
	if err := s.blacklist.Add(ctx, old.JTI, s.retention(old.ExpiresAt)); err != nil {
		s.logger.ErrorCtx(ctx, "blacklisting used refresh token failed", zap.Error(err))
		return nil, err
	}

	payload := make(TokenPayload, len(refreshedClaims))
	for _, k := range refreshedClaims {
		if v, ok := old.Claims[k]; ok {
			payload[k] = v
		}
	}

	pair, err := s.CreateTokenPair(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.stats.refreshed.Add(1)
	s.metrics.RecordRefreshed(ctx, "success")
	s.logger.DebugCtx(ctx, "token refreshed", zap.String("subject", old.Subject))
	return pair, nil
}

// RevokeToken blacklists a token until it would have expired and drops its
// refresh registration, if any.
//
// The signature is not checked, so a client can always revoke what it holds.
// When it does not verify, the retention is capped at the longest lifetime this
// service issues, so a forged exp cannot pin an entry forever.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	d, err := s.adapter.Decode(token)
	if err != nil {
		return err
	}
	if d.JTI == "" {
		return errInvalidPayload.WithMsg("token has no jti")
	}

	until := s.retention(d.ExpiresAt)
	if d.ExpiresAt == 0 || s.adapter.VerifySignature(token) != nil {
		if limit := s.retentionCap(); d.ExpiresAt == 0 || until.After(limit) {
			until = limit
		}
	}

	if err := s.blacklist.Add(ctx, d.JTI, until); err != nil {
		s.logger.ErrorCtx(ctx, "token revocation failed", zap.Error(err))
		return err
	}
	if _, err := s.registry.Invalidate(ctx, d.JTI); err != nil {
		return err
	}

	s.stats.revoked.Add(1)
	s.metrics.RecordRevoked(ctx, "token", 1)
	s.logger.InfoCtx(ctx, "token revoked", zap.String("jti", shortJTI(d.JTI)), zap.String("subject", d.Subject))
	return nil
}

// RevokeAllUserTokens invalidates every registered refresh token of subject and
// blacklists them. It also marks the subject so tokens issued up to now, access
// tokens included, are rejected; tokens signed after the call stay valid even
// within the same second. Returns the number of refresh tokens revoked.
func (s *Service) RevokeAllUserTokens(ctx context.Context, subject string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if subject == "" {
		return 0, ErrInvalidSubject
	}

	entries, err := s.registry.InvalidateAllForSubject(ctx, subject)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := s.blacklist.Add(ctx, e.JTI, e.ExpiresAt); err != nil {
			return 0, err
		}
	}

	now := s.clock.Now()
	s.adapter.issuedAfter(now)
	if err := s.blacklist.RevokeSubject(ctx, subject, now, s.retentionCap()); err != nil {
		return 0, err
	}

	s.stats.revoked.Add(int64(len(entries)))
	s.metrics.RecordRevoked(ctx, "subject", len(entries))
	s.logger.InfoCtx(ctx, "all tokens of subject revoked",
		zap.String("subject", subject),
		zap.Int("refresh_tokens", len(entries)),
		zap.Time("issued_before", now),
	)
	return len(entries), nil
}
