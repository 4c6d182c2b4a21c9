package jwt

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
)

// Module code 30. Match with errors.Is; messages and data vary per occurrence.
var (
	ErrSign = errcode.Register(errcode.New(30, 1, "jwt", "jwt.sign_failed",
		"token signing failed", http.StatusInternalServerError))

	ErrUnsupportedAlgorithm = errcode.Register(errcode.New(30, 2, "jwt", "jwt.unsupported_algorithm",
		"unsupported signing algorithm", http.StatusInternalServerError))

	// ErrVerify issuer or audience mismatch
	ErrVerify = errcode.Register(errcode.New(30, 3, "jwt", "jwt.claims_invalid",
		"token claims are invalid", http.StatusUnauthorized))

	// ErrExpired data: expired_at (unix seconds), elapsed (seconds past exp)
	ErrExpired = errcode.Register(errcode.New(30, 4, "jwt", "jwt.token_expired",
		"token expired", http.StatusUnauthorized))

	// ErrInvalidToken malformed structure, segment or payload
	ErrInvalidToken = errcode.Register(errcode.New(30, 5, "jwt", "jwt.token_invalid",
		"invalid token", http.StatusUnauthorized))

	// ErrBlacklisted data: jti
	ErrBlacklisted = errcode.Register(errcode.New(30, 6, "jwt", "jwt.token_blacklisted",
		"token has been revoked", http.StatusUnauthorized))

	ErrInvalidSignature = errcode.Register(errcode.New(30, 7, "jwt", "jwt.invalid_signature",
		"invalid token signature", http.StatusUnauthorized))

	// ErrSecret missing or incompatible key material
	ErrSecret = errcode.Register(errcode.New(30, 8, "jwt", "jwt.secret_invalid",
		"invalid key material", http.StatusInternalServerError))

	ErrRefresh = errcode.Register(errcode.New(30, 9, "jwt", "jwt.refresh_failed",
		"token refresh failed", http.StatusUnauthorized))

	ErrConfiguration = errcode.Register(errcode.New(30, 10, "jwt", "jwt.configuration_invalid",
		"invalid jwt configuration", http.StatusInternalServerError))

	ErrInvalidDuration = errcode.Register(errcode.New(30, 11, "jwt", "jwt.invalid_duration",
		"invalid duration", http.StatusBadRequest))

	ErrInvalidHeader = errcode.Register(errcode.New(30, 12, "jwt", "jwt.invalid_header",
		"missing or malformed authorization header", http.StatusUnauthorized))

	// ErrNotInitialized the service was cleaned up
	ErrNotInitialized = errcode.Register(errcode.New(30, 13, "jwt", "jwt.not_initialized",
		"token service is not initialized", http.StatusInternalServerError))

	// ErrStore blacklist or refresh registry failure
	ErrStore = errcode.Register(errcode.New(30, 14, "jwt", "jwt.store_failed",
		"token store failure", http.StatusServiceUnavailable))

	ErrInvalidSubject = errcode.Register(errcode.New(30, 15, "jwt", "jwt.invalid_subject",
		"subject is required", http.StatusBadRequest))
)

// Specific variants, still matching their parent kind
var (
	errInvalidFormat    = ErrInvalidToken.WithMsg("invalid token format")
	errInvalidPayload   = ErrInvalidToken.WithMsg("invalid token payload")
	errMalformedSegment = ErrInvalidToken.WithMsg("malformed token segment")
	errInvalidIssuer    = ErrVerify.WithMsg("invalid issuer")
	errInvalidAudience  = ErrVerify.WithMsg("invalid audience")
	errRefreshNotFound  = ErrRefresh.WithMsg("refresh token not found")
)
