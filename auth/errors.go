package auth

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
)

// Module code 31
var (
	// ErrPasswordPolicy the password breaks one or more rules; Data()["violations"] lists all of them
	ErrPasswordPolicy = errcode.Register(errcode.New(31, 1, "auth", "auth.password_policy",
		"password does not meet the policy", http.StatusBadRequest))

	// ErrPasswordHash salt generation failed
	ErrPasswordHash = errcode.Register(errcode.New(31, 2, "auth", "auth.password_hash",
		"password hashing failed", http.StatusInternalServerError))

	// ErrInvalidConfig invalid password configuration
	ErrInvalidConfig = errcode.Register(errcode.New(31, 3, "auth", "auth.invalid_config",
		"invalid password configuration", http.StatusInternalServerError))
)

// Policy violation codes reported in ErrPasswordPolicy data
const (
	ViolationTooShort      = "too_short"
	ViolationTooLong       = "too_long"
	ViolationNoUppercase   = "missing_uppercase"
	ViolationNoLowercase   = "missing_lowercase"
	ViolationNoDigit       = "missing_digit"
	ViolationNoSpecialChar = "missing_special"
	ViolationBlacklisted   = "blacklisted"
)
