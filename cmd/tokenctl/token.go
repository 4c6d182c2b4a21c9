package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/flagx"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/spf13/cobra"
)

type signRequest struct {
	Type      string   `flag:"type,t" usage:"access, refresh, reset or verification" default:"access"`
	Subject   string   `flag:"subject,s" usage:"sub claim"`
	Claims    string   `flag:"claims" usage:"extra claims as a JSON object"`
	ExpiresIn string   `flag:"expires-in,e" usage:"lifetime override: seconds or 30s, 15m, 12h, 7d, 2w"`
	Audience  []string `flag:"aud" usage:"aud claim override"`
	Pair      bool     `flag:"pair" usage:"mint an access and refresh pair"`
}

func (r signRequest) payload() (jwt.TokenPayload, error) {
	payload := jwt.TokenPayload{}
	if r.Claims != "" {
		if err := json.Unmarshal([]byte(r.Claims), &payload); err != nil {
			return nil, fmt.Errorf("--claims: %w", err)
		}
	}
	if r.Subject != "" {
		payload["sub"] = r.Subject
	}
	return payload, nil
}

// expiresIn bare digits are seconds
func (r signRequest) expiresIn() interface{} {
	if r.ExpiresIn == "" {
		return nil
	}
	if n, err := strconv.ParseInt(r.ExpiresIn, 10, 64); err == nil {
		return n
	}
	return r.ExpiresIn
}

type signOutput struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	JTI       string `json:"jti"`
	ExpiresAt string `json:"expires_at"`
}

type pairOutput struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
}

type verifyOutput struct {
	Valid       bool                   `json:"valid"`
	Error       string                 `json:"error,omitempty"`
	Code        int                    `json:"code,omitempty"`
	Expired     bool                   `json:"expired,omitempty"`
	Blacklisted bool                   `json:"blacklisted,omitempty"`
	Claims      map[string]interface{} `json:"claims,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func mustBind(cmd *cobra.Command, req interface{}) {
	if err := flagx.BindFlags(cmd, req); err != nil {
		panic(err)
	}
}

func newSignCmd(opts *rootOptions) *cobra.Command {
	var req signRequest
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a token, or an access/refresh pair with --pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flagx.ParseFlags(cmd, &req); err != nil {
				return err
			}
			payload, err := req.payload()
			if err != nil {
				return err
			}
			typ := jwt.TokenType(req.Type)
			if !req.Pair && !typ.Valid() {
				return fmt.Errorf("unknown token type %q", req.Type)
			}

			return withService(cmd, opts, func(ctx context.Context, svc *jwt.Service) error {
				if req.Pair {
					pair, err := svc.CreateTokenPair(ctx, payload)
					if err != nil {
						return err
					}
					return printJSON(cmd, pairOutput{
						AccessToken:      pair.AccessToken,
						RefreshToken:     pair.RefreshToken,
						AccessExpiresAt:  formatTime(pair.AccessExpiresAt),
						RefreshExpiresAt: formatTime(pair.RefreshExpiresAt),
					})
				}

				signOpts := &jwt.SignOptions{ExpiresIn: req.expiresIn()}
				if len(req.Audience) > 0 {
					signOpts.Audience = jwt.Audience(req.Audience)
				}
				tok, err := svc.Sign(ctx, payload, typ, signOpts)
				if err != nil {
					return err
				}
				return printJSON(cmd, signOutput{
					Token:     tok.Token,
					Type:      string(tok.Type),
					JTI:       tok.Payload.JTI,
					ExpiresAt: formatTime(tok.ExpiresAt),
				})
			})
		},
	}
	mustBind(cmd, &req)
	return cmd
}

type verifyRequest struct {
	Header bool `flag:"header" usage:"argument is an Authorization header value (Bearer <token>)"`
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var req verifyRequest
	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify signature, expiry, issuer and audience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flagx.ParseFlags(cmd, &req); err != nil {
				return err
			}
			return withService(cmd, opts, func(ctx context.Context, svc *jwt.Service) error {
				var (
					res *jwt.VerifyResult
					err error
				)
				if req.Header {
					res, err = svc.VerifyFromHeader(ctx, args[0])
				} else {
					res, err = svc.Verify(ctx, strings.TrimSpace(args[0]))
				}
				if err != nil {
					return err
				}

				out := verifyOutput{
					Valid:       res.Valid,
					Error:       res.Error,
					Code:        errcode.CodeOf(res.Err),
					Expired:     res.Expired,
					Blacklisted: res.Blacklisted,
				}
				if res.Payload != nil {
					out.Claims = res.Payload.Claims
				}
				if err := printJSON(cmd, out); err != nil {
					return err
				}
				if !res.Valid {
					return res.Err
				}
				return nil
			})
		},
	}
	mustBind(cmd, &req)
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Print the claims without verifying anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := jwt.Decode(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, d.Claims)
		},
	}
}
