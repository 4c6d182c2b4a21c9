package main

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/KOMKZ/go-yogan-tokenauth/flagx"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/spf13/cobra"
)

var errPasswordMismatch = errors.New("password does not match")

// readPassword "-" reads one line from stdin so the password stays out of shell history
func readPassword(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newHashPasswordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password|->",
		Short: "Check the password policy and print a PBKDF2 hash and salt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, args[0])
			if err != nil {
				return err
			}
			return withService(cmd, opts, func(ctx context.Context, svc *jwt.Service) error {
				hash, err := svc.HashPassword(ctx, password)
				if err != nil {
					return err
				}
				return printJSON(cmd, hash)
			})
		},
	}
}

type verifyPasswordRequest struct {
	Hash string `flag:"hash" usage:"hex encoded hash" required:"true"`
	Salt string `flag:"salt" usage:"hex encoded salt" required:"true"`
}

func newVerifyPasswordCmd(opts *rootOptions) *cobra.Command {
	var req verifyPasswordRequest
	cmd := &cobra.Command{
		Use:   "verify-password <password|->",
		Short: "Compare a password with a stored hash and salt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flagx.ParseFlags(cmd, &req); err != nil {
				return err
			}
			password, err := readPassword(cmd, args[0])
			if err != nil {
				return err
			}
			return withService(cmd, opts, func(ctx context.Context, svc *jwt.Service) error {
				match := svc.VerifyPassword(ctx, password, req.Hash, req.Salt)
				if err := printJSON(cmd, map[string]bool{"match": match}); err != nil {
					return err
				}
				if !match {
					return errPasswordMismatch
				}
				return nil
			})
		},
	}
	mustBind(cmd, &req)
	return cmd
}
