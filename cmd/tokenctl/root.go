package main

import (
	"context"
	"encoding/json"

	"github.com/KOMKZ/go-yogan-tokenauth/config"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultEnvPrefix = "TOKENAUTH"

// flag name -> config key; flags win over files and the environment
var flagKeys = map[string]string{
	"algorithm":        "jwt.algorithm",
	"secret":           "jwt.secret",
	"private-key-file": "jwt.private_key_path",
	"public-key-file":  "jwt.public_key_path",
	"issuer":           "jwt.issuer",
	"audience":         "jwt.audience",
	"clock-tolerance":  "jwt.clock_tolerance",
	"iterations":       "jwt.password.iterations",
}

type rootOptions struct {
	configPath string
	configFile string
	envPrefix  string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "tokenctl",
		Short:        "Sign, verify and decode tokens",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config-path", "", "directory holding config.yaml and <env>.yaml")
	pf.StringVarP(&opts.configFile, "config", "c", "", "explicit config file, replaces --config-path")
	pf.StringVar(&opts.envPrefix, "env-prefix", defaultEnvPrefix, "environment variable prefix")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	pf.String("algorithm", "", "HS256, HS384, HS512, RS256, RS384 or RS512")
	pf.String("secret", "", "HMAC secret")
	pf.String("private-key-file", "", "RSA private key PEM file")
	pf.String("public-key-file", "", "RSA public key PEM file")
	pf.String("issuer", "", "iss claim stamped and required")
	pf.String("audience", "", "aud claim stamped and required")
	pf.Int("clock-tolerance", 0, "seconds accepted past exp")
	pf.Int("iterations", 0, "PBKDF2 iterations for password hashing")

	root.AddCommand(
		newSignCmd(opts),
		newVerifyCmd(opts),
		newDecodeCmd(),
		newHashPasswordCmd(opts),
		newVerifyPasswordCmd(opts),
	)
	return root
}

// loadConfig layers the "jwt" section from files, environment and flags over DefaultConfig
func loadConfig(cmd *cobra.Command, opts *rootOptions) (jwt.Config, error) {
	cfg := jwt.DefaultConfig()

	builder := config.NewLoaderBuilder().
		WithEnvPrefix(opts.envPrefix).
		WithFlags(cmd.Flags(), flagKeys)
	if opts.configFile != "" {
		builder = builder.WithConfigFile(opts.configFile)
	} else if opts.configPath != "" {
		builder = builder.WithConfigPath(opts.configPath)
	}

	loader, err := builder.Build()
	if err != nil {
		return cfg, err
	}
	if loader.IsSet("jwt") {
		if err := loader.Unmarshal("jwt", &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newService builds a short-lived service with in-memory stores; the caller runs Cleanup
func newService(cmd *cobra.Command, opts *rootOptions) (*jwt.Service, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	return jwt.NewService(cfg, jwt.WithLogger(cliLogger(opts)))
}

func cliLogger(opts *rootOptions) *logger.CtxZapLogger {
	if !opts.verbose {
		return logger.NewNop()
	}
	// stdout carries command output
	base, err := zap.NewDevelopment()
	if err != nil {
		return logger.NewNop()
	}
	return logger.Wrap(base, "tokenctl")
}

func withService(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc *jwt.Service) error) error {
	svc, err := newService(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() { _ = svc.Cleanup(ctx) }()
	return fn(ctx, svc)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
