package jwt

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// KeyMaterial parsed keys; immutable once built
type KeyMaterial struct {
	Secret     []byte
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// LoadKeyMaterial reads the keys required by cfg.Algorithm.
// RSA keys may be inline PEM or file paths; the pair must match.
func LoadKeyMaterial(cfg Config) (*KeyMaterial, error) {
	switch {
	case isHMAC(cfg.Algorithm):
		if cfg.Secret == "" {
			return nil, ErrSecret.WithMsgf("secret is required for %s", cfg.Algorithm)
		}
		return &KeyMaterial{Secret: []byte(cfg.Secret)}, nil

	case isRSA(cfg.Algorithm):
		privPEM, err := readPEM(cfg.PrivateKey, cfg.PrivateKeyPath)
		if err != nil {
			return nil, ErrSecret.Wrapf(err, "read private key")
		}
		pubPEM, err := readPEM(cfg.PublicKey, cfg.PublicKeyPath)
		if err != nil {
			return nil, ErrSecret.Wrapf(err, "read public key")
		}
		if len(privPEM) == 0 || len(pubPEM) == 0 {
			return nil, ErrSecret.WithMsgf("%s requires both a private and a public key", cfg.Algorithm)
		}

		priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
		if err != nil {
			return nil, ErrSecret.Wrapf(err, "parse private key")
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, ErrSecret.Wrapf(err, "parse public key")
		}
		if !priv.PublicKey.Equal(pub) {
			return nil, ErrSecret.WithMsg("public key does not match private key")
		}
		return &KeyMaterial{PrivateKey: priv, PublicKey: pub}, nil
	}

	return nil, ErrUnsupportedAlgorithm.WithMsgf("unsupported algorithm %q", cfg.Algorithm).
		WithData("algorithm", cfg.Algorithm)
}

func readPEM(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
