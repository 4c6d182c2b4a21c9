// Command tokenctl signs, verifies and decodes tokens and hashes passwords
// using the same configuration as the jwt component.
//
//	tokenctl --secret "$SECRET" sign --subject u1 --claims '{"role":"admin"}'
//	tokenctl --config-path ./configs verify "$TOKEN"
//	tokenctl decode "$TOKEN"
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
