// Notary Keygen CLI
// Generates the Ed25519 identity key a notary signs evidence with

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brindlechain/notarycore/pkg/notarysig"
)

func main() {
	var (
		out = flag.String("out", "data/notary_key.hex", "Path to write the private key")
		id  = flag.String("id", "notary-default", "Notary identity ID for the printed summary")
	)
	flag.Parse()

	if _, err := os.Stat(*out); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists, refusing to overwrite\n", *out)
		os.Exit(1)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, []byte(hex.EncodeToString(priv)), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	signer, err := notarysig.NewSigner(*id, priv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\nIdentity:   %s\nPublic key: %s\n", *out, *id, signer.PublicKeyHex())
}
