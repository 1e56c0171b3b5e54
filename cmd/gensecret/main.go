// gensecret prints a random hex key suitable for mockapi --secret-key
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultSecretKeyBytesLen = 32

func main() {
	size := pflag.IntP("bytes", "n", defaultSecretKeyBytesLen, "Key length in bytes")
	pflag.Parse()

	if *size < 16 {
		fmt.Fprintln(os.Stderr, "key shorter than 16 bytes is too weak")
		os.Exit(1)
	}

	b := make([]byte, *size)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
