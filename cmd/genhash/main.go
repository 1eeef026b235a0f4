// genhash prints the bcrypt hash of an operator PIN for OPERATOR_PIN_HASH.
// Usage: go run ./cmd/genhash 4821
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 || len(os.Args[1]) < 4 || len(os.Args[1]) > 12 {
		fmt.Fprintln(os.Stderr, "usage: genhash <pin>  (4 to 12 characters)")
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 12)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bcrypt:", err)
		os.Exit(1)
	}
	fmt.Println(string(h))
}
