// Command hashpass prints a bcrypt hash suitable for AUDIT_PASSWORD_HASH.
// The password is read from the first line of standard input.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/polkiloo/channelpass/internal/pkg/auth"
)

func main() {
	cost := flag.Int("cost", 0, "bcrypt cost, 0 for the library default")
	flag.Parse()

	if err := run(bufio.NewReader(os.Stdin), *cost); err != nil {
		fmt.Fprintf(os.Stderr, "hashpass: %v\n", err)
		os.Exit(1)
	}
}

func run(in *bufio.Reader, cost int) error {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("empty password")
	}

	hash, err := auth.NewBcryptHasher(cost).Hash(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
