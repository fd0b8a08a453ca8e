package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnsureAPIKey makes sure envVar is set. When it is missing and stdin is a
// terminal the key is read with echo disabled and set for this process only.
// An empty envVar means the provider needs no key.
func EnsureAPIKey(envVar string, stdin *os.File, prompt io.Writer) error {
	if envVar == "" || os.Getenv(envVar) != "" {
		return nil
	}

	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("%s environment variable is required", envVar)
	}

	fmt.Fprintf(prompt, "%s: ", envVar)
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return fmt.Errorf("read %s: %w", envVar, err)
	}

	value := strings.TrimSpace(string(key))
	if value == "" {
		return fmt.Errorf("%s cannot be empty", envVar)
	}
	return os.Setenv(envVar, value)
}
