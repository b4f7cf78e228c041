package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Credentials returns configured values and prompts on the terminal for
// anything missing. Without a terminal, missing values stay empty.
type Credentials struct {
	username string
	password string
	in       *os.File
	out      io.Writer
	reader   *bufio.Reader
}

// NewCredentials creates a provider reading prompts from stdin.
func NewCredentials(username, password string) *Credentials {
	return &Credentials{
		username: username,
		password: password,
		in:       os.Stdin,
		out:      os.Stderr,
		reader:   bufio.NewReader(os.Stdin),
	}
}

func (c *Credentials) interactive() bool {
	return term.IsTerminal(int(c.in.Fd()))
}

func (c *Credentials) Username(ctx context.Context) (string, error) {
	if c.username != "" || !c.interactive() {
		return c.username, nil
	}
	fmt.Fprint(c.out, "Enter username: ")
	line, err := c.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	c.username = strings.TrimSpace(line)
	return c.username, nil
}

func (c *Credentials) Password(ctx context.Context) (string, error) {
	if c.password != "" || !c.interactive() {
		return c.password, nil
	}
	fmt.Fprint(c.out, "Enter password: ")
	pw, err := term.ReadPassword(int(c.in.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return "", err
	}
	c.password = string(pw)
	return c.password, nil
}
