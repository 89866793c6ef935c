package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a prompt needs an interactive terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

var promptStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)

// PromptPassword reads a secret from the terminal without echo.
func PromptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprint(os.Stderr, promptStyle.Render(prompt))
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

// Confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes counts as no.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, promptStyle.Render(question+" [y/N]: "))
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	fmt.Fprintln(out, MutedStyle.Render("  Cancelled."))
	return false
}
