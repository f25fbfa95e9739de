package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// supportsColor reports whether w can take ANSI color escapes. The writer
// must be a terminal, NO_COLOR must be unset (https://no-color.org), and
// TERM must not be "dumb".
func supportsColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}

	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
