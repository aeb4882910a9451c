package stdoutwriter

import "github.com/pterm/pterm"

// Logger writes received bytes to stdout. It implements io.Writer and is
// meant to be plugged into the logging Helper as a sink.
type Logger struct{}

func (l Logger) Write(p []byte) (n int, err error) {
	pterm.Println(string(p))
	return len(p), nil
}
