package output

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ClearScreen clears the terminal screen and moves cursor to top-left
func ClearScreen(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[2J\033[H")
}

// HideCursor hides the terminal cursor
func HideCursor(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[?25l")
}

// ShowCursor shows the terminal cursor
func ShowCursor(w io.Writer) {
	_, _ = fmt.Fprint(w, "\033[?25h")
}

// SetupSignalHandler returns a channel that receives interrupt signals
func SetupSignalHandler() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return sigChan
}

// Watch redraws the screen every interval until stop receives. Render
// errors are printed in place of the output and do not end the loop.
func Watch(w io.Writer, interval time.Duration, stop <-chan os.Signal, render func(io.Writer) error) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	HideCursor(w)
	defer ShowCursor(w)

	for {
		ClearScreen(w)
		_, _ = fmt.Fprintf(w, "Last update: %s | Next refresh in %s | Press Ctrl+C to exit\n\n",
			time.Now().Format("15:04:05"), interval)

		if err := render(w); err != nil {
			_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		}

		select {
		case <-ticker.C:
		case <-stop:
			ClearScreen(w)
			_, _ = fmt.Fprintln(w, "Watch mode ended.")
			return nil
		}
	}
}
