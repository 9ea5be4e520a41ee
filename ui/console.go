package ui

import (
	"io"

	"snortdash/dashboard"
)

// Console abstracts the local renderer so alternative consoles can plug in.
// Implementations must be safe for concurrent calls from refresh cycles and
// the status loop.
type Console interface {
	dashboard.Display
	WaitReady()
	Stop()
	// Done is closed when the console stops, including when the user quits.
	Done() <-chan struct{}
	SetStatus(lines []string)
	AppendSystem(line string)
	SystemWriter() io.Writer
}
