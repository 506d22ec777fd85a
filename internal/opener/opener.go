// Package opener opens quick links and image URLs outside the terminal.
package opener

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// launchPath is one way to open a URL on a platform
type launchPath struct {
	command string
	args    []string // placed before the URL
}

// platformOpeners lists system openers to try in order
var platformOpeners = map[string][]launchPath{
	"darwin":  {{command: "open"}},
	"windows": {{command: "cmd", args: []string{"/c", "start", ""}}, {command: "rundll32", args: []string{"url.dll,FileProtocolHandler"}}},
	"linux":   {{command: "xdg-open"}, {command: "gio", args: []string{"open"}}, {command: "sensible-browser"}},
}

// Opener launches URLs in the configured command or system default
type Opener struct {
	command string // configured command, empty for system default
	args    []string
	logger  *slog.Logger

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// New creates an Opener. command may carry arguments, e.g. "firefox --new-tab".
func New(command string, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	fields := strings.Fields(command)
	o := &Opener{
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
	if len(fields) > 0 {
		o.command = fields[0]
		o.args = fields[1:]
	}
	return o
}

// Open launches url without waiting for the program to exit
func (o *Opener) Open(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("refusing to open non-web URL %q", url)
	}

	if o.command != "" {
		o.logger.Info("opening with configured command", "command", o.command, "url", url)
		return o.start(o.command, append(append([]string{}, o.args...), url)...)
	}

	paths, ok := platformOpeners[runtime.GOOS]
	if !ok {
		paths = platformOpeners["linux"]
	}

	for _, lp := range paths {
		if _, err := o.lookPath(lp.command); err != nil {
			o.logger.Debug("opener not available", "command", lp.command, "error", err)
			continue
		}
		args := append(append([]string{}, lp.args...), url)
		if err := o.start(lp.command, args...); err != nil {
			o.logger.Debug("opener failed", "command", lp.command, "error", err)
			continue
		}
		o.logger.Info("opened with system default", "command", lp.command, "url", url)
		return nil
	}

	return fmt.Errorf("no opener found for %s", runtime.GOOS)
}
