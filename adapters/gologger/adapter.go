// Package gologger builds the go-logger loggers used by the r25live CLI.
package gologger

import (
	"io"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewLogger builds the go-logger root used by the CLI. Fatal only logs so the
// caller decides how to exit.
func NewLogger(level string, format string, out io.Writer) *glog.BaseLogger {
	opts := []glog.Option{
		glog.WithLevel(strings.ToLower(strings.TrimSpace(level))),
		glog.WithWriter(out),
		glog.WithFatalBehavior(glog.FatalBehaviorLogOnly),
	}
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		opts = append(opts, glog.WithLoggerTypeJSON())
	} else {
		opts = append(opts, glog.WithLoggerTypeConsole())
	}
	return glog.NewLogger(opts...)
}
