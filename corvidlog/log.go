// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package corvidlog is the ambient logging wrapper shared by every actor
// and background worker in the core. It exists so call sites depend on
// one small package instead of charmbracelet/log directly.
package corvidlog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is an alias of charmbracelet/log's Logger type.
type Logger = log.Logger

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05.000",
})

// SetLevel adjusts the root logger's minimum level ("debug", "info",
// "warn", "error"). Unknown names are treated as "info".
func SetLevel(name string) {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		lvl = log.InfoLevel
	}
	root.SetLevel(lvl)
}

// New returns a logger prefixed with the given component name, e.g.
// corvidlog.New("spdp") for the SPDP announcer.
func New(prefix string) *Logger {
	return root.WithPrefix(prefix)
}
