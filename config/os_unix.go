//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

const forbiddenRunes = ""

func isReservedName(string) bool {
	return false
}

func enableTerminalColors(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
