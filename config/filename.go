package config

import (
	"os"
	"strings"
)

// CleanFileName turns arbitrary campaign or topic title into a file name
// acceptable on the host system.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym < 0x20 || sym == 0x7F || strings.ContainsRune(forbiddenRunes+string(os.PathSeparator)+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in)
	// leading dots hide files, trailing dots and spaces are dropped by some
	// file systems
	out = strings.TrimRight(strings.TrimLeft(out, "."), ". ")
	if len(out) == 0 {
		return "_bad_file_name_"
	}
	if isReservedName(out) {
		out = "_" + out
	}
	return out
}

// EnableColorOutput checks if colorized output is possible. NO_COLOR
// environment variable disables it regardless of the terminal.
func EnableColorOutput(stream *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return enableTerminalColors(stream)
}
