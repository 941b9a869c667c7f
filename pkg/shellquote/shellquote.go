// Package shellquote builds shell-pasteable command lines for logging.
package shellquote

import (
	"slices"
	"strings"
)

// Redacted replaces the value following a sensitive flag.
const Redacted = "<redacted>"

const safe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_@%+=:,./-"

// quote returns a bash/zsh-safe argument, using double quotes when needed.
// Inside double quotes \ " $ ` must be escaped.
func quote(s string) string { //nolint:varnamelen
	if s == "" {
		return `""`
	}

	if !strings.ContainsFunc(s, func(r rune) bool { return !strings.ContainsRune(safe, r) }) {
		return s
	}

	var b strings.Builder //nolint:varnamelen
	b.WriteByte('"')

	for _, r := range s { //nolint:varnamelen
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// Join constructs a shell-pasteable command line from bin and args.
func Join(bin string, args []string) string {
	return JoinRedacted(bin, args)
}

// JoinRedacted is Join, but the argument after any of the given flags
// (e.g. --password) is replaced with Redacted.
func JoinRedacted(bin string, args []string, flags ...string) string {
	var cmdLine strings.Builder

	cmdLine.WriteString(quote(bin))

	hide := false

	for _, arg := range args {
		cmdLine.WriteByte(' ')

		if hide {
			cmdLine.WriteString(Redacted)

			hide = false

			continue
		}

		cmdLine.WriteString(quote(arg))

		hide = slices.Contains(flags, arg)
	}

	return cmdLine.String()
}
