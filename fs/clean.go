package fs

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// Clean prepares text captured from a terminal, such as build logs or
// saved command output, for use as a document. It removes ANSI escape
// sequences and control characters other than tab and newline, turns CRLF
// into LF, and applies lone carriage returns the way a terminal would, so
// progress-bar redraws collapse to their final state.
//
// Data that is not valid UTF-8 is returned unchanged so the store can
// reject it as binary.
func Clean(data []byte) []byte {
	if !utf8.Valid(data) || !needsCleaning(data) {
		return data
	}
	s := ansi.Strip(string(data))
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = overwrite(dropControl(line))
	}
	return []byte(strings.Join(lines, "\n"))
}

func needsCleaning(data []byte) bool {
	for _, c := range data {
		if c < 0x20 && c != '\t' && c != '\n' {
			return true
		}
	}
	return false
}

// dropControl keeps tab and carriage return and removes every other C0
// control character.
func dropControl(line string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\r' {
			return -1
		}
		return r
	}, line)
}

// overwrite resolves carriage returns: each one moves back to column zero
// and later text replaces earlier text rune by rune.
func overwrite(line string) string {
	if !strings.ContainsRune(line, '\r') {
		return line
	}
	segments := strings.Split(line, "\r")
	buf := []rune(segments[0])
	for _, seg := range segments[1:] {
		for j, r := range []rune(seg) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}
