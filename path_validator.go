// path_validator.go: Pure syntactic validation of plugin candidate paths
//
// Candidate plugin paths come from environment overrides and directory scans
// and must never reach a filesystem existence check while malformed. These
// predicates inspect the string only; they perform no I/O.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"strings"
)

// invalidPathChars are characters that are never legal in a file path on the
// platforms this library targets, beyond control characters.
const invalidPathChars = `<>"|?*`

// containsInvalidPathChars reports whether the path contains control
// characters or characters that are illegal in file names.
func containsInvalidPathChars(path string) bool {
	for _, r := range path {
		if r < 32 || r == 127 {
			return true
		}
		if strings.ContainsRune(invalidPathChars, r) {
			return true
		}
	}
	return false
}

// isDriveLetter reports whether r can start a Windows drive specification.
func isDriveLetter(r byte) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// IsValidLocalPath reports whether path is a well-formed, rooted local file
// path: either Unix-rooted ("/usr/lib/pkg-plugin-vault") or Windows
// drive-rooted ("C:\plugins\vault.exe"). Relative paths are not valid
// candidates. Pure string inspection, no I/O.
func IsValidLocalPath(path string) bool {
	if path == "" || containsInvalidPathChars(path) {
		return false
	}
	if strings.HasPrefix(path, `\\`) {
		return false // UNC form, validated separately
	}
	if path[0] == '/' {
		return true
	}
	if len(path) >= 3 && isDriveLetter(path[0]) && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		// A colon is only legal as part of the drive specification.
		return !strings.ContainsRune(path[2:], ':')
	}
	return false
}

// IsValidUNCPath reports whether path is a well-formed UNC path of the form
// \\server\share[\...]. Pure string inspection, no I/O.
func IsValidUNCPath(path string) bool {
	if !strings.HasPrefix(path, `\\`) || containsInvalidPathChars(path) {
		return false
	}
	if strings.ContainsRune(path, ':') {
		return false
	}
	parts := strings.Split(path[2:], `\`)
	if len(parts) < 2 {
		return false
	}
	// Server and share components must both be non-empty.
	return parts[0] != "" && parts[1] != ""
}
