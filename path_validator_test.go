// path_validator_test.go: Tests for pure candidate path validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidLocalPath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{
			name:  "UnixRootedPath",
			path:  "/usr/lib/pkg-plugin-vault",
			valid: true,
		},
		{
			name:  "WindowsDriveRootedBackslash",
			path:  `C:\plugins\vault.exe`,
			valid: true,
		},
		{
			name:  "WindowsDriveRootedForwardSlash",
			path:  "d:/plugins/vault.exe",
			valid: true,
		},
		{
			name:  "EmptyString",
			path:  "",
			valid: false,
		},
		{
			name:  "RelativePath",
			path:  "plugins/vault",
			valid: false,
		},
		{
			name:  "PipeCharacter",
			path:  "/usr/lib/invalid|plugin",
			valid: false,
		},
		{
			name:  "WildcardCharacter",
			path:  `C:\plugins\*.exe`,
			valid: false,
		},
		{
			name:  "ControlCharacter",
			path:  "/usr/lib/plugin\x00",
			valid: false,
		},
		{
			name:  "UNCFormIsNotLocal",
			path:  `\\server\share\plugin.exe`,
			valid: false,
		},
		{
			name:  "ColonOutsideDriveSpec",
			path:  `C:\plugins\a:b.exe`,
			valid: false,
		},
		{
			name:  "DriveWithoutSeparator",
			path:  "C:plugins",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidLocalPath(tt.path))
		})
	}
}

func TestIsValidUNCPath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		valid bool
	}{
		{
			name:  "ServerAndShare",
			path:  `\\server\share`,
			valid: true,
		},
		{
			name:  "ServerShareAndFile",
			path:  `\\server\share\plugins\vault.exe`,
			valid: true,
		},
		{
			name:  "MissingShare",
			path:  `\\server`,
			valid: false,
		},
		{
			name:  "EmptyServer",
			path:  `\\\share`,
			valid: false,
		},
		{
			name:  "NotUNCPrefixed",
			path:  "/usr/lib/plugin",
			valid: false,
		},
		{
			name:  "IllegalCharacter",
			path:  `\\server\sha<re`,
			valid: false,
		},
		{
			name:  "ColonNotAllowed",
			path:  `\\server\share\c:file`,
			valid: false,
		},
		{
			name:  "EmptyString",
			path:  "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUNCPath(tt.path))
		})
	}
}

func TestMalformedPathFailsBothForms(t *testing.T) {
	// A syntactically malformed candidate must classify as an invalid file
	// path regardless of what exists on disk, so it must fail both checks.
	malformed := []string{
		"relative/plugin",
		"invalid|path",
		"\\\\server",
		"plugins",
		"",
	}
	for _, path := range malformed {
		assert.False(t, IsValidLocalPath(path), "local: %q", path)
		assert.False(t, IsValidUNCPath(path), "unc: %q", path)
	}
}
