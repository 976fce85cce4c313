// types.go: Common data types for plugin discovery and the global package cache
//
// This file contains the shared data models used throughout the library:
// plugin candidate classification states, discovery result records, and the
// package identity that addresses entries in the global packages folder.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// PluginFileState represents the classification of a plugin candidate path.
//
// Classification is ordered: path syntax is checked before filesystem
// existence, and existence before the embedded signature, so the expensive
// signature verification never runs against malformed or absent paths.
//
//   - PluginFileStateValid: the file exists and its embedded signature verified
//   - PluginFileStateNotFound: the path is well-formed but nothing exists there
//   - PluginFileStateInvalidFilePath: the path is neither a valid local nor UNC path
//   - PluginFileStateInvalidEmbeddedSignature: the file exists but failed verification
type PluginFileState int

const (
	PluginFileStateValid PluginFileState = iota
	PluginFileStateNotFound
	PluginFileStateInvalidFilePath
	PluginFileStateInvalidEmbeddedSignature
)

// String returns a human-readable representation of the plugin file state.
func (s PluginFileState) String() string {
	switch s {
	case PluginFileStateValid:
		return "valid"
	case PluginFileStateNotFound:
		return "not-found"
	case PluginFileStateInvalidFilePath:
		return "invalid-file-path"
	case PluginFileStateInvalidEmbeddedSignature:
		return "invalid-embedded-signature"
	default:
		return "unknown"
	}
}

// message renders the per-state diagnostic for a candidate path. A valid
// candidate carries no message. An unrecognized state is an internal
// consistency fault and panics rather than falling back silently.
func (s PluginFileState) message(path string) string {
	switch s {
	case PluginFileStateValid:
		return ""
	case PluginFileStateNotFound:
		return fmt.Sprintf("a plugin was not found at the path: %s", path)
	case PluginFileStateInvalidFilePath:
		return fmt.Sprintf("the plugin file path is invalid: %s", path)
	case PluginFileStateInvalidEmbeddedSignature:
		return fmt.Sprintf("the plugin at %s did not have a valid embedded signature", path)
	default:
		panic(fmt.Sprintf("unhandled plugin file state %d for path %s", int(s), path))
	}
}

// PluginFile is the validated record for one plugin candidate path.
// It is immutable once constructed by the discoverer's classifier.
type PluginFile struct {
	Path  string          `json:"path"`
	State PluginFileState `json:"state"`
}

// PluginDiscoveryResult pairs a classified plugin file with an optional
// diagnostic message. Message is non-empty exactly when the state is not
// PluginFileStateValid. Results are ordered the way candidate paths were
// enumerated.
type PluginDiscoveryResult struct {
	PluginFile   PluginFile `json:"plugin_file"`
	Message      string     `json:"message,omitempty"`
	DiscoveredAt time.Time  `json:"discovered_at"`
}

// PackageIdentity identifies one package in the global packages folder.
// The identity is the cache address: id plus version, not a content hash.
type PackageIdentity struct {
	ID      string
	Version *semver.Version
}

// NewPackageIdentity parses the version and builds a package identity.
func NewPackageIdentity(id, version string) (PackageIdentity, error) {
	if strings.TrimSpace(id) == "" {
		return PackageIdentity{}, NewInvalidPackageIdentityError(id, version, nil)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return PackageIdentity{}, NewInvalidPackageIdentityError(id, version, err)
	}

	return PackageIdentity{ID: id, Version: v}, nil
}

// IsZero reports whether the identity is missing its id or version.
func (p PackageIdentity) IsZero() bool {
	return strings.TrimSpace(p.ID) == "" || p.Version == nil
}

// String returns the canonical lowercase "id.version" form used for on-disk
// cache paths and lock names.
func (p PackageIdentity) String() string {
	if p.Version == nil {
		return p.idLower()
	}
	return p.idLower() + "." + p.versionLower()
}

func (p PackageIdentity) idLower() string {
	return strings.ToLower(p.ID)
}

func (p PackageIdentity) versionLower() string {
	if p.Version == nil {
		return ""
	}
	return strings.ToLower(p.Version.String())
}

// DiscoveryStats tracks classification counters for one discoverer instance.
type DiscoveryStats struct {
	CandidatesSeen    int64     `json:"candidates_seen"`
	ValidPlugins      int64     `json:"valid_plugins"`
	NotFound          int64     `json:"not_found"`
	InvalidPaths      int64     `json:"invalid_paths"`
	InvalidSignatures int64     `json:"invalid_signatures"`
	ComputedAt        time.Time `json:"computed_at"`
}
