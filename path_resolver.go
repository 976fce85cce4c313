// path_resolver.go: Canonical on-disk layout of the global packages folder
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"path/filepath"
)

// packageFileExtension is the extension of the retained package archive.
const packageFileExtension = ".pkg"

// hashMarkerExtension is appended to the package file name to form the hash
// marker, the sentinel whose presence means extraction completed.
const hashMarkerExtension = ".sha512"

// VersionFolderPathResolver derives the canonical paths for a package
// identity under a cache root. All methods are pure path computation: the
// identity is the address, no I/O is performed, and callers check existence
// themselves.
//
// Layout per identity under the root:
//
//	<root>/<id>/<version>/                          install directory
//	<root>/<id>/<version>/<id>.<version>.pkg        retained archive
//	<root>/<id>/<version>/<id>.<version>.pkg.sha512 hash marker
type VersionFolderPathResolver struct {
	root string
}

// NewVersionFolderPathResolver creates a resolver rooted at the global
// packages folder.
func NewVersionFolderPathResolver(root string) *VersionFolderPathResolver {
	return &VersionFolderPathResolver{root: root}
}

// Root returns the cache root directory.
func (r *VersionFolderPathResolver) Root() string {
	return r.root
}

// InstallDir returns the directory holding the extracted package contents.
func (r *VersionFolderPathResolver) InstallDir(identity PackageIdentity) string {
	return filepath.Join(r.root, identity.idLower(), identity.versionLower())
}

// PackageFilePath returns the path of the retained package archive.
func (r *VersionFolderPathResolver) PackageFilePath(identity PackageIdentity) string {
	return filepath.Join(r.InstallDir(identity), identity.String()+packageFileExtension)
}

// HashMarkerPath returns the path of the hash marker file. Its presence
// signals that extraction for this exact identity has completed.
func (r *VersionFolderPathResolver) HashMarkerPath(identity PackageIdentity) string {
	return r.PackageFilePath(identity) + hashMarkerExtension
}

// LockFilePath returns the advisory lock file used to serialize cross-process
// installs of this identity.
func (r *VersionFolderPathResolver) LockFilePath(identity PackageIdentity) string {
	return filepath.Join(r.root, ".locks", identity.String()+".lock")
}
