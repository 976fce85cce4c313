// errors.go: structured error definitions for the go-pkgcache system
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"github.com/agilira/go-errors"
)

// Error codes for the go-pkgcache system
const (
	// Argument validation errors (1000-1099)
	ErrCodeInvalidPackageIdentity = "PKGCACHE_1001"
	ErrCodeMissingPackageStream   = "PKGCACHE_1002"
	ErrCodeMissingCacheRoot       = "PKGCACHE_1003"

	// Cache read errors (1100-1199)
	ErrCodeArchiveOpen = "PKGCACHE_1101"
	ErrCodeReaderBind  = "PKGCACHE_1102"

	// Cache write errors (1200-1299)
	ErrCodePostInstallInconsistency = "PKGCACHE_1201"

	// Install operation errors (1300-1399)
	ErrCodeInstallLock = "PKGCACHE_1301"
	ErrCodeExtraction  = "PKGCACHE_1302"
	ErrCodeInstallCopy = "PKGCACHE_1303"

	// Discovery errors (1400-1499)
	ErrCodeDiscoveryCancelled = "DISCOVERY_1401"
	ErrCodeDiscoveryClosed    = "DISCOVERY_1402"

	// Security errors (1500-1599)
	ErrCodeWhitelistError     = "SECURITY_1501"
	ErrCodeSignatureDigest    = "SECURITY_1502"
	ErrCodeAuditError         = "SECURITY_1503"
	ErrCodeConfigWatcherError = "SECURITY_1504"
	ErrCodePackageSignature   = "SECURITY_1505"
)

// Argument validation error constructors

func NewInvalidPackageIdentityError(id, version string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInvalidPackageIdentity, "Invalid package identity").
			WithUserMessage("Package id and a parseable version are required").
			WithContext("package_id", id).
			WithContext("package_version", version).
			WithSeverity("error")
	}
	return errors.New(ErrCodeInvalidPackageIdentity, "Invalid package identity").
		WithUserMessage("Package id and a parseable version are required").
		WithContext("package_id", id).
		WithContext("package_version", version).
		WithSeverity("error")
}

func NewMissingPackageStreamError(identity PackageIdentity) *errors.Error {
	return errors.New(ErrCodeMissingPackageStream, "Missing package stream").
		WithUserMessage("A readable package byte stream is required to add a package").
		WithContext("package", identity.String()).
		WithSeverity("error")
}

func NewMissingCacheRootError() *errors.Error {
	return errors.New(ErrCodeMissingCacheRoot, "Missing cache root").
		WithUserMessage("The global packages folder path is required").
		WithSeverity("error")
}

// Cache read error constructors

func NewArchiveOpenError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeArchiveOpen, "Failed to open cached package archive").
		WithUserMessage("The cached package archive could not be opened for reading").
		WithContext("archive_path", path).
		WithSeverity("error")
}

func NewReaderBindError(installDir string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeReaderBind, "Failed to bind package content reader").
		WithUserMessage("The extracted package contents could not be read").
		WithContext("install_dir", installDir).
		WithSeverity("error")
}

// Cache write error constructors

func NewPostInstallInconsistencyError(identity PackageIdentity, markerPath string) *errors.Error {
	return errors.New(ErrCodePostInstallInconsistency, "Package install completed but cache entry is missing").
		WithUserMessage("The package installer reported success but the hash marker file does not exist").
		WithContext("package", identity.String()).
		WithContext("marker_path", markerPath).
		WithSeverity("critical")
}

// Install operation error constructors

func NewInstallLockError(identity PackageIdentity, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInstallLock, "Failed to acquire package install lock").
		WithUserMessage("Another process may be holding the install lock for this package").
		WithContext("package", identity.String()).
		WithSeverity("error")
}

func NewExtractionError(identity PackageIdentity, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeExtraction, "Failed to extract package archive").
		WithUserMessage("The package archive could not be extracted into the cache").
		WithContext("package", identity.String()).
		WithSeverity("error")
}

func NewInstallCopyError(identity PackageIdentity, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeInstallCopy, "Failed to write package archive to cache").
		WithUserMessage("The package byte stream could not be copied into the cache").
		WithContext("package", identity.String()).
		WithSeverity("error")
}

// Discovery error constructors

func NewDiscoveryCancelledError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDiscoveryCancelled, "Plugin discovery cancelled").
		WithUserMessage("Plugin discovery was cancelled before results were computed").
		WithSeverity("warning")
}

func NewDiscoveryClosedError() *errors.Error {
	return errors.New(ErrCodeDiscoveryClosed, "Plugin discoverer closed").
		WithUserMessage("The plugin discoverer has been closed and can no longer discover").
		WithSeverity("error")
}

// Security error constructors

func NewWhitelistError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeWhitelistError, "Whitelist error: "+message).
			WithUserMessage("The plugin signature whitelist could not be processed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeWhitelistError, "Whitelist error: "+message).
		WithUserMessage("The plugin signature whitelist could not be processed").
		WithSeverity("error")
}

func NewSignatureDigestError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeSignatureDigest, "Signature digest error").
		WithUserMessage("The plugin binary could not be digested for verification").
		WithContext("plugin_path", path).
		WithSeverity("error")
}

func NewPackageSignatureError(identity PackageIdentity, archivePath string) *errors.Error {
	return errors.New(ErrCodePackageSignature, "Package archive failed signature verification").
		WithUserMessage("The downloaded package did not pass the configured signature verification chain").
		WithContext("package", identity.String()).
		WithContext("archive_path", archivePath).
		WithSeverity("error")
}

func NewAuditError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeAuditError, "Audit error: "+message).
		WithUserMessage("Security audit logging failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcherError, "Config watcher error: "+message).
		WithUserMessage("Whitelist file watching could not be configured").
		WithSeverity("error")
}
