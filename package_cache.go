// package_cache.go: Global packages folder: resolve, read, and install
//
// The global packages folder is a content-addressed local cache keyed by
// package identity. The hash marker file is the authoritative existence
// signal: the read path checks nothing else, and the write path delegates
// cross-process mutual exclusion entirely to the install operation. This
// library never takes cross-process locks itself; correctness under racing
// processes rests on the install operation's contract.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// GlobalPackageCache reads and installs packages in the global packages
// folder. The zero-dependency entry point is NewGlobalPackageCache with a nil
// installer, which wires the default flock-serialized install operation.
type GlobalPackageCache struct {
	installer InstallOperation
	logger    Logger
	verifiers []SignatureVerifier
}

// NewGlobalPackageCache creates a package cache. A nil installer selects the
// default FileLockInstaller; a nil logger falls back to the silent default.
// The optional verifiers form the signature verification chain applied to
// every archive before it is extracted into the cache.
func NewGlobalPackageCache(installer InstallOperation, logger Logger, verifiers ...SignatureVerifier) *GlobalPackageCache {
	if logger == nil {
		logger = DefaultLogger()
	}
	if installer == nil {
		installer = NewFileLockInstaller(logger)
	}
	return &GlobalPackageCache{
		installer: installer,
		logger:    logger,
		verifiers: verifiers,
	}
}

// GetPackage returns a read handle for the package if it is installed in the
// cache, or (nil, nil) on a cache miss.
//
// On a hit, the archive stream and the content reader are acquired as a pair:
// if binding the reader fails after the stream opened, the stream is closed
// before the failure propagates. Local cache entries are trusted as verified
// at install time, so SignatureVerified is true.
func (c *GlobalPackageCache) GetPackage(identity PackageIdentity, cacheRoot string) (*DownloadResult, error) {
	if identity.IsZero() {
		return nil, NewInvalidPackageIdentityError(identity.ID, identity.versionLower(), nil)
	}
	if strings.TrimSpace(cacheRoot) == "" {
		return nil, NewMissingCacheRootError()
	}

	resolver := NewVersionFolderPathResolver(cacheRoot)

	if !fileExists(resolver.HashMarkerPath(identity)) {
		return nil, nil // cache miss; the caller installs
	}

	archivePath := resolver.PackageFilePath(identity)
	stream, err := os.Open(archivePath) // #nosec G304 - path derives from the resolver, not caller input
	if err != nil {
		return nil, NewArchiveOpenError(archivePath, err)
	}

	installDir := resolver.InstallDir(identity)
	reader, err := newDirPackageReader(installDir)
	if err != nil {
		// Release the half-constructed result; never leak the open stream.
		if closeErr := stream.Close(); closeErr != nil {
			c.logger.Warn("Failed to close package archive after reader bind failure",
				"archive", archivePath, "error", closeErr)
		}
		return nil, NewReaderBindError(installDir, err)
	}

	return &DownloadResult{
		Source:            cacheRoot,
		Stream:            stream,
		Reader:            reader,
		SignatureVerified: true,
	}, nil
}

// AddPackage installs the package bytes into the cache and returns a read
// handle over the installed entry.
//
// The install operation is expected to be safe under concurrent invocation by
// multiple processes targeting the same cache root and identity; installing
// the same identity twice converges on the same on-disk state and the second
// caller adopts the existing entry. After installation the entry must be
// readable; a missing marker at that point is an internal-invariant
// violation and surfaces as a post-install inconsistency error.
func (c *GlobalPackageCache) AddPackage(ctx context.Context, source string, identity PackageIdentity, packageStream io.Reader, cacheRoot, correlationID string) (*DownloadResult, error) {
	if identity.IsZero() {
		return nil, NewInvalidPackageIdentityError(identity.ID, identity.versionLower(), nil)
	}
	if packageStream == nil {
		return nil, NewMissingPackageStreamError(identity)
	}
	if strings.TrimSpace(cacheRoot) == "" {
		return nil, NewMissingCacheRootError()
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	resolver := NewVersionFolderPathResolver(cacheRoot)

	err := c.installer.Install(ctx, InstallRequest{
		Source:   source,
		Identity: identity,
		CopyTo: func(w io.Writer) error {
			_, err := io.Copy(w, packageStream)
			return err
		},
		Resolver:      resolver,
		Extraction:    NewExtractionContext(c.verifiers...),
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	result, err := c.GetPackage(identity, cacheRoot)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, NewPostInstallInconsistencyError(identity, resolver.HashMarkerPath(identity))
	}
	result.Source = source

	c.logger.Info("Package added to global packages folder",
		"package", identity.String(),
		"source", source,
		"correlation_id", correlationID)
	return result, nil
}
