// install.go: Default install-from-source operation for the package cache
//
// Installation follows a marker-last commit protocol: the archive is written
// first, the signature chain runs over it, the contents are extracted, and
// only then is the hash marker created. A tree without its marker is treated
// as absent by the read path, so a crashed install is simply redone.
//
// Cross-process safety comes from an advisory file lock keyed by package
// identity. Two processes installing the same identity serialize on the lock;
// the loser finds the marker already present and adopts the existing tree.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// InstallRequest carries everything the install operation needs to place one
// package into the global packages folder.
type InstallRequest struct {
	// Source identifies where the package bytes came from.
	Source string

	// Identity addresses the cache entry being installed.
	Identity PackageIdentity

	// CopyTo writes the package bytes to the destination archive. It is
	// invoked at most once.
	CopyTo func(w io.Writer) error

	// Resolver derives the on-disk paths for the identity.
	Resolver *VersionFolderPathResolver

	// Extraction bundles the extractor and the signature verification chain.
	Extraction *ExtractionContext

	// CorrelationID ties log and audit entries of one install together.
	CorrelationID string
}

// InstallOperation installs a package into the global packages folder.
//
// Contract: on success the hash marker file exists and the install directory
// is fully populated. Implementations must be safe to call concurrently,
// possibly across processes, for the same identity.
type InstallOperation interface {
	Install(ctx context.Context, req InstallRequest) error
}

// defaultLockRetryDelay paces lock acquisition attempts while another process
// holds the per-identity install lock.
const defaultLockRetryDelay = 100 * time.Millisecond

// FileLockInstaller is the default InstallOperation. It serializes installs
// of one identity through a flock-based advisory lock under the cache root
// and adopts an already-installed tree instead of re-extracting it.
type FileLockInstaller struct {
	logger     Logger
	retryDelay time.Duration
}

// NewFileLockInstaller creates the default installer.
func NewFileLockInstaller(logger Logger) *FileLockInstaller {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &FileLockInstaller{
		logger:     logger,
		retryDelay: defaultLockRetryDelay,
	}
}

// Install implements InstallOperation.
func (i *FileLockInstaller) Install(ctx context.Context, req InstallRequest) error {
	if req.Identity.IsZero() {
		return NewInvalidPackageIdentityError(req.Identity.ID, req.Identity.versionLower(), nil)
	}
	if req.Resolver == nil {
		return NewMissingCacheRootError()
	}
	if req.CopyTo == nil {
		return NewMissingPackageStreamError(req.Identity)
	}

	log := i.logger.With(
		"package", req.Identity.String(),
		"source", req.Source,
		"correlation_id", req.CorrelationID)

	marker := req.Resolver.HashMarkerPath(req.Identity)

	// Fast path: a marker means a previous install completed for this exact
	// identity. Adopt it.
	if fileExists(marker) {
		log.Debug("Package already installed, adopting existing cache entry")
		return nil
	}

	lockPath := req.Resolver.LockFilePath(req.Identity)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return NewInstallLockError(req.Identity, err)
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, i.retryDelay)
	if err != nil {
		return NewInstallLockError(req.Identity, err)
	}
	if !locked {
		return NewInstallLockError(req.Identity, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release package install lock", "lock", lockPath, "error", err)
		}
	}()

	// Re-check under the lock: the lock's previous holder may have finished
	// this very install.
	if fileExists(marker) {
		log.Debug("Package installed by a concurrent process, adopting existing cache entry")
		return nil
	}

	installDir := req.Resolver.InstallDir(req.Identity)
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return NewInstallCopyError(req.Identity, err)
	}

	archivePath := req.Resolver.PackageFilePath(req.Identity)
	digest, err := i.writeArchive(archivePath, req.CopyTo)
	if err != nil {
		return NewInstallCopyError(req.Identity, err)
	}

	extraction := req.Extraction
	if extraction == nil {
		extraction = NewExtractionContext()
	}

	for _, verifier := range extraction.SignatureVerifiers {
		if !verifier.IsValid(archivePath) {
			// Leave no trusted-looking remains behind.
			if err := os.Remove(archivePath); err != nil {
				log.Warn("Failed to remove rejected package archive", "archive", archivePath, "error", err)
			}
			return NewPackageSignatureError(req.Identity, archivePath)
		}
	}

	if err := extraction.Extractor.Extract(archivePath, installDir); err != nil {
		return NewExtractionError(req.Identity, err)
	}

	// Marker last: its presence is the authoritative "fully installed"
	// signal for every reader and for racing installers.
	if err := os.WriteFile(marker, []byte(digest), 0o644); err != nil {
		return NewInstallCopyError(req.Identity, err)
	}

	log.Info("Package installed into global packages folder",
		"install_dir", installDir,
		"sha512", digest)
	return nil
}

// writeArchive streams the package bytes to the archive path while computing
// their SHA-512. A partially written archive is removed on failure.
func (i *FileLockInstaller) writeArchive(archivePath string, copyTo func(io.Writer) error) (string, error) {
	file, err := os.Create(archivePath) // #nosec G304 - path derives from the resolver, not caller input
	if err != nil {
		return "", err
	}

	hasher := sha512.New()
	if err := copyTo(io.MultiWriter(file, hasher)); err != nil {
		_ = file.Close()
		_ = os.Remove(archivePath)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(archivePath)
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
