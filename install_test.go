// install_test.go: Tests for the default flock-serialized install operation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRawZipWithEntry builds a zip archive with an arbitrary, unvalidated
// entry name, which zip.Writer permits but safe extraction must reject.
func newRawZipWithEntry(t *testing.T, buf *bytes.Buffer, name, content string) []byte {
	t.Helper()
	w := zip.NewWriter(buf)
	f, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func copyToFrom(data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

func TestFileLockInstaller_InstallWritesMarkerLast(t *testing.T) {
	cacheRoot := t.TempDir()
	identity := testIdentity(t)
	resolver := NewVersionFolderPathResolver(cacheRoot)
	archive := buildZipArchive(t, map[string]string{"lib/a.dll": "a"})

	installer := NewFileLockInstaller(nil)
	err := installer.Install(context.Background(), InstallRequest{
		Source:        "src",
		Identity:      identity,
		CopyTo:        copyToFrom(archive),
		Resolver:      resolver,
		Extraction:    NewExtractionContext(),
		CorrelationID: "test",
	})
	require.NoError(t, err)

	// All three artifacts exist and the marker records the archive digest.
	assert.FileExists(t, resolver.PackageFilePath(identity))
	assert.DirExists(t, resolver.InstallDir(identity))
	assert.FileExists(t, filepath.Join(resolver.InstallDir(identity), "lib", "a.dll"))

	digest := sha512.Sum512(archive)
	markerContent, err := os.ReadFile(resolver.HashMarkerPath(identity))
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(digest[:]), string(markerContent))
}

func TestFileLockInstaller_AdoptsExistingEntryWithoutCopying(t *testing.T) {
	cacheRoot := t.TempDir()
	identity := testIdentity(t)
	resolver := NewVersionFolderPathResolver(cacheRoot)

	require.NoError(t, os.MkdirAll(resolver.InstallDir(identity), 0o755))
	require.NoError(t, os.WriteFile(resolver.HashMarkerPath(identity), []byte("digest"), 0o644))

	installer := NewFileLockInstaller(nil)
	err := installer.Install(context.Background(), InstallRequest{
		Source:   "src",
		Identity: identity,
		CopyTo: func(io.Writer) error {
			t.Fatal("an already-installed identity must not be copied again")
			return nil
		},
		Resolver:   resolver,
		Extraction: NewExtractionContext(),
	})
	require.NoError(t, err)
}

func TestFileLockInstaller_ExtractionFailureLeavesNoMarker(t *testing.T) {
	cacheRoot := t.TempDir()
	identity := testIdentity(t)
	resolver := NewVersionFolderPathResolver(cacheRoot)

	installer := NewFileLockInstaller(nil)
	err := installer.Install(context.Background(), InstallRequest{
		Source:     "src",
		Identity:   identity,
		CopyTo:     copyToFrom([]byte("definitely not a zip archive")),
		Resolver:   resolver,
		Extraction: NewExtractionContext(),
	})
	assertErrorCode(t, err, ErrCodeExtraction)

	// Without its marker, the entry stays invisible to the read path and a
	// retry will redo the install.
	assert.NoFileExists(t, resolver.HashMarkerPath(identity))
}

func TestFileLockInstaller_SignatureChainRejectionRemovesArchive(t *testing.T) {
	cacheRoot := t.TempDir()
	identity := testIdentity(t)
	resolver := NewVersionFolderPathResolver(cacheRoot)
	archive := buildZipArchive(t, map[string]string{"lib/a.dll": "a"})

	installer := NewFileLockInstaller(nil)
	err := installer.Install(context.Background(), InstallRequest{
		Source:     "src",
		Identity:   identity,
		CopyTo:     copyToFrom(archive),
		Resolver:   resolver,
		Extraction: &ExtractionContext{Extractor: zipExtractor{}, SignatureVerifiers: []SignatureVerifier{&stubVerifier{valid: false}}},
	})
	assertErrorCode(t, err, ErrCodePackageSignature)

	assert.NoFileExists(t, resolver.PackageFilePath(identity))
	assert.NoFileExists(t, resolver.HashMarkerPath(identity))
}

func TestFileLockInstaller_SignatureChainAcceptance(t *testing.T) {
	cacheRoot := t.TempDir()
	identity := testIdentity(t)
	resolver := NewVersionFolderPathResolver(cacheRoot)
	archive := buildZipArchive(t, map[string]string{"lib/a.dll": "a"})

	verifier := &stubVerifier{valid: true}
	installer := NewFileLockInstaller(nil)
	err := installer.Install(context.Background(), InstallRequest{
		Source:     "src",
		Identity:   identity,
		CopyTo:     copyToFrom(archive),
		Resolver:   resolver,
		Extraction: &ExtractionContext{Extractor: zipExtractor{}, SignatureVerifiers: []SignatureVerifier{verifier}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), verifier.calls.Load())
	assert.FileExists(t, resolver.HashMarkerPath(identity))
}

func TestFileLockInstaller_ValidatesRequest(t *testing.T) {
	installer := NewFileLockInstaller(nil)
	resolver := NewVersionFolderPathResolver(t.TempDir())
	identity := testIdentity(t)
	ctx := context.Background()

	err := installer.Install(ctx, InstallRequest{Resolver: resolver, CopyTo: copyToFrom(nil)})
	assertErrorCode(t, err, ErrCodeInvalidPackageIdentity)

	err = installer.Install(ctx, InstallRequest{Identity: identity, CopyTo: copyToFrom(nil)})
	assertErrorCode(t, err, ErrCodeMissingCacheRoot)

	err = installer.Install(ctx, InstallRequest{Identity: identity, Resolver: resolver})
	assertErrorCode(t, err, ErrCodeMissingPackageStream)
}

func TestFileLockInstaller_NilExtractionContextUsesDefaults(t *testing.T) {
	cacheRoot := t.TempDir()
	identity := testIdentity(t)
	resolver := NewVersionFolderPathResolver(cacheRoot)
	archive := buildZipArchive(t, map[string]string{"tools/run.sh": "echo"})

	installer := NewFileLockInstaller(nil)
	err := installer.Install(context.Background(), InstallRequest{
		Identity: identity,
		CopyTo:   copyToFrom(archive),
		Resolver: resolver,
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(resolver.InstallDir(identity), "tools", "run.sh"))
}

func TestZipExtractor_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.pkg")

	var buf bytes.Buffer
	// Build the archive by hand so the entry name can escape.
	w := newRawZipWithEntry(t, &buf, "../escape.txt", "gotcha")
	require.NoError(t, os.WriteFile(archivePath, w, 0o644))

	installDir := filepath.Join(dir, "install")
	require.NoError(t, os.MkdirAll(installDir, 0o755))

	err := zipExtractor{}.Extract(archivePath, installDir)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}
