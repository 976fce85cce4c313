// extraction.go: Package archive extraction context and the zip default
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PackageExtractor extracts a retained package archive into an install
// directory. Implementations own the on-disk layout of the extracted
// contents.
type PackageExtractor interface {
	Extract(archivePath, installDir string) error
}

// ExtractionContext bundles the extraction behavior and the signature
// verification provider chain applied while installing a package. Every
// verifier in the chain must accept the archive before extraction proceeds.
type ExtractionContext struct {
	Extractor          PackageExtractor
	SignatureVerifiers []SignatureVerifier
}

// NewExtractionContext creates an extraction context with the default
// zip-based extractor and the supplied verification chain.
func NewExtractionContext(verifiers ...SignatureVerifier) *ExtractionContext {
	return &ExtractionContext{
		Extractor:          zipExtractor{},
		SignatureVerifiers: verifiers,
	}
}

// zipExtractor is the default PackageExtractor: package archives are zip
// files, extracted flat into the install directory.
type zipExtractor struct{}

// Extract implements PackageExtractor.
func (zipExtractor) Extract(archivePath, installDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		if err := extractZipEntry(file, installDir); err != nil {
			return err
		}
	}
	return nil
}

// extractZipEntry writes one archive entry under installDir, rejecting
// entries that would escape it.
func extractZipEntry(file *zip.File, installDir string) error {
	cleaned := filepath.Clean(filepath.FromSlash(file.Name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("archive entry escapes install directory: %s", file.Name)
	}
	target := filepath.Join(installDir, cleaned)

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) // #nosec G304 - target is constrained to installDir above
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil { // #nosec G110 - archive size is bounded by the install operation
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
