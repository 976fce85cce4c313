// download_result.go: Read handles over an installed package
//
// A DownloadResult owns two paired resources: the open archive stream and the
// content reader bound to the install directory. The pairing is strict:
// construction either yields both or releases whichever was already acquired
// before propagating the failure, and the caller releases both together.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PackageReader provides access to the extracted contents of an installed
// package.
type PackageReader interface {
	// Files lists the extracted files as slash-separated paths relative to
	// the install directory.
	Files() ([]string, error)

	// Open opens one extracted file for reading.
	Open(name string) (io.ReadCloser, error)

	// Close releases the reader.
	Close() error
}

// DownloadResult is the read handle returned for a cached or freshly
// installed package. Ownership of Stream and Reader transfers to the caller,
// who must release both together via Close.
type DownloadResult struct {
	// Source records where the package came from: the cache root for a local
	// hit, or the originating package source after an install.
	Source string

	// Stream is the retained package archive, open for shared read. It is
	// always seekable.
	Stream io.ReadSeekCloser

	// Reader exposes the extracted package contents.
	Reader PackageReader

	// SignatureVerified reports whether the package signature has been
	// verified. Local cache entries are trusted as verified at install time.
	SignatureVerified bool
}

// Close releases the archive stream and the content reader together.
func (r *DownloadResult) Close() error {
	var errs []error
	if r.Stream != nil {
		if err := r.Stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Reader != nil {
		if err := r.Reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// dirPackageReader reads extracted package contents straight from the install
// directory.
type dirPackageReader struct {
	dir string
}

// newDirPackageReader binds a reader to the install directory. Binding fails
// when the directory does not exist or is not a directory.
func newDirPackageReader(dir string) (*dirPackageReader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: stderrors.New("not a directory")}
	}
	return &dirPackageReader{dir: dir}, nil
}

// Files implements PackageReader.
func (r *dirPackageReader) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Open implements PackageReader.
func (r *dirPackageReader) Open(name string) (io.ReadCloser, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return os.Open(filepath.Join(r.dir, cleaned))
}

// Close implements PackageReader. The reader holds no open handles between
// calls, so there is nothing to release.
func (r *dirPackageReader) Close() error {
	return nil
}
