// discovery.go: Plugin discovery with single-flight memoized classification
//
// The discoverer enumerates candidate plugin executables (from an explicit
// delimiter-separated override list, or by scanning well-known directories),
// classifies each candidate (path syntax, existence, embedded signature), and
// memoizes the aggregated result so classification work runs at most once per
// discoverer instance no matter how many callers race on it.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agilira/go-timecache"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPluginPathsEnv is the environment variable conventionally used to
	// populate DiscoveryConfig.ExplicitPaths.
	DefaultPluginPathsEnv = "PKGCACHE_PLUGIN_PATHS"

	// defaultPathDelimiter separates entries in the explicit path list.
	defaultPathDelimiter = ";"

	// defaultFilePattern matches plugin executables during convention scans.
	defaultFilePattern = "pkg-plugin-*"
)

// ConventionPathProvider resolves one convention-based scan root. The
// directory may not exist; the discoverer checks existence before scanning.
type ConventionPathProvider func() (string, error)

// DiscoveryConfig controls candidate enumeration for a PluginDiscoverer.
type DiscoveryConfig struct {
	// ExplicitPaths is a delimiter-separated list of plugin file paths,
	// typically sourced from the PKGCACHE_PLUGIN_PATHS environment variable.
	// When non-empty it is used verbatim and completely suppresses
	// convention-based scanning; the two sources are never merged.
	ExplicitPaths string

	// PathDelimiter separates entries in ExplicitPaths. Defaults to ";".
	PathDelimiter string

	// FilePattern is the filepath.Match pattern convention scans use to pick
	// plugin executables. Defaults to "pkg-plugin-*".
	FilePattern string

	// UserPluginDir resolves the user-scoped plugin folder. Defaults to
	// $HOME/.pkgcache/plugins.
	UserPluginDir ConventionPathProvider

	// ExecutableDir resolves the directory containing the running executable,
	// scanned after the user plugin folder.
	ExecutableDir ConventionPathProvider
}

// withDefaults fills unset configuration fields with production defaults.
func (c DiscoveryConfig) withDefaults() DiscoveryConfig {
	if c.PathDelimiter == "" {
		c.PathDelimiter = defaultPathDelimiter
	}
	if c.FilePattern == "" {
		c.FilePattern = defaultFilePattern
	}
	if c.UserPluginDir == nil {
		c.UserPluginDir = defaultUserPluginDir
	}
	if c.ExecutableDir == nil {
		c.ExecutableDir = defaultExecutableDir
	}
	return c
}

func defaultUserPluginDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pkgcache", "plugins"), nil
}

func defaultExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// PluginDiscoverer discovers and classifies plugin executables.
//
// Discovery is single-flight: the first caller through the gate performs the
// enumeration and classification work, every concurrent and subsequent caller
// observes the identical cached result sequence. A cancelled attempt leaves
// the discoverer uncomputed so a later call can retry.
type PluginDiscoverer struct {
	config   DiscoveryConfig
	verifier SignatureVerifier
	logger   Logger

	// results is the write-once discovery cache. The un-gated Load in
	// Discover is the cheap first check of the double-checked pattern; the
	// mutex guards the one computation and the re-check.
	results atomic.Pointer[[]PluginDiscoveryResult]
	mu      sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once

	stats DiscoveryStats // written once under mu, read via Stats
}

// NewPluginDiscoverer creates a plugin discoverer.
//
// verifier checks the embedded signature of candidates that exist on disk; a
// nil verifier disables signature enforcement and classifies every existing
// candidate as valid. A nil logger falls back to the silent default.
func NewPluginDiscoverer(config DiscoveryConfig, verifier SignatureVerifier, logger Logger) *PluginDiscoverer {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &PluginDiscoverer{
		config:   config.withDefaults(),
		verifier: verifier,
		logger:   logger,
	}
}

// Discover returns the classified plugin candidates, one result per candidate
// path in enumeration order.
//
// The result is computed at most once per discoverer instance; all callers,
// including ones racing before the first computation finishes, receive the
// same cached sequence. Cancellation is honored at entry and between
// candidate classifications on a fresh computation, never retroactively on a
// result that has already been cached.
func (d *PluginDiscoverer) Discover(ctx context.Context) ([]PluginDiscoveryResult, error) {
	if cached := d.results.Load(); cached != nil {
		return *cached, nil
	}
	if d.closed.Load() {
		return nil, NewDiscoveryClosedError()
	}
	if err := ctx.Err(); err != nil {
		return nil, NewDiscoveryCancelledError(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Re-check inside the gate: another caller may have populated the cache
	// while this one waited on the mutex.
	if cached := d.results.Load(); cached != nil {
		return *cached, nil
	}
	if d.closed.Load() {
		return nil, NewDiscoveryClosedError()
	}

	candidates, err := d.enumerateCandidates(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]PluginDiscoveryResult, 0, len(candidates))
	var stats DiscoveryStats
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			// No partial caching: neither results nor counters survive a
			// cancelled attempt.
			return nil, NewDiscoveryCancelledError(err)
		}
		results = append(results, d.classify(candidate, &stats))
	}

	stats.ComputedAt = timecache.CachedTime()
	d.stats = stats
	d.results.Store(&results)

	d.logger.Info("Plugin discovery completed",
		"candidates", d.stats.CandidatesSeen,
		"valid", d.stats.ValidPlugins,
		"not_found", d.stats.NotFound,
		"invalid_paths", d.stats.InvalidPaths,
		"invalid_signatures", d.stats.InvalidSignatures)

	return results, nil
}

// enumerateCandidates produces the ordered candidate path list. An explicit
// override list wins outright; otherwise the convention roots are scanned in
// parallel and concatenated in root order.
func (d *PluginDiscoverer) enumerateCandidates(ctx context.Context) ([]string, error) {
	if d.config.ExplicitPaths != "" {
		var candidates []string
		for _, segment := range strings.Split(d.config.ExplicitPaths, d.config.PathDelimiter) {
			if segment == "" {
				continue
			}
			candidates = append(candidates, segment)
		}
		d.logger.Debug("Using explicit plugin path list", "count", len(candidates))
		return candidates, nil
	}

	roots := d.conventionRoots()
	perRoot := make([][]string, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			paths, err := d.scanRoot(root)
			if err != nil {
				// An unreadable root is not fatal; discovery stays total.
				d.logger.Warn("Failed to scan plugin directory", "dir", root, "error", err)
				return nil
			}
			perRoot[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewDiscoveryCancelledError(err)
	}

	var candidates []string
	for _, paths := range perRoot {
		candidates = append(candidates, paths...)
	}
	return candidates, nil
}

// conventionRoots resolves the fixed convention-based scan roots in priority
// order: the user-scoped plugin folder, then the running executable's
// directory. Identical resolved roots are not deduplicated; a plugin visible
// from both roots yields two candidate entries.
func (d *PluginDiscoverer) conventionRoots() []string {
	var roots []string
	for _, provider := range []ConventionPathProvider{d.config.UserPluginDir, d.config.ExecutableDir} {
		dir, err := provider()
		if err != nil || dir == "" {
			d.logger.Debug("Convention plugin root unavailable", "error", err)
			continue
		}
		roots = append(roots, dir)
	}
	return roots
}

// scanRoot enumerates plugin candidates in one directory, non-recursively.
// A root that does not exist yields no candidates and no error. Enumeration
// order within one directory is filesystem-defined.
func (d *PluginDiscoverer) scanRoot(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matched, err := filepath.Match(d.config.FilePattern, entry.Name()); err == nil && matched {
			paths = append(paths, filepath.Join(root, entry.Name()))
		}
	}
	return paths, nil
}

// classify produces the discovery result for one candidate path, tallying
// into the caller's counters. Ordering is load-bearing: path syntax before
// existence, existence before signature, so the expensive verification never
// runs on malformed or absent paths.
func (d *PluginDiscoverer) classify(path string, stats *DiscoveryStats) PluginDiscoveryResult {
	state := d.classifyState(path)

	stats.CandidatesSeen++
	switch state {
	case PluginFileStateValid:
		stats.ValidPlugins++
	case PluginFileStateNotFound:
		stats.NotFound++
	case PluginFileStateInvalidFilePath:
		stats.InvalidPaths++
	case PluginFileStateInvalidEmbeddedSignature:
		stats.InvalidSignatures++
	}

	return PluginDiscoveryResult{
		PluginFile:   PluginFile{Path: path, State: state},
		Message:      state.message(path),
		DiscoveredAt: timecache.CachedTime(),
	}
}

func (d *PluginDiscoverer) classifyState(path string) PluginFileState {
	if !IsValidLocalPath(path) && !IsValidUNCPath(path) {
		return PluginFileStateInvalidFilePath
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return PluginFileStateNotFound
	}
	if d.verifier != nil && !d.verifier.IsValid(path) {
		return PluginFileStateInvalidEmbeddedSignature
	}
	return PluginFileStateValid
}

// Stats returns a snapshot of the discoverer's classification counters.
// Counters are zero until the first Discover call completes.
func (d *PluginDiscoverer) Stats() DiscoveryStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close releases the discoverer and drops its cached results. Close is
// idempotent; calling it more than once is a no-op.
func (d *PluginDiscoverer) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.results.Store(nil)
		d.logger.Debug("Plugin discoverer closed")
	})
	return nil
}
