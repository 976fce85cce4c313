// Package gopkgcache provides the discovery and cache layer of a package
// manager client: it locates executable plugin binaries that extend
// package-source protocols, and it manages a local content-addressed store of
// previously downloaded packages (the "global packages folder") so repeated
// installs avoid redundant network fetches and repeated extractions stay safe
// under concurrent processes.
//
// Key Features:
//   - Plugin discovery from an explicit path list or well-known directories
//   - Per-candidate classification (path syntax, existence, embedded signature)
//   - Single-flight memoization: discovery runs at most once per discoverer
//   - Whitelist-backed embedded-signature verification with hot reload
//   - Content-addressed global package cache keyed by package identity
//   - Idempotent, cross-process-safe package installation
//   - Structured errors and pluggable logging throughout
//
// Basic Usage:
//
//	verifier, err := gopkgcache.NewWhitelistVerifier(gopkgcache.WhitelistConfig{
//		WhitelistFile: "/etc/pkgcache/plugin-whitelist.json",
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	discoverer := gopkgcache.NewPluginDiscoverer(gopkgcache.DiscoveryConfig{}, verifier, logger)
//	defer discoverer.Close()
//
//	results, err := discoverer.Discover(ctx)
//	for _, result := range results {
//		if result.PluginFile.State == gopkgcache.PluginFileStateValid {
//			fmt.Println("trusted plugin:", result.PluginFile.Path)
//		}
//	}
//
//	cache := gopkgcache.NewGlobalPackageCache(nil, logger)
//	identity, _ := gopkgcache.NewPackageIdentity("newtonsoft.json", "13.0.3")
//	result, err := cache.GetPackage(identity, cacheRoot)
//
// Concurrency:
// Discovery results are computed once per discoverer instance and shared by all
// callers. The on-disk package cache is shared across processes; installation
// is serialized per package identity through an advisory file lock.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package gopkgcache
