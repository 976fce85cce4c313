// signature_verifier.go: Whitelist-backed embedded-signature verification
//
// This module provides the default SignatureVerifier implementation: a plugin
// binary is trusted when its SHA-256 digest appears in an authorization
// whitelist file. The whitelist supports JSON and YAML formats, hot reload via
// Argus file watching, and an audit trail of verification decisions.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/agilira/argus"
	"github.com/agilira/go-timecache"
	"gopkg.in/yaml.v3"
)

// SignatureVerifier checks the embedded signature of a plugin executable.
//
// Implementations are only invoked for paths the discoverer has confirmed to
// exist, and must report internal failures as false (invalid) rather than
// propagate them, so discovery stays total over its inputs.
type SignatureVerifier interface {
	IsValid(path string) bool
}

// WhitelistConfig configures the whitelist-backed signature verifier.
type WhitelistConfig struct {
	// WhitelistFile is the JSON or YAML file listing authorized plugin
	// digests. Required.
	WhitelistFile string `json:"whitelist_file" yaml:"whitelist_file"`

	// WatchFile enables hot reload of the whitelist via Argus file watching.
	WatchFile bool `json:"watch_file" yaml:"watch_file"`

	// AuditFile, when set, enables an Argus audit trail of verification
	// decisions and whitelist reloads.
	AuditFile string `json:"audit_file" yaml:"audit_file"`

	// MaxFileSize rejects plugin binaries larger than this many bytes before
	// digesting. Defaults to 100MB.
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// ReloadPollInterval is the Argus poll interval for whitelist changes.
	// Defaults to 500ms.
	ReloadPollInterval time.Duration `json:"reload_poll_interval" yaml:"reload_poll_interval"`
}

func (c WhitelistConfig) withDefaults() WhitelistConfig {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.ReloadPollInterval == 0 {
		c.ReloadPollInterval = 500 * time.Millisecond
	}
	return c
}

// WhitelistEntry describes one authorized plugin binary.
type WhitelistEntry struct {
	Name        string `json:"name" yaml:"name"`
	SHA256      string `json:"sha256" yaml:"sha256"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// whitelistDocument is the on-disk whitelist format.
type whitelistDocument struct {
	Version     string           `json:"version" yaml:"version"`
	UpdatedAt   time.Time        `json:"updated_at" yaml:"updated_at"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Plugins     []WhitelistEntry `json:"plugins" yaml:"plugins"`
}

// VerifierStats tracks signature verification statistics.
type VerifierStats struct {
	ValidationAttempts int64     `json:"validation_attempts"`
	AuthorizedLoads    int64     `json:"authorized_loads"`
	RejectedLoads      int64     `json:"rejected_loads"`
	ConfigReloads      int64     `json:"config_reloads"`
	LastValidation     time.Time `json:"last_validation"`
	LastConfigReload   time.Time `json:"last_config_reload"`
}

// WhitelistVerifier is the default SignatureVerifier: trust-by-digest against
// a hot-reloadable whitelist file.
type WhitelistVerifier struct {
	config WhitelistConfig
	logger Logger

	mu     sync.RWMutex
	hashes map[string]WhitelistEntry // lowercase hex sha256 -> entry
	stats  VerifierStats

	watcher     interface{ Close() error } // Argus universal config watcher
	auditLogger *argus.AuditLogger
	closeOnce   sync.Once
}

// NewWhitelistVerifier creates a whitelist-backed signature verifier and
// loads the initial whitelist. When WatchFile is set, whitelist changes are
// picked up without restarting the process.
func NewWhitelistVerifier(config WhitelistConfig, logger Logger) (*WhitelistVerifier, error) {
	if logger == nil {
		logger = DefaultLogger()
	}
	config = config.withDefaults()

	if config.WhitelistFile == "" {
		return nil, NewWhitelistError("whitelist file not specified", nil)
	}

	v := &WhitelistVerifier{
		config: config,
		logger: logger,
		hashes: make(map[string]WhitelistEntry),
	}

	if err := v.loadWhitelist(); err != nil {
		return nil, err
	}

	if config.AuditFile != "" {
		if err := v.setupAuditLogging(); err != nil {
			// Verification still works without the audit trail.
			v.logger.Warn("Failed to setup signature audit logging", "error", err)
		}
	}

	if config.WatchFile {
		if err := v.setupFileWatching(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// loadWhitelist reads and parses the whitelist file, replacing the in-memory
// digest set atomically. JSON is tried first, then YAML.
func (v *WhitelistVerifier) loadWhitelist() error {
	data, err := os.ReadFile(v.config.WhitelistFile)
	if err != nil {
		return NewWhitelistError("failed to read whitelist file", err)
	}

	var doc whitelistDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return NewWhitelistError("failed to parse whitelist as JSON or YAML", err)
		}
	}

	hashes := make(map[string]WhitelistEntry, len(doc.Plugins))
	for _, entry := range doc.Plugins {
		digest := strings.ToLower(strings.TrimSpace(entry.SHA256))
		if digest == "" {
			continue
		}
		hashes[digest] = entry
	}

	v.mu.Lock()
	v.hashes = hashes
	v.stats.ConfigReloads++
	v.stats.LastConfigReload = timecache.CachedTime()
	v.mu.Unlock()

	v.logger.Info("Plugin signature whitelist loaded",
		"file", v.config.WhitelistFile,
		"entries", len(hashes))
	return nil
}

func (v *WhitelistVerifier) setupAuditLogging() error {
	auditor, err := argus.NewAuditLogger(argus.AuditConfig{
		Enabled:       true,
		OutputFile:    v.config.AuditFile,
		MinLevel:      argus.AuditInfo,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
	})
	if err != nil {
		return NewAuditError("failed to create audit logger", err)
	}
	v.auditLogger = auditor
	return nil
}

func (v *WhitelistVerifier) setupFileWatching() error {
	watcher, err := argus.UniversalConfigWatcherWithConfig(
		v.config.WhitelistFile,
		v.handleWhitelistChange,
		argus.Config{
			PollInterval:    v.config.ReloadPollInterval,
			CacheTTL:        time.Second,
			MaxWatchedFiles: 1,
			ErrorHandler: func(err error, path string) {
				v.logger.Error("Whitelist watching error", "path", path, "error", err)
			},
		},
	)
	if err != nil {
		return NewConfigWatcherError("failed to create whitelist watcher", err)
	}
	v.watcher = watcher

	v.logger.Info("Whitelist hot reload enabled", "file", v.config.WhitelistFile)
	return nil
}

// handleWhitelistChange is invoked by Argus when the whitelist file changes.
// The parsed map is ignored; the file is reloaded through the same strict
// JSON-then-YAML path as the initial load.
func (v *WhitelistVerifier) handleWhitelistChange(_ map[string]interface{}) {
	if err := v.loadWhitelist(); err != nil {
		v.logger.Error("Failed to reload plugin signature whitelist", "error", err)
		v.auditEvent("whitelist_reload_failed", map[string]interface{}{
			"file":  v.config.WhitelistFile,
			"error": err.Error(),
		})
		return
	}
	v.auditEvent("whitelist_reloaded", map[string]interface{}{
		"file": v.config.WhitelistFile,
	})
}

// IsValid reports whether the binary at path digests to a whitelisted SHA-256.
// Any internal failure (unreadable file, oversized binary) is treated as an
// invalid signature rather than an error.
func (v *WhitelistVerifier) IsValid(path string) bool {
	v.mu.Lock()
	v.stats.ValidationAttempts++
	v.stats.LastValidation = timecache.CachedTime()
	v.mu.Unlock()

	digest, err := v.digestFile(path)
	if err != nil {
		v.logger.Warn("Failed to digest plugin binary", "path", path, "error", err)
		v.recordRejection(path, "digest_failure", err.Error())
		return false
	}

	v.mu.RLock()
	entry, ok := v.hashes[digest]
	v.mu.RUnlock()

	if !ok {
		v.recordRejection(path, "digest_not_whitelisted", digest)
		return false
	}

	v.mu.Lock()
	v.stats.AuthorizedLoads++
	v.mu.Unlock()

	v.auditEvent("plugin_signature_authorized", map[string]interface{}{
		"path":   path,
		"name":   entry.Name,
		"sha256": digest,
	})
	return true
}

func (v *WhitelistVerifier) recordRejection(path, reason, detail string) {
	v.mu.Lock()
	v.stats.RejectedLoads++
	v.mu.Unlock()

	v.auditEvent("plugin_signature_rejected", map[string]interface{}{
		"path":   path,
		"reason": reason,
		"detail": detail,
	})
}

// digestFile computes the lowercase hex SHA-256 of the file at path.
func (v *WhitelistVerifier) digestFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", NewSignatureDigestError(path, err)
	}
	if info.Size() > v.config.MaxFileSize {
		return "", NewWhitelistError("plugin binary exceeds maximum file size", nil)
	}

	file, err := os.Open(path) // #nosec G304 - callers validate the path before verification
	if err != nil {
		return "", NewSignatureDigestError(path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			v.logger.Warn("Failed to close plugin binary after digest", "path", path, "error", err)
		}
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", NewSignatureDigestError(path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (v *WhitelistVerifier) auditEvent(eventType string, context map[string]interface{}) {
	if v.auditLogger == nil {
		return
	}
	v.auditLogger.LogSecurityEvent(eventType, "Plugin signature verification event", context)
}

// Stats returns a snapshot of the verifier's counters.
func (v *WhitelistVerifier) Stats() VerifierStats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats
}

// Close stops whitelist watching and flushes the audit trail. Close is
// idempotent.
func (v *WhitelistVerifier) Close() error {
	var err error
	v.closeOnce.Do(func() {
		if v.watcher != nil {
			if stopErr := v.watcher.Close(); stopErr != nil {
				v.logger.Warn("Failed to stop whitelist watcher", "error", stopErr)
				err = stopErr
			}
		}
		if v.auditLogger != nil {
			if closeErr := v.auditLogger.Close(); closeErr != nil {
				v.logger.Warn("Failed to close signature audit logger", "error", closeErr)
				if err == nil {
					err = closeErr
				}
			}
		}
	})
	return err
}
