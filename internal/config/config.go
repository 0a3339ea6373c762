package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds application configuration. Timing fields are milliseconds;
// helpers below convert to time.Duration for callers.
type Config struct {
	// SaveDebounceMs is the quiet period after a capture before the memory
	// cache is flushed to the persistent store.
	SaveDebounceMs int `json:"save_debounce_ms"`

	// RestoreDelayMs is the delay between a context switch and the restore
	// attempt for the new context.
	RestoreDelayMs int `json:"restore_delay_ms"`

	// ProcessingTimeoutMs is the hard deadline for resolving an
	// editor-became-empty event.
	ProcessingTimeoutMs int `json:"processing_timeout_ms"`

	// IdleCheckIntervalMs is how often pending empty-editor entries are
	// checked for idle resolution.
	IdleCheckIntervalMs int `json:"idle_check_interval_ms"`

	// IdleThresholdMs is how long an empty-editor entry must sit untouched,
	// with its context still active, before it resolves.
	IdleThresholdMs int `json:"idle_threshold_ms"`

	// PendingDeletionGraceMs is the recovery window for a draft cleared
	// without a send, when accidental-deletion assistance is enabled.
	PendingDeletionGraceMs int `json:"pending_deletion_grace_ms"`

	// SweepIntervalMs is how often expired grace-period records are purged.
	SweepIntervalMs int `json:"sweep_interval_ms"`

	// JustSentSuppressMs is the window after a confirmed send during which
	// captures and flushes are ignored.
	JustSentSuppressMs int `json:"just_sent_suppress_ms"`

	// SendArmTimeoutMs is how long the send detector stays armed after the
	// editor empties before reverting to idle.
	SendArmTimeoutMs int `json:"send_arm_timeout_ms"`

	// TransitionClearMs is how long the transitioning flag persists after a
	// restore write settles.
	TransitionClearMs int `json:"transition_clear_ms"`

	// EditorCallTimeoutMs bounds every cross-boundary editor read/write.
	EditorCallTimeoutMs int `json:"editor_call_timeout_ms"`

	// SimilarityThreshold is the minimum 0-100 score required to treat a
	// sent-text signal as matching the tracked draft.
	SimilarityThreshold int `json:"similarity_threshold"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized. 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means use sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SaveDebounceMs:         500,
		RestoreDelayMs:         300,
		ProcessingTimeoutMs:    3000,
		IdleCheckIntervalMs:    500,
		IdleThresholdMs:        1000,
		PendingDeletionGraceMs: 60000,
		SweepIntervalMs:        10000,
		JustSentSuppressMs:     500,
		SendArmTimeoutMs:       3000,
		TransitionClearMs:      200,
		EditorCallTimeoutMs:    2000,
		SimilarityThreshold:    60,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.draftkeep.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take precedence
// when non-zero.
func Merge(base, overlay *Config) *Config {
	result := *overlay
	pick(&result.SaveDebounceMs, base.SaveDebounceMs)
	pick(&result.RestoreDelayMs, base.RestoreDelayMs)
	pick(&result.ProcessingTimeoutMs, base.ProcessingTimeoutMs)
	pick(&result.IdleCheckIntervalMs, base.IdleCheckIntervalMs)
	pick(&result.IdleThresholdMs, base.IdleThresholdMs)
	pick(&result.PendingDeletionGraceMs, base.PendingDeletionGraceMs)
	pick(&result.SweepIntervalMs, base.SweepIntervalMs)
	pick(&result.JustSentSuppressMs, base.JustSentSuppressMs)
	pick(&result.SendArmTimeoutMs, base.SendArmTimeoutMs)
	pick(&result.TransitionClearMs, base.TransitionClearMs)
	pick(&result.EditorCallTimeoutMs, base.EditorCallTimeoutMs)
	pick(&result.SimilarityThreshold, base.SimilarityThreshold)
	pick(&result.DBMaxOpenConns, base.DBMaxOpenConns)
	pick(&result.DBMaxIdleConns, base.DBMaxIdleConns)
	return &result
}

// pick falls back to base when the overlay value is zero.
func pick(dst *int, base int) {
	if *dst == 0 {
		*dst = base
	}
}

// SaveDebounce returns SaveDebounceMs as a duration.
func (c *Config) SaveDebounce() time.Duration { return ms(c.SaveDebounceMs) }

// RestoreDelay returns RestoreDelayMs as a duration.
func (c *Config) RestoreDelay() time.Duration { return ms(c.RestoreDelayMs) }

// ProcessingTimeout returns ProcessingTimeoutMs as a duration.
func (c *Config) ProcessingTimeout() time.Duration { return ms(c.ProcessingTimeoutMs) }

// IdleCheckInterval returns IdleCheckIntervalMs as a duration.
func (c *Config) IdleCheckInterval() time.Duration { return ms(c.IdleCheckIntervalMs) }

// IdleThreshold returns IdleThresholdMs as a duration.
func (c *Config) IdleThreshold() time.Duration { return ms(c.IdleThresholdMs) }

// PendingDeletionGrace returns PendingDeletionGraceMs as a duration.
func (c *Config) PendingDeletionGrace() time.Duration { return ms(c.PendingDeletionGraceMs) }

// SweepInterval returns SweepIntervalMs as a duration.
func (c *Config) SweepInterval() time.Duration { return ms(c.SweepIntervalMs) }

// JustSentSuppress returns JustSentSuppressMs as a duration.
func (c *Config) JustSentSuppress() time.Duration { return ms(c.JustSentSuppressMs) }

// SendArmTimeout returns SendArmTimeoutMs as a duration.
func (c *Config) SendArmTimeout() time.Duration { return ms(c.SendArmTimeoutMs) }

// TransitionClear returns TransitionClearMs as a duration.
func (c *Config) TransitionClear() time.Duration { return ms(c.TransitionClearMs) }

// EditorCallTimeout returns EditorCallTimeoutMs as a duration.
func (c *Config) EditorCallTimeout() time.Duration { return ms(c.EditorCallTimeoutMs) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
