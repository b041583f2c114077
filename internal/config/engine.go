package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/callbook/internal/scripts"
)

const (
	EnvEngineSimilarityThreshold = "CALLBOOK_ENGINE_SIMILARITY_THRESHOLD"
	EnvEngineScopeToCluster      = "CALLBOOK_ENGINE_SCOPE_TO_CLUSTER"
	EnvEngineDefaultCluster      = "CALLBOOK_ENGINE_DEFAULT_CLUSTER"
	EnvEngineWorkers             = "CALLBOOK_ENGINE_WORKERS"
	EnvEngineBatchLimit          = "CALLBOOK_ENGINE_BATCH_LIMIT"
)

// EngineConfig tunes deduplication, script ranking and document processing.
type EngineConfig struct {
	SimilarityThreshold float64        `toml:"similarity_threshold"`
	ScopeToCluster      bool           `toml:"scope_to_cluster"`
	DefaultCluster      string         `toml:"default_cluster"`
	Workers             int            `toml:"workers"`
	BatchLimit          int            `toml:"batch_limit"`
	SearchLimit         int            `toml:"search_limit"`
	SearchThreshold     float64        `toml:"search_threshold"`
	BackfillBatch       int            `toml:"backfill_batch"`
	Scripts             scripts.Policy `toml:"scripts"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.SimilarityThreshold != 0 {
		c.SimilarityThreshold = overlay.SimilarityThreshold
	}
	if overlay.ScopeToCluster {
		c.ScopeToCluster = true
	}
	if overlay.DefaultCluster != "" {
		c.DefaultCluster = overlay.DefaultCluster
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.BatchLimit != 0 {
		c.BatchLimit = overlay.BatchLimit
	}
	if overlay.SearchLimit != 0 {
		c.SearchLimit = overlay.SearchLimit
	}
	if overlay.SearchThreshold != 0 {
		c.SearchThreshold = overlay.SearchThreshold
	}
	if overlay.BackfillBatch != 0 {
		c.BackfillBatch = overlay.BackfillBatch
	}
	mergePolicy(&c.Scripts, &overlay.Scripts)
}

func mergePolicy(c, overlay *scripts.Policy) {
	if overlay.NeutralPrior != 0 {
		c.NeutralPrior = overlay.NeutralPrior
	}
	if overlay.StepsBonus != 0 {
		c.StepsBonus = overlay.StepsBonus
	}
	if overlay.InstructionBonus != 0 {
		c.InstructionBonus = overlay.InstructionBonus
	}
	if overlay.Cap != 0 {
		c.Cap = overlay.Cap
	}
	if overlay.ResolvedThreshold != 0 {
		c.ResolvedThreshold = overlay.ResolvedThreshold
	}
	if overlay.MinLength != 0 {
		c.MinLength = overlay.MinLength
	}
	if overlay.ContainmentMinLength != 0 {
		c.ContainmentMinLength = overlay.ContainmentMinLength
	}
	if overlay.WordOverlap != 0 {
		c.WordOverlap = overlay.WordOverlap
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.82
	}
	if c.DefaultCluster == "" {
		c.DefaultCluster = "general"
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = 50
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = 10
	}
	if c.SearchThreshold == 0 {
		c.SearchThreshold = 0.5
	}
	if c.BackfillBatch == 0 {
		c.BackfillBatch = 100
	}

	policy := scripts.DefaultPolicy()
	mergePolicy(&policy, &c.Scripts)
	c.Scripts = policy
}

func (c *EngineConfig) loadEnv() {
	if v := os.Getenv(EnvEngineSimilarityThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SimilarityThreshold = f
		}
	}
	if v := os.Getenv(EnvEngineScopeToCluster); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ScopeToCluster = b
		}
	}
	if v := os.Getenv(EnvEngineDefaultCluster); v != "" {
		c.DefaultCluster = v
	}
	if v := os.Getenv(EnvEngineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvEngineBatchLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchLimit = n
		}
	}
}

func (c *EngineConfig) validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1]: %v", c.SimilarityThreshold)
	}
	if c.SearchThreshold <= 0 || c.SearchThreshold > 1 {
		return fmt.Errorf("search_threshold must be in (0, 1]: %v", c.SearchThreshold)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.BatchLimit < 1 {
		return fmt.Errorf("batch_limit must be at least 1")
	}
	if c.Scripts.WordOverlap <= 0 || c.Scripts.WordOverlap > 1 {
		return fmt.Errorf("scripts.word_overlap must be in (0, 1]")
	}
	if c.Scripts.Cap <= 0 {
		return fmt.Errorf("scripts.cap must be positive")
	}
	return nil
}
