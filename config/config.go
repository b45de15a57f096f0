// Package config holds the process-wide tunables for a locustdb-go
// instance: storage location, worker parallelism, and the query driver's
// partition-combination strategy. It uses a functional options pattern
// (internal/options) rather than a struct literal with exported fields,
// so new tunables can be added without breaking callers.
package config

import "github.com/cswinter/locustdb-go/internal/options"

// Config collects the tunables read by the catalog, executor, and query
// driver at startup. Use New with Option values to construct one; New
// fills in defaults for unset tunables and accepts an empty DBPath.
type Config struct {
	// DBPath is the root directory containing partition and WAL files.
	DBPath string
	// Readonly disables WAL ingestion and compaction, serving queries
	// against the partitions already on disk.
	Readonly bool
	// Threads bounds the query driver's per-query fan-out. New leaves it at
	// 0, and a value <= 0 sets no bound: every partition runs in its own
	// goroutine at once.
	Threads int
	// PartitionSize is the row count threshold a write-ahead log segment
	// accumulates before it is compacted into a new on-disk partition.
	PartitionSize int
	// CombineFactor is stored with the other tunables (default 4); no code
	// in this module reads it. The query driver's tournament merge always
	// combines partition results two at a time.
	CombineFactor int
	// BatchSize is the number of elements the executor advances a
	// streaming operator stage by per Execute call.
	BatchSize int
}

const (
	defaultPartitionSize = 1 << 20
	defaultCombineFactor = 4
	defaultBatchSize     = 1024
)

// Option configures a Config during New.
type Option = options.Option[*Config]

// New builds a Config from the given DBPath and options, applying defaults
// for any tunable left unset.
func New(dbPath string, opts ...Option) (*Config, error) {
	cfg := &Config{
		DBPath:        dbPath,
		PartitionSize: defaultPartitionSize,
		CombineFactor: defaultCombineFactor,
		BatchSize:     defaultBatchSize,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithReadonly opens the database without WAL ingestion or compaction.
func WithReadonly() Option {
	return options.NoError(func(c *Config) { c.Readonly = true })
}

// WithThreads overrides the query driver's fan-out width.
func WithThreads(n int) Option {
	return options.NoError(func(c *Config) { c.Threads = n })
}

// WithPartitionSize overrides the WAL-to-partition compaction threshold.
func WithPartitionSize(n int) Option {
	return options.NoError(func(c *Config) { c.PartitionSize = n })
}

// WithCombineFactor overrides the stored CombineFactor value.
func WithCombineFactor(n int) Option {
	return options.NoError(func(c *Config) { c.CombineFactor = n })
}

// WithBatchSize overrides the executor's streaming batch size.
func WithBatchSize(n int) Option {
	return options.NoError(func(c *Config) { c.BatchSize = n })
}
