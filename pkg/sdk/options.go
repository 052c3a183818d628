package celearn

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "valkey", "redis" or "" for in-memory
	addrs     []string
	password  string
	resultTTL time.Duration

	timeBudget    time.Duration
	noise         float64
	stopOnFirst   bool
	maxResults    int
	maxExpansions int
	heuristic     string
	maxRoleDepth  int
	workers       int
	allowance     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey persists results in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis persists results in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithResultTTL expires persisted results. Zero keeps them forever.
func WithResultTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultTTL = ttl
	})
}

// WithTimeBudget bounds the wall-clock time of each search. Default: 10s.
func WithTimeBudget(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeBudget = d
	})
}

// WithNoise tolerates the given percentage (0..100) of uncovered positives.
func WithNoise(percentage float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.noise = percentage
	})
}

// WithStopOnFirstDefinition ends a search at the first expression that
// covers every positive and no negative.
func WithStopOnFirstDefinition() Option {
	return optionFunc(func(c *clientConfig) {
		c.stopOnFirst = true
	})
}

// WithMaxResults sets how many best hypotheses are kept. Default: 10.
func WithMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxResults = n
	})
}

// WithMaxExpansions caps the expanded nodes per search. Default: unlimited.
func WithMaxExpansions(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxExpansions = n
	})
}

// WithHeuristic selects the node ordering: "coverage" (default) or "negatives".
func WithHeuristic(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.heuristic = name
	})
}

// WithMaxRoleDepth bounds the nesting of existential restrictions. Default: 2.
func WithMaxRoleDepth(depth int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRoleDepth = depth
	})
}

// WithWorkers sets the workers of LearnPartitioned. Default: 2.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithUncoveredAllowance lets partitioned results leave n positives uncovered.
func WithUncoveredAllowance(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.allowance = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
