package transformer

import (
	"time"

	"go.uber.org/zap"

	"schemamap/internal/metrics"
	"schemamap/internal/registry"
)

// Backend selects how records are transformed.
type Backend int

const (
	// Interpret walks the resolved plan for every record.
	Interpret Backend = iota
	// Compile lowers the plan into closures once, at construction and
	// after each function registration.
	Compile
)

func (b Backend) String() string {
	switch b {
	case Interpret:
		return "interpret"
	case Compile:
		return "compile"
	default:
		return "unknown"
	}
}

// ParseBackend accepts the names returned by Backend.String.
func ParseBackend(s string) (Backend, bool) {
	switch s {
	case "interpret":
		return Interpret, true
	case "compile":
		return Compile, true
	default:
		return Interpret, false
	}
}

type options struct {
	backend Backend
	log     *zap.Logger
	funcs   *registry.Registry
	baseDir string
	strict  bool
	metrics *metrics.Metrics
	clock   func() time.Time
	uuids   func() string
}

// Option configures a Transformer.
type Option func(*options)

// WithBackend selects the execution backend. The default is Interpret.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLogger sets the logger construction warnings and skipped mappings
// are reported to.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithFunctions binds steps against funcs instead of a fresh registry.
// Functions named by the mapping's @config are loaded into it.
func WithFunctions(funcs *registry.Registry) Option {
	return func(o *options) { o.funcs = funcs }
}

// WithBaseDir resolves relative lookup files and plugins against dir.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithStrict makes resolution warnings fatal.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithMetrics counts transformed records.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock sets the time source of @now.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithUUIDs sets the generator of @uuid.
func WithUUIDs(gen func() string) Option {
	return func(o *options) { o.uuids = gen }
}
