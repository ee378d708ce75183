package pregel

import (
	"fmt"
	"strconv"
)

// Option configures a Worker at construction time, following the
// functional-options pattern the teacher uses throughout graph/options.go.
type Option func(*workerConfig) error

// workerConfig collects options before they are applied to a Worker.
type workerConfig struct {
	jobID           string
	workerID        string
	groupSize       int
	numPartitions   int
	maxIterations   int32
	combinerEnabled bool
	combiner        Combiner
	configs         map[string]string
}

func defaultWorkerConfig() *workerConfig {
	return &workerConfig{
		numPartitions: 1,
		maxIterations: 0, // unbounded, spec §6 "max.iterations (int, default unbounded)"
		configs:       make(map[string]string),
	}
}

// WithJobID sets the job identifier used to build the coordination root
// "/kafka-graphs/pregel-<jobId>" (spec §6).
func WithJobID(id string) Option {
	return func(c *workerConfig) error {
		if id == "" {
			return fmt.Errorf("pregel: job id must not be empty")
		}
		c.jobID = id
		return nil
	}
}

// WithWorkerID sets this process's worker identifier, used as the name of
// its ephemeral group/leader/barrier markers.
func WithWorkerID(id string) Option {
	return func(c *workerConfig) error {
		if id == "" {
			return fmt.Errorf("pregel: worker id must not be empty")
		}
		c.workerID = id
		return nil
	}
}

// WithGroupSize sets the expected worker count G (spec §6 "group.size").
func WithGroupSize(n int) Option {
	return func(c *workerConfig) error {
		if n <= 0 {
			return fmt.Errorf("pregel: group size must be positive")
		}
		c.groupSize = n
		return nil
	}
}

// WithNumPartitions sets P in hash(vid) mod P (spec §6 "num.partitions").
func WithNumPartitions(p int) Option {
	return func(c *workerConfig) error {
		if p <= 0 {
			return fmt.Errorf("pregel: num partitions must be positive")
		}
		c.numPartitions = p
		return nil
	}
}

// WithMaxIterations forces halt once the superstep counter exceeds n
// (spec §6 "max.iterations"). 0 means unbounded.
func WithMaxIterations(n int32) Option {
	return func(c *workerConfig) error {
		c.maxIterations = n
		return nil
	}
}

// WithCombiner enables message combining on inbound bags using reducer
// (spec §6 "combiner.enabled"). A combiner must not be used when the
// algorithm relies on message multiplicity (spec §4.6).
func WithCombiner(reducer Combiner) Option {
	return func(c *workerConfig) error {
		c.combinerEnabled = true
		c.combiner = reducer
		return nil
	}
}

// WithConfig sets a single algorithm-defined configuration key, passed
// through to VertexProgram.Init's configs map (spec §6 "init(configs, cb)").
func WithConfig(key, value string) Option {
	return func(c *workerConfig) error {
		c.configs[key] = value
		return nil
	}
}

// FromMap builds one Option per recognized configuration key in m, for
// driver CLIs that load configuration from a file or flag set rather than
// Go call sites. The recognized keys are job.id, worker.id, group.size,
// num.partitions and max.iterations. Every other key, coordination.connect
// and combiner.enabled included, passes through as a WithConfig entry for
// the algorithm to interpret itself.
func FromMap(m map[string]string) ([]Option, error) {
	var opts []Option
	for k, v := range m {
		switch k {
		case "job.id":
			opts = append(opts, WithJobID(v))
		case "worker.id":
			opts = append(opts, WithWorkerID(v))
		case "group.size":
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("pregel: group.size: %w", err)
			}
			opts = append(opts, WithGroupSize(n))
		case "num.partitions":
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("pregel: num.partitions: %w", err)
			}
			opts = append(opts, WithNumPartitions(n))
		case "max.iterations":
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("pregel: max.iterations: %w", err)
			}
			opts = append(opts, WithMaxIterations(int32(n)))
		default:
			key, val := k, v
			opts = append(opts, WithConfig(key, val))
		}
	}
	return opts, nil
}
