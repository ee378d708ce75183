// Command pregel-worker is a thin driver CLI: it wires a VertexProgram
// (selected by name) to a coordination store and message transport chosen
// by flag, then runs one worker process to completion (spec §1 "the thin
// driver CLI" out-of-core-scope, wired here as the ambient entry point).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/kafka-graphs/pregel-go/examples/pagerank"
	"github.com/kafka-graphs/pregel-go/pregel"
	"github.com/kafka-graphs/pregel-go/pregel/coord"
	"github.com/kafka-graphs/pregel-go/pregel/emit"
	"github.com/kafka-graphs/pregel-go/pregel/store"
	"github.com/kafka-graphs/pregel-go/pregel/transport"
)

// defaultZKSessionTimeout matches the teacher's connection-timeout
// conventions for external service clients (examples/*/main.go).
const defaultZKSessionTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "pregel-worker",
		Usage: "run one worker process of a Pregel BSP job",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "job-id", Required: true, Usage: "job identifier, used to build the coordination root"},
			&cli.StringFlag{Name: "worker-id", Usage: "this process's worker id (generated if omitted)"},
			&cli.IntFlag{Name: "group-size", Required: true, Usage: "number of worker processes in this job"},
			&cli.IntFlag{Name: "num-partitions", Value: 0, Usage: "number of vertex partitions (defaults to group-size)"},
			&cli.IntFlag{Name: "max-iterations", Value: 0, Usage: "force halt once the superstep number exceeds this value (0 = unbounded)"},
			&cli.StringFlag{Name: "algorithm", Value: "pagerank", Usage: "registered VertexProgram to run"},
			&cli.StringSliceFlag{Name: "zk", Usage: "ZooKeeper ensemble addresses; omit to use an in-process coordination mock"},
			&cli.StringSliceFlag{Name: "kafka-broker", Usage: "Kafka broker addresses; omit to use an in-process transport mock"},
			&cli.BoolFlag{Name: "json-log", Usage: "emit observability events as JSONL instead of text"},
			&cli.BoolFlag{Name: "metrics", Usage: "register Prometheus metrics for this worker on the default registry"},
			&cli.StringFlag{Name: "persister", Value: "none", Usage: "vertex-state persister backend: none, memory, sqlite, mysql"},
			&cli.StringFlag{Name: "persister-dsn", Usage: "DSN/path for the sqlite or mysql persister backend"},
		},
		Action: run,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("pregel-worker: %v", err)
	}
}

func run(c *cli.Context) error {
	ctx := c.Context

	program, err := selectAlgorithm(c.String("algorithm"))
	if err != nil {
		return err
	}

	coordStore, err := selectCoordinationStore(c.StringSlice("zk"))
	if err != nil {
		return err
	}

	msgTransport, err := selectTransport(c.StringSlice("kafka-broker"), c.String("worker-id"))
	if err != nil {
		return err
	}

	numPartitions := c.Int("num-partitions")
	if numPartitions <= 0 {
		numPartitions = c.Int("group-size")
	}

	opts := []pregel.Option{
		pregel.WithJobID(c.String("job-id")),
		pregel.WithGroupSize(c.Int("group-size")),
		pregel.WithNumPartitions(numPartitions),
	}
	if wid := c.String("worker-id"); wid != "" {
		opts = append(opts, pregel.WithWorkerID(wid))
	}
	if n := c.Int("max-iterations"); n > 0 {
		opts = append(opts, pregel.WithMaxIterations(int32(n)))
	}

	worker, err := pregel.NewWorker(program, coordStore, msgTransport, opts...)
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}

	worker.SetEmitter(emit.NewLogEmitter(os.Stdout, c.Bool("json-log")))
	if c.Bool("metrics") {
		worker.SetMetrics(pregel.NewMetrics(prometheus.DefaultRegisterer))
	}

	persister, err := selectPersister(c.String("persister"), c.String("persister-dsn"))
	if err != nil {
		return err
	}
	if persister != nil {
		worker.SetPersister(persister)
	}

	final, err := worker.Run(ctx)
	if err != nil {
		return fmt.Errorf("run worker %s: %w", worker.WorkerID(), err)
	}
	log.Printf("worker %s finished at %s", worker.WorkerID(), final)
	return nil
}

// selectAlgorithm resolves a registered VertexProgram by name. Real
// deployments would load graph input and algorithm-specific config here;
// loading the graph itself is out of this module's scope (spec §1).
func selectAlgorithm(name string) (pregel.VertexProgram, error) {
	switch name {
	case "pagerank":
		return &pagerank.Program{NumVertices: 4, Damping: 0.85}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", name)
	}
}

func selectCoordinationStore(zkAddrs []string) (pregel.CoordinationStore, error) {
	if len(zkAddrs) == 0 {
		return coord.NewMemory(), nil
	}
	return coord.DialZK(zkAddrs, defaultZKSessionTimeout)
}

func selectTransport(brokers []string, workerID string) (pregel.MessageTransport, error) {
	if len(brokers) == 0 {
		return transport.NewMemory(), nil
	}
	return transport.NewKafka(brokers, workerID), nil
}

// selectPersister resolves the optional vertex-state persister backend (D5)
// by name. "none" (the default) disables persistence entirely, returning a
// nil VertexPersister the caller must not install.
func selectPersister(kind, dsn string) (store.VertexPersister, error) {
	switch kind {
	case "", "none":
		return nil, nil
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		if dsn == "" {
			return nil, fmt.Errorf("--persister-dsn is required for the sqlite persister")
		}
		return store.NewSQLite(dsn)
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("--persister-dsn is required for the mysql persister")
		}
		return store.NewMySQL(dsn)
	default:
		return nil, fmt.Errorf("unknown persister %q", kind)
	}
}
