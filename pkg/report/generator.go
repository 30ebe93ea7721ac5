package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/m-ullrich/XLT/pkg/config"
	"github.com/m-ullrich/XLT/pkg/mergerules"
	"github.com/m-ullrich/XLT/pkg/requestdata"
)

// Options configures a Generator.
type Options struct {
	// InputGlob selects the timer files to read, e.g.
	// "results/**/timers.csv". Doublestar patterns are supported.
	InputGlob string

	// Workers is the number of classification goroutines. Defaults to
	// the number of CPUs.
	Workers int

	// Logger receives operational diagnostics. Defaults to a no-op
	// logger.
	Logger *slog.Logger

	// Automatons is the compiled-automaton table shared by all
	// workers. Defaults to the process-wide table.
	Automatons *mergerules.AutomatonTable
}

// Generator runs the classification pipeline for one report.
type Generator struct {
	cfg  *config.Config
	opts Options
}

// NewGenerator creates a generator for the given merge-rule
// configuration.
func NewGenerator(cfg *config.Config, opts Options) *Generator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Automatons == nil {
		opts.Automatons = mergerules.SharedAutomatons()
	}
	return &Generator{cfg: cfg, opts: opts}
}

// Run reads all matching timer files, classifies their requests, and
// returns the aggregated report. Rule-set construction errors and I/O
// errors abort the run; a record that fails classification is dropped
// and counted, never fatal.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	files, err := doublestar.FilepathGlob(g.opts.InputGlob)
	if err != nil {
		return nil, fmt.Errorf("bad input pattern %q: %w", g.opts.InputGlob, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no timer files match %q", g.opts.InputGlob)
	}

	g.opts.Logger.Info("starting report run",
		"files", len(files),
		"workers", g.opts.Workers,
		"rules", len(g.cfg.MergeRules))

	// Build every worker's rule set up front so a bad configuration
	// fails before any file is read.
	workerRules := make([][]*mergerules.Rule, g.opts.Workers)
	for i := range workerRules {
		rules, err := g.cfg.Rules(g.opts.Automatons)
		if err != nil {
			return nil, fmt.Errorf("building merge rules: %w", err)
		}
		workerRules[i] = rules
	}

	records := make(chan *requestdata.Request, 4*g.opts.Workers)
	collectors := make([]*Collector, g.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < g.opts.Workers; i++ {
		collectors[i] = NewCollector()
		wg.Add(1)
		go func(rules []*mergerules.Rule, coll *Collector) {
			defer wg.Done()
			g.classifyAll(rules, records, coll)
		}(workerRules[i], collectors[i])
	}

	skipped, readErr := g.produce(ctx, files, records)
	close(records)
	wg.Wait()

	if readErr != nil {
		return nil, readErr
	}

	merged := collectors[0]
	for _, coll := range collectors[1:] {
		merged.Merge(coll)
	}

	rep := merged.Snapshot(uuid.NewString(), skipped, time.Since(start))

	g.opts.Logger.Info("report run finished",
		"runId", rep.RunID,
		"requests", rep.TotalRequests,
		"buckets", len(rep.Requests),
		"skippedLines", rep.SkippedLines,
		"dropped", rep.DroppedRequests,
		"elapsed", time.Since(start))

	return rep, nil
}

// produce reads all files and feeds their records to the workers. It
// returns the number of skipped lines.
func (g *Generator) produce(ctx context.Context, files []string, records chan<- *requestdata.Request) (int, error) {
	skipped := 0

	for _, path := range files {
		n, err := g.produceFile(ctx, path, records)
		skipped += n
		if err != nil {
			return skipped, err
		}
	}

	return skipped, nil
}

func (g *Generator) produceFile(ctx context.Context, path string, records chan<- *requestdata.Request) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening timer file: %w", err)
	}
	defer func() { _ = f.Close() }()

	g.opts.Logger.Debug("reading timer file", "path", path)

	r := requestdata.NewReader(f, g.opts.Logger)
	for {
		req, err := r.Read()
		if errors.Is(err, io.EOF) {
			return r.Skipped(), nil
		}
		if err != nil {
			return r.Skipped(), fmt.Errorf("reading %s: %w", path, err)
		}

		select {
		case records <- req:
		case <-ctx.Done():
			return r.Skipped(), ctx.Err()
		}
	}
}

// classifyAll drains the record channel into the worker's collector.
func (g *Generator) classifyAll(rules []*mergerules.Rule, records <-chan *requestdata.Request, coll *Collector) {
	for req := range records {
		name, ok := g.classify(rules, req)
		if !ok {
			coll.Drop()
			continue
		}
		coll.Record(name, req)
	}
}

// classify runs the rule chain for one request. A request no rule
// matches keeps its recorded name. ok=false means the record must be
// dropped because a rule was misconfigured for it.
func (g *Generator) classify(rules []*mergerules.Rule, req *requestdata.Request) (string, bool) {
	name := req.Name
	current := req

	for _, rule := range rules {
		merged, ok, err := rule.Apply(current)
		if err != nil {
			g.opts.Logger.Warn("dropping request", "name", req.Name, "error", err)
			return "", false
		}
		if !ok {
			continue
		}

		name = merged
		if rule.StopOnMatch() {
			break
		}

		// Later rules see the renamed request; the original record
		// stays untouched.
		if current == req || current.Name != merged {
			renamed := *current
			renamed.Name = merged
			current = &renamed
		}
	}

	return name, true
}
