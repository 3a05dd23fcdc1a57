// Package cli wires the subcommands: solve (default), watch, history.
//
// Exit codes: 0 solved, 1 fatal (bad plan, IO), 2 no feasible schedule,
// 3 solve deadline hit (the best schedule found so far is still printed).
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"optiplan/internal/config"
	"optiplan/internal/eventbus"
	"optiplan/internal/history"
	"optiplan/internal/render"
	"optiplan/internal/solver"
	"optiplan/internal/watch"
	logx "optiplan/pkg/logx"
)

const (
	ExitOK         = 0
	ExitFatal      = 1
	ExitInfeasible = 2
	ExitDeadline   = 3
)

// Run dispatches args (without the program name) and returns the exit code.
// ctx should already be wired to SIGINT/SIGTERM.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "solve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "solve":
		return runSolve(ctx, args, stdout, stderr)
	case "watch":
		return runWatch(ctx, args, stdout, stderr)
	case "history":
		return runHistory(ctx, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q (want solve, watch, or history)\n", cmd)
		return ExitFatal
	}
}

func runSolve(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	planPath := fs.String("plan", "plan.yaml", "path to the plan file (YAML or JSON)")
	lanes := fs.Bool("lanes", false, "also print the per-resource lane view")
	timeout := fs.Duration("timeout", 0, "override solver.timeout from the plan")
	if err := fs.Parse(args); err != nil {
		return ExitFatal
	}

	cfg, err := config.Load(*planPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}

	logs, log := newLogging(cfg)
	defer logs.Close()

	st := openHistory(cfg, log, stderr)
	defer st.Close()

	p, err := cfg.Problem()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}
	sv, err := solver.New(p)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}

	limit := *timeout
	if limit == 0 {
		if limit, err = cfg.SolveTimeout(); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return ExitFatal
		}
	}
	solveCtx := ctx
	if limit > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	log.Info("solving plan",
		logx.String("plan", cfg.Plan),
		logx.Int("tasks", len(p.Tasks)),
		logx.Int("domain", len(sv.Domain())))

	res, serr := sv.Solve(solveCtx)

	if aerr := st.Append(ctx, cfg.Plan, res); aerr != nil && !errors.Is(aerr, history.ErrDisabled) {
		log.Warn("history append failed", logx.Err(aerr))
	}

	fmt.Fprint(stdout, render.Summary(cfg.Plan, res))
	if res.Feasible {
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, render.Gantt(p.Tasks, res))
		if *lanes {
			fmt.Fprintln(stdout)
			fmt.Fprint(stdout, render.Lanes(p.Tasks, res))
		}
	}

	if serr != nil {
		fmt.Fprintln(stderr, "solve stopped early:", serr)
		return ExitDeadline
	}
	if !res.Feasible {
		return ExitInfeasible
	}
	return ExitOK
}

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	planPath := fs.String("plan", "plan.yaml", "path to the plan file (YAML or JSON)")
	if err := fs.Parse(args); err != nil {
		return ExitFatal
	}

	cfg, err := config.Load(*planPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}

	logs, log := newLogging(cfg)
	defer logs.Close()

	st := openHistory(cfg, log, stderr)
	defer st.Close()

	bus := eventbus.New()
	ch, unsub := bus.Subscribe(16)
	defer unsub()

	// Consume results as they come in: print the summary, record the run.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			switch e.Type {
			case eventbus.TypeSolve:
				fmt.Fprintf(stdout, "--- %s (%s)\n", e.Time.Format(time.RFC3339), e.Trigger)
				fmt.Fprint(stdout, render.Summary(e.Plan, e.Result))
				if err := st.Append(context.Background(), e.Plan, e.Result); err != nil && !errors.Is(err, history.ErrDisabled) {
					log.Warn("history append failed", logx.Err(err))
				}
			case eventbus.TypeError:
				fmt.Fprintln(stderr, "plan error:", e.Err)
			}
		}
	}()

	err = watch.New(*planPath, bus, log, logs).Run(ctx)
	unsub()
	<-done
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}
	return ExitOK
}

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	planPath := fs.String("plan", "plan.yaml", "path to the plan file (YAML or JSON)")
	n := fs.Int("n", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return ExitFatal
	}

	cfg, err := config.Load(*planPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(stderr, "error: history is not enabled for this plan")
		return ExitFatal
	}

	st, err := history.Open(cfg.History.Path, logx.Nop())
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}
	defer st.Close()

	runs, err := st.Recent(ctx, *n)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitFatal
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no recorded runs")
		return ExitOK
	}

	fmt.Fprintf(stdout, "%-25s  %-20s  %9s  %10s  %9s\n", "at", "plan", "makespan", "leaves", "elapsed")
	for _, r := range runs {
		makespan := "infeasible"
		if r.Feasible {
			makespan = fmt.Sprint(r.Makespan)
		}
		fmt.Fprintf(stdout, "%-25s  %-20s  %9s  %10d  %9s\n",
			r.At.Format(time.RFC3339), r.Plan, makespan, r.Leaves, r.Elapsed)
	}
	return ExitOK
}

func newLogging(cfg *config.Config) (*logx.Service, logx.Logger) {
	return logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
}

// openHistory returns a nil store when history is disabled; nil stores are
// safe to call.
func openHistory(cfg *config.Config, log logx.Logger, stderr io.Writer) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	st, err := history.Open(cfg.History.Path, log)
	if err != nil {
		fmt.Fprintln(stderr, "warning: history disabled:", err)
		return nil
	}
	return st
}
