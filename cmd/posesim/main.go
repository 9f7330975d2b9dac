// Command posesim drives a pose filter against simulated sensors, optionally
// recording the run to SQLite and rendering plots of estimate against truth.
//
// Usage:
//
//	posesim [flags]                 run a scenario
//	posesim -db runs.db migrate up  manage the database schema
//	posesim -db runs.db runs        list recorded runs
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/anchor-pose/internal/config"
	"github.com/banshee-data/anchor-pose/internal/db"
	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/fsutil"
	"github.com/banshee-data/anchor-pose/internal/report"
	"github.com/banshee-data/anchor-pose/internal/runner"
	"github.com/banshee-data/anchor-pose/internal/timeutil"
	"github.com/banshee-data/anchor-pose/internal/version"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Tuning config JSON; empty uses built-in defaults")
	scenario   = flag.String("scenario", ScenarioStatic, "Scenario: static, oscillate or outlier")
	ticks      = flag.Int("ticks", 200, "Number of filter cycles to run")
	interval   = flag.Duration("interval", 100*time.Millisecond, "Time between cycles")
	realtime   = flag.Bool("realtime", false, "Pace cycles with the wall clock instead of stepping simulated time")
	dbPath     = flag.String("db", "", "SQLite database to record the run into")
	runName    = flag.String("name", "", "Run name stored with the recording (default: scenario and time)")
	outDir     = flag.String("out", "", "Directory for PNG and HTML reports")
	diag       = flag.Bool("diag", false, "Log diagnostics such as reseeds")
	trace      = flag.Bool("trace", false, "Log every cycle")
	settle     = flag.Int("settle", 20, "Ticks excluded from the error summary while the filter converges")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

// runConfig is stored with every recorded run.
type runConfig struct {
	Tuning   *config.TuningConfig `json:"tuning"`
	Interval string               `json:"interval"`
	Build    version.Info         `json:"build"`
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("posesim", version.Current())
		return
	}

	if args := flag.Args(); len(args) > 0 {
		if err := runSubcommand(args); err != nil {
			log.Fatalf("%s: %v", args[0], err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("posesim: %v", err)
	}
}

func runSubcommand(args []string) error {
	if *dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	switch args[0] {
	case "migrate":
		return db.RunMigrateCommand(args[1:], *dbPath, os.Stdout)
	case "runs":
		database, err := db.NewDB(*dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		runs, err := database.ListRuns()
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %-24s %-10s ticks=%-5d invalid=%-4d %s\n",
				r.ID, r.Name, r.Scenario, r.Ticks, r.Invalid, r.CreatedAt.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func loadConfig() (*config.TuningConfig, error) {
	if *configPath == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(*configPath)
}

func run(ctx context.Context) error {
	logs := filter.LogWriters{Ops: os.Stderr}
	if *diag {
		logs.Diag = os.Stderr
	}
	if *trace {
		logs.Trace = os.Stderr
	}
	filter.SetLogWriters(logs)
	log.Printf("posesim %s", version.Current())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	est, err := filter.NewFromTuning(cfg)
	if err != nil {
		return err
	}
	field := filter.PoseConfigFromTuning(cfg).Field

	rig, err := newRig(*scenario, field, cfg.GetSeed())
	if err != nil {
		return err
	}
	posSrc, rotSrc, dispSrc := rig.Sources()

	sinks := []runner.EstimateSink{}
	rec := report.NewRecorder(rig.Truth)
	sinks = append(sinks, rec)

	var (
		database *db.DB
		dbRun    *db.Run
	)
	if *dbPath != "" {
		database, err = db.NewDB(*dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		name := *runName
		if name == "" {
			name = fmt.Sprintf("%s-%s", *scenario, time.Now().Format("20060102-150405"))
		}
		dbRun, err = database.CreateRun(name, *scenario, runConfig{
			Tuning:   cfg,
			Interval: interval.String(),
			Build:    version.Current(),
		})
		if err != nil {
			return err
		}
		log.Printf("Recording run %s (%s) to %s", dbRun.ID, name, *dbPath)

		est.AddPositionSource(database.NewRecordingSource(dbRun.ID, posSrc.Name(), posSrc))
		est.AddOrientationSource(database.NewRecordingSource(dbRun.ID, rotSrc.Name(), rotSrc))
		if dispSrc != nil {
			est.AddDisplacementSource(database.NewRecordingSource(dbRun.ID, dispSrc.Name(), dispSrc))
		}
		sinks = append(sinks, database.NewRecorder(dbRun.ID))
	} else {
		est.AddPositionSource(posSrc)
		est.AddOrientationSource(rotSrc)
		if dispSrc != nil {
			est.AddDisplacementSource(dispSrc)
		}
	}

	polled := &polledEstimator{Estimator: est, rig: rig}
	rcfg := runner.Config{Interval: *interval, MaxTicks: *ticks, Field: field}

	start := time.Now()
	var r *runner.Runner
	if *realtime {
		r, err = runner.New(polled, timeutil.RealClock{}, rcfg, sinks...)
		if err != nil {
			return err
		}
		err = r.Run(ctx)
	} else {
		r, err = runner.New(polled, nil, rcfg, sinks...)
		if err != nil {
			return err
		}
		err = stepSimulated(ctx, r, start, *interval, *ticks)
	}
	if err != nil {
		return err
	}

	samples := rec.Samples()
	sum := report.Summarize(samples, *settle)
	log.Printf("Finished %d ticks in %s: invalid=%d position_rmse=%.3fm orientation_mean=%.2fdeg",
		r.Ticks(), time.Since(start).Round(time.Millisecond), r.Invalid(), sum.PositionRMSE, sum.OrientationMean)

	if database != nil {
		if err := database.FinishRun(dbRun.ID, r.Ticks(), r.Invalid()); err != nil {
			return err
		}
	}

	if *outDir != "" && len(samples) > 0 {
		prefix := *scenario
		if dbRun != nil {
			prefix = dbRun.ID
		}
		fsys := fsutil.OSFileSystem{}
		paths, err := report.SavePNG(fsys, samples, *outDir, prefix)
		if err != nil {
			return err
		}
		htmlPath := filepath.Join(*outDir, prefix+".html")
		if err := report.SaveHTML(fsys, samples, htmlPath, fmt.Sprintf("posesim %s", *scenario), sum); err != nil {
			return err
		}
		log.Printf("Wrote %v and %s", paths, htmlPath)
	}
	return nil
}

// stepSimulated runs n cycles back to back at simulated timestamps spaced
// by interval.
func stepSimulated(ctx context.Context, r *runner.Runner, start time.Time, interval time.Duration, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			log.Printf("Interrupted after %d ticks", i)
			return nil
		}
		if _, err := r.Step(ctx, start.Add(time.Duration(i)*interval)); err != nil {
			return err
		}
	}
	return nil
}
