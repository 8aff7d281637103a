package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/budgettrain/budget"
	"github.com/inference-sim/budgettrain/budget/harness"
	"github.com/inference-sim/budgettrain/budget/synthetic"
	"github.com/inference-sim/budgettrain/budget/trace"
)

var (
	// CLI flags for the simulated session
	seed          int64             // Seed for the synthetic workload
	logLevel      string            // Log verbosity level
	modality      string            // Preset name in defaults.yaml
	defaultsPath  string            // Path to defaults.yaml
	configPath    string            // Optional controller config YAML replacing the preset's
	overrides     map[string]string // key=value controller overrides
	workloadSet   map[string]string // key=value workload overrides
	budgetSeconds float64           // Session wall-clock budget
	maxRounds     int               // Train/predict rounds cap (0 = unlimited)
	ensembleSize  int               // Independently seeded trainers stepped on every batch
	traceLevel    string            // Decision trace level
	traceOut      string            // Where to write the decision trace
	checkpointOut string            // Where to write the final controller checkpoint
	resumePath    string            // Checkpoint to continue from

	// CLI flags for the transform table
	tableTimeScale float64
	tableTotal     float64
	tablePoints    int
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "budgettrain",
	Short: "Time-budgeted training controller with a simulated ingestion harness",
}

// runCmd simulates a full competition session for a modality preset
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a budgeted training session",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, decisions)", traceLevel)
		}

		defaults, err := loadDefaultsConfig(defaultsPath)
		if err != nil {
			logrus.Fatalf("Failed to load defaults: %v", err)
		}
		preset, err := defaults.GetPreset(modality)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		preset, err = resolveConfig(cmd, preset)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		ctrlCfg, sessCfg := preset.Controller, preset.Session

		counts, err := harness.SplitCounts(preset.Workload.Examples, preset.Workload.Splits)
		if err != nil {
			logrus.Fatalf("Invalid split for %s: %v", modality, err)
		}
		if len(counts) != 2 {
			logrus.Fatalf("Preset %s must split into train and validation, got %d parts", modality, len(counts))
		}
		trainCount, validationCount := counts[0], counts[1]

		var st *trace.SessionTrace
		if traceLevel != "" && trace.TraceLevel(traceLevel) != trace.TraceLevelNone {
			st = trace.NewSessionTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		}

		origin := time.Unix(0, 0)
		var opts []harness.Option
		if resumePath != "" {
			cp, err := budget.LoadCheckpoint(resumePath)
			if err != nil {
				logrus.Fatalf("Failed to load checkpoint %s: %v", resumePath, err)
			}
			origin, sessCfg, err = resumeFrom(cp, sessCfg)
			if err != nil {
				logrus.Fatalf("Cannot resume from %s: %v", resumePath, err)
			}
			opts = append(opts, harness.WithCheckpoint(cp))
		}
		clock := synthetic.NewManualClock(origin)
		opts = append(opts, harness.WithClock(clock), harness.WithTrace(st))

		collab, err := buildCollaborators(preset, clock, trainCount, validationCount)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		session, err := harness.NewSession(sessCfg, ctrlCfg, opts...)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if st != nil {
			st.Config.SessionID = session.ID()
		}

		logrus.Infof("Starting %s session %s: budget=%.0fs train=%d validation=%d batch=%d",
			modality, session.ID(), sessCfg.TotalBudgetSeconds, trainCount, validationCount, preset.Workload.BatchSize)
		startTime := time.Now()

		report, runErr := session.Run(collab)
		if report != nil {
			printReport(os.Stdout, report, trace.Summarize(st), time.Since(startTime))
			if checkpointOut != "" {
				if err := budget.SaveCheckpoint(checkpointOut, report.Checkpoint); err != nil {
					logrus.Errorf("%v", err)
				}
			}
		}
		if st != nil && traceOut != "" {
			if err := writeTrace(traceOut, st); err != nil {
				logrus.Errorf("%v", err)
			}
		}
		if runErr != nil {
			logrus.Fatalf("Session failed: %v", runErr)
		}
		logrus.Info("Session complete.")
	},
}

// transformCmd prints the logarithmic time transform at evenly spaced points
var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Print the normalized-time table used to schedule validation checks",
	Run: func(cmd *cobra.Command, args []string) {
		warp, err := budget.NewTimeTransform(tableTimeScale, tableTotal)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if tablePoints < 2 {
			logrus.Fatalf("--points must be at least 2, got %d", tablePoints)
		}
		printTransformTable(os.Stdout, warp, tablePoints)
	},
}

// resolveConfig layers the preset: the controller section is replaced by
// --config, then --set and --workload-set overrides apply, then explicitly
// passed flags.
func resolveConfig(cmd *cobra.Command, preset Preset) (Preset, error) {
	if configPath != "" {
		loaded, err := budget.LoadConfig(configPath)
		if err != nil {
			return Preset{}, err
		}
		preset.Controller = loaded
	}
	if err := preset.Controller.ApplyOverrides(overrides); err != nil {
		return Preset{}, err
	}
	if err := preset.Workload.ApplyOverrides(workloadSet); err != nil {
		return Preset{}, err
	}

	if cmd.Flags().Changed("budget") {
		preset.Session.TotalBudgetSeconds = budgetSeconds
	}
	if cmd.Flags().Changed("max-rounds") {
		preset.Session.MaxRounds = maxRounds
	}
	return preset, nil
}

// resumeFrom places a resumed run on the checkpoint's timeline: the simulated
// clock starts where the saved controller's elapsed time stopped, and the
// session keeps only the budget that was not spent before the checkpoint.
func resumeFrom(cp budget.Checkpoint, sess harness.SessionConfig) (time.Time, harness.SessionConfig, error) {
	if !cp.Started {
		return time.Unix(0, 0), sess, nil
	}
	left := sess.TotalBudgetSeconds - cp.ElapsedSeconds
	if left <= 0 {
		return time.Time{}, sess, fmt.Errorf("checkpoint already spent %.1fs of the %.1fs budget",
			cp.ElapsedSeconds, sess.TotalBudgetSeconds)
	}
	sess.TotalBudgetSeconds = left
	return cp.Start.Add(time.Duration(cp.ElapsedSeconds * float64(time.Second))), sess, nil
}

// buildCollaborators wires the synthetic model into the harness. With an
// ensemble, every batch steps each independently seeded member; validation
// and predictions follow the first member.
func buildCollaborators(preset Preset, clock *synthetic.ManualClock, trainCount, validationCount int) (harness.Collaborators, error) {
	if ensembleSize < 1 {
		return harness.Collaborators{}, fmt.Errorf("--ensemble must be at least 1, got %d", ensembleSize)
	}
	models := make([]*synthetic.Model, ensembleSize)
	for i := range models {
		m, err := synthetic.NewModel(preset.Workload, clock, seed+int64(i))
		if err != nil {
			return harness.Collaborators{}, err
		}
		models[i] = m
	}
	lead := models[0]

	var trainer budget.Trainer = lead.Trainer()
	if len(models) > 1 {
		members := make([]budget.Trainer, len(models))
		for i, m := range models {
			members[i] = m.Trainer()
		}
		ensemble := budget.NewCompositeTrainer(members...)
		logrus.Infof("Training an ensemble of %d members", len(ensemble.Members()))
		trainer = ensemble
	}

	perSlice := trainCount * preset.EpochsPerSlice
	return harness.Collaborators{
		NewSource: func() (budget.DataSource, error) { return lead.NewSource(perSlice), nil },
		Trainer:   trainer,
		Evaluator: lead.Evaluator(validationCount),
		Predictor: harness.PredictorFunc(lead.Predict),
	}, nil
}

func printReport(w io.Writer, r *harness.Report, s *trace.TraceSummary, wall time.Duration) {
	fmt.Fprintln(w, "=== Session Summary ===")
	fmt.Fprintf(w, "Session:          %s\n", r.SessionID)
	fmt.Fprintf(w, "End reason:       %s\n", r.Reason)
	fmt.Fprintf(w, "Rounds:           %d\n", r.Rounds)
	fmt.Fprintf(w, "Steps:            %s\n", humanize.Comma(int64(r.TotalSteps)))
	fmt.Fprintf(w, "Predictions:      %d\n", r.Predictions)
	fmt.Fprintf(w, "Final score:      %.4f\n", r.FinalScore)
	fmt.Fprintf(w, "Best val error:   %s\n", humanize.FtoaWithDigits(r.BestValidationError, 6))
	fmt.Fprintf(w, "Simulated time:   %s\n", time.Duration(r.ElapsedSeconds*float64(time.Second)).Round(time.Millisecond))
	fmt.Fprintf(w, "Wall time:        %s\n", wall.Round(time.Millisecond))
	if s.Slices > 0 {
		fmt.Fprintf(w, "Checks:           %d (%d skipped, %d improved)\n", s.Checks, s.SkippedChecks, s.Improvements)
		fmt.Fprintf(w, "Validation time:  %.1fs\n", s.ValidationTime)
		fmt.Fprintf(w, "ALC:              %.4f\n", s.ALC)
	}
}

func printTransformTable(w io.Writer, warp budget.TimeTransform, points int) {
	fmt.Fprintf(w, "# T0=%gs Tmax=%gs\n", warp.TimeScale(), warp.Total())
	fmt.Fprintf(w, "%10s  %10s\n", "normalized", "seconds")
	for i := 0; i < points; i++ {
		n := float64(i) / float64(points-1)
		fmt.Fprintf(w, "%10.4f  %10.1f\n", n, warp.ToAbsolute(n))
	}
}

func writeTrace(path string, st *trace.SessionTrace) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the synthetic workload")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Preset selection and controller config
	runCmd.Flags().StringVar(&modality, "modality", "image", "Preset in defaults.yaml (image, video, audio)")
	runCmd.Flags().StringVar(&defaultsPath, "defaults", "defaults.yaml", "Path to the presets file")
	runCmd.Flags().StringVar(&configPath, "config", "", "Controller config YAML; replaces the preset's controller section")
	runCmd.Flags().StringToStringVar(&overrides, "set", nil, "Controller overrides, e.g. --set validation_interval=0.05,history_window=4")
	runCmd.Flags().StringToStringVar(&workloadSet, "workload-set", nil, "Workload overrides, e.g. --workload-set multilabel=True,step_seconds=0.5")

	// Session bounds
	runCmd.Flags().Float64Var(&budgetSeconds, "budget", 1200, "Session wall-clock budget in seconds (defaults to the preset's)")
	runCmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Maximum train/predict rounds, 0 for unlimited (defaults to the preset's)")
	runCmd.Flags().IntVar(&ensembleSize, "ensemble", 1, "Number of independently seeded trainers stepped on every batch")

	// Outputs
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the decision trace as YAML")
	runCmd.Flags().StringVar(&checkpointOut, "checkpoint-out", "", "Write the final controller checkpoint as YAML")
	runCmd.Flags().StringVar(&resumePath, "resume", "", "Continue from a controller checkpoint")

	transformCmd.Flags().Float64Var(&tableTimeScale, "time-scale", 60, "Time scale T0 in seconds")
	transformCmd.Flags().Float64Var(&tableTotal, "total", 1200, "Total budget Tmax in seconds")
	transformCmd.Flags().IntVar(&tablePoints, "points", 11, "Number of evenly spaced normalized points")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(transformCmd)
}
