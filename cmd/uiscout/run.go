package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/ai"
	"github.com/v0xg/uiscout/internal/auth"
	"github.com/v0xg/uiscout/internal/config"
	"github.com/v0xg/uiscout/internal/crawler"
	"github.com/v0xg/uiscout/internal/history"
	"github.com/v0xg/uiscout/internal/logging"
	"github.com/v0xg/uiscout/internal/questions"
	"github.com/v0xg/uiscout/internal/store"
	"github.com/v0xg/uiscout/internal/workflow"
)

var phaseLabels = map[workflow.Phase]string{
	workflow.PhaseNavigating:      "Opening entry page",
	workflow.PhaseQuestioning:     "Asking questions",
	workflow.PhaseFollowUp:        "Following up",
	workflow.PhaseAutonomousProbe: "Probing common controls",
	workflow.PhasePersisting:      "Saving workflow",
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = output
	}
	if flags.Changed("width") {
		cfg.Browser.Width = width
	}
	if flags.Changed("height") {
		cfg.Browser.Height = height
	}
	if flags.Changed("steps") {
		cfg.StepBudget = steps
	}
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("profile") {
		cfg.Browser.ProfileDir = profile
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("gif") {
		cfg.Walkthrough = walkthrough
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	url, goal := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting run",
		zap.String("url", url),
		zap.String("goal", goal),
		zap.String("provider", cfg.Provider),
		zap.Int("step_budget", cfg.StepBudget))

	generator := newGenerator(cfg, logger)

	fmt.Printf("→ Launching browser... ")
	browser, err := crawler.Launch(ctx, crawler.Options{
		Width:         cfg.Browser.Width,
		Height:        cfg.Browser.Height,
		Headless:      cfg.Browser.Headless,
		NavTimeout:    cfg.Browser.NavTimeout,
		ActionTimeout: cfg.Browser.ActionTimeout,
		ProfileDir:    cfg.Browser.ProfileDir,
		HumanPace:     cfg.Browser.HumanPace,
	}, logger)
	if err != nil {
		red.Println("failed")
		return fmt.Errorf("launch failed: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("closing browser", zap.Error(err))
		}
	}()
	green.Println("done")

	authOpts := auth.DefaultOptions()
	authOpts.Timeout = cfg.Auth.Timeout
	authOpts.Fallback = cfg.Auth.Fallback

	var bar *progressbar.ProgressBar
	persister := store.New(store.Options{
		Root:        cfg.OutputDir,
		Walkthrough: cfg.Walkthrough,
		OnFrame: func(done, total int) {
			if bar == nil {
				bar = newFrameBar(total)
			}
			_ = bar.Set(done)
			if done == total {
				_ = bar.Finish()
				fmt.Println()
			}
		},
	}, logger)

	wcfg := workflow.DefaultConfig()
	wcfg.StepBudget = cfg.StepBudget
	wcfg.Strategy.ActionTimeout = cfg.Browser.ActionTimeout
	wcfg.OnPhase = func(p workflow.Phase) {
		if label, ok := phaseLabels[p]; ok {
			cyan.Printf("→ %s\n", label)
		}
	}
	wcfg.OnTurn = func(t workflow.Turn) {
		if q := t.QuestionText(); q != "" {
			dim.Printf("  [%d] %s\n", t.Step, q)
		}
		fmt.Printf("      %s\n", t.Description)
	}

	orch := workflow.New(workflow.Deps{
		Browser:   browser,
		Generator: generator,
		SignIn:    auth.NewHandler(browser, authOpts, logger),
		Persister: persister,
	}, wcfg, logger)

	wf, err := orch.Run(ctx, goal, url)
	if err != nil {
		return err
	}
	report(context.WithoutCancel(ctx), cfg, wf, logger)
	return nil
}

// report prints the outcome of a finished run and records persisted runs in
// the history catalog. A failed entry is reported, not returned.
func report(ctx context.Context, cfg *config.Config, wf *workflow.Workflow, logger *zap.Logger) {
	if wf.Err != nil {
		red.Printf("✗ %v\n", wf.Err)
		return
	}
	recordHistory(ctx, cfg, wf, logger)
	printSummary(wf)
}

func newGenerator(cfg *config.Config, logger *zap.Logger) questions.Generator {
	if cfg.Provider == "none" {
		return questions.NewRuleBased(logger)
	}
	backend, err := ai.NewBackend(cfg.Provider, cfg.Model, cfg.APIKey())
	if err != nil {
		yellow.Printf("⚠ %v; using built-in questions\n", err)
		return questions.NewRuleBased(logger)
	}
	return questions.NewGenerative(backend, logger)
}

func newFrameBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("   Rendering walkthrough..."),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func recordHistory(ctx context.Context, cfg *config.Config, wf *workflow.Workflow, logger *zap.Logger) {
	if wf.Dir == "" || cfg.HistoryDB == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDB), 0o755); err != nil {
		logger.Warn("creating history directory", zap.Error(err))
		return
	}
	catalog, err := history.Open(ctx, history.Config{Path: cfg.HistoryDB})
	if err != nil {
		logger.Warn("opening history", zap.Error(err))
		return
	}
	defer catalog.Close()
	if err := catalog.Record(ctx, history.FromWorkflow(wf)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("recording run", zap.Error(err))
	}
}

func printSummary(wf *workflow.Workflow) {
	st := wf.Stats()
	fmt.Println()
	if wf.Dir != "" {
		green.Printf("✓ Saved to %s\n", wf.Dir)
	} else {
		yellow.Println("⚠ No states captured, nothing saved")
	}
	fmt.Printf("  States captured:  %d\n", st.States)
	fmt.Printf("  Distinct pages:   %d\n", st.DistinctPages)
	fmt.Printf("  Questions asked:  %d\n", st.Questions)
	fmt.Printf("  Follow-ups:       %d\n", st.FollowUps)
	if st.Generations > 0 {
		fmt.Printf("  Generations:      %d\n", st.Generations)
	}
	if wf.GoalReached {
		green.Println("  Goal appears reached")
	}
}
