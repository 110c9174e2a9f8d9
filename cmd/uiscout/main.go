package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	output      string
	width       int
	height      int
	steps       int
	provider    string
	model       string
	profile     string
	headless    bool
	walkthrough bool
	verbose     bool
	logFile     string
	historyLim  int
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	dim    = color.New(color.Faint)
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "uiscout <url> <goal>",
		Short: "Explore a web app toward a goal and record the UI states it finds",
		Long: `uiscout opens a website, asks itself questions about how to reach your goal,
turns each question into a click, and saves every state that changed the page
as a screenshot plus a workflow.json manifest.

Example:
  uiscout "https://linear.app" "Create a project in Linear"`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Directory that receives workflow directories (default: $UISCOUT_OUTPUT_DIR or workflows)")
	rootCmd.Flags().IntVar(&width, "width", 0, "Viewport width")
	rootCmd.Flags().IntVar(&height, "height", 0, "Viewport height")
	rootCmd.Flags().IntVar(&steps, "steps", 0, "Maximum number of questions to execute")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Question generator: claude, openai, none (default: from env or claude)")
	rootCmd.Flags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window (manual sign-in is then impossible)")
	rootCmd.Flags().BoolVar(&walkthrough, "gif", true, "Also render walkthrough.gif")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotating file")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List previously saved workflows",
		Args:  cobra.NoArgs,
		RunE:  listHistory,
	}
	historyCmd.Flags().IntVarP(&historyLim, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
