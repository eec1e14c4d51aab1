package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	settingsPath      string
	articlePromptPath string
	scriptPromptPath  string
	debugMode         bool
)

var rootCmd = &cobra.Command{
	Use:   "newsroom",
	Short: "Automated editorial pipeline from news sources to published drafts",
	Long: `Collects policy news, writes articles and narration scripts with AI,
stores them as structured pages in the tracking database and publishes
fact-checked articles to the website as drafts.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			SetDebugMode(true)
		}
	},
}

var collectLimit int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Find new articles from the configured sources",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := mustStore()
		CollectSweep(store, cfg.Settings.Sources, collectLimit, time.Now())
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write articles and scripts for records awaiting writing",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := mustStore()
		if err := cfg.RequireGenerator(); err != nil {
			log.Fatal(err)
		}
		NewGenerator(store, cfg).GenerateSweep()
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Post fact-checked articles to the website as drafts",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := mustStore()
		if err := cfg.RequirePublisher(); err != nil {
			log.Fatal(err)
		}
		NewPublisher(store, cfg).PublishSweep()
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Move completed records forward and stamp milestone dates",
	Run: func(cmd *cobra.Command, args []string) {
		_, store := mustStore()
		AdvanceSweep(store, time.Now())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect, generate, publish, advance",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, store := mustStore()
		if err := cfg.RequireGenerator(); err != nil {
			log.Fatal(err)
		}
		if err := cfg.RequirePublisher(); err != nil {
			log.Fatal(err)
		}

		CollectSweep(store, cfg.Settings.Sources, 0, time.Now())
		NewGenerator(store, cfg).GenerateSweep()
		NewPublisher(store, cfg).PublishSweep()
		AdvanceSweep(store, time.Now())
	},
}

// mustStore loads configuration and connects the record store, exiting on
// missing credentials.
func mustStore() (*Config, *RecordStore) {
	cfg, err := NewConfig(settingsPath)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	cfg.ArticlePromptPath = articlePromptPath
	cfg.ScriptPromptPath = scriptPromptPath

	if err := cfg.RequireStore(); err != nil {
		log.Fatal(err)
	}
	return cfg, NewRecordStore(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to settings file")
	rootCmd.PersistentFlags().StringVar(&articlePromptPath, "article-prompt", "", "Path to custom article prompt file")
	rootCmd.PersistentFlags().StringVar(&scriptPromptPath, "script-prompt", "", "Path to custom script prompt file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	collectCmd.Flags().IntVar(&collectLimit, "limit", 0, "Cap articles per source for this run")

	rootCmd.AddCommand(collectCmd, generateCmd, publishCmd, advanceCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
