// Package cli implements the zodo command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zodo/app/config"
	"zodo/app/services"
	"zodo/app/store"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Global flags.
var (
	configPath   string
	storeBackend string
	assumeYes    bool
	dryRun       bool
)

// annotationNonInteractive marks commands that must never block on stdin.
const annotationNonInteractive = "non-interactive"

var rootCmd = &cobra.Command{
	Use:   "zodo",
	Short: "zodo - a hierarchical to-do tree",
	Long: `zodo keeps a tree of tasks. A task with children is done once all of
its children are done, and shows its completion as a percentage.

Tasks are addressed by ref: 0 is the root, 2.1 is the first child of the
second top-level task, and any other value is matched against task ids.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: bootstrap,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown()
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{"skip-bootstrap": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "zodo %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .zodo.yaml in the working directory or $HOME)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "store backend: file, memory, neo4j or postgres")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to confirmations")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "apply changes in memory without saving them")
	rootCmd.AddCommand(versionCmd)
}

// bootstrap loads configuration and opens the task service for the command.
func bootstrap(cmd *cobra.Command, _ []string) error {
	if !needsService(cmd) {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	Cfg = cfg
	Logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr())

	ctx := commandContext(cmd)
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	var prompter services.Prompter
	if cmd.Annotations[annotationNonInteractive] == "true" {
		prompter = services.StaticPrompter{Yes: true}
	} else {
		prompter = NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), assumeYes)
	}

	svc := services.NewTaskService(st, services.Options{
		Prompter: prompter,
		Logger:   Logger,
		Timeout:  cfg.Store.Timeout,
		RootName: cfg.RootName,
	})
	if err := svc.Open(ctx); err != nil {
		_ = st.Close(ctx)
		return err
	}
	if dryRun {
		svc.SetPersistence(false)
		Logger.Debug("dry run, changes will not be saved")
	}
	Service = svc
	return nil
}

func needsService(cmd *cobra.Command) bool {
	if cmd.Annotations["skip-bootstrap"] == "true" {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

func shutdown() error {
	if Service == nil {
		return nil
	}
	err := Service.Close(context.Background())
	Service = nil
	return err
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := shutdown(); err == nil {
		err = cerr
	}
	return err
}
