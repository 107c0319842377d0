package main

import (
	"fmt"
	"strings"
	"sync"

	tooltracker "podtool/agents/tool-tracker"
	"podtool/shared/config"
	"podtool/shared/logging"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once and sets up logging from it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logging.Init(cfg.Logging.Level, cfg.Logging.Format, "podtool")
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newAgent() (*tooltracker.TrackerAgent, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	agent := tooltracker.NewTrackerAgent(cfg)
	if err := agent.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize agent: %w", err)
	}
	return agent, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "podtool",
		Short:         "Track the software tools mentioned in podcast episodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newRunOnceCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))

	return rootCmd
}

// shouldSkipConfig reports whether cmd can run without a configuration.
func shouldSkipConfig(cmd *cobra.Command) bool {
	if !cmd.HasParent() {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return true
		}
	}
	return false
}
