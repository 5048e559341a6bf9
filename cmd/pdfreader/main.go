package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal"
	pkgconfig "github.com/thywilljoshua/pdf-reader/pkg/config"
)

const defaultConfigFile = "config/config.yaml"

// cli holds what every subcommand shares once the root has run.
type cli struct {
	configFile string
	cfg        *internal.Config
	logger     *zap.Logger
}

func main() {
	c := &cli{}

	root := &cobra.Command{
		Use:           "pdfreader",
		Short:         "Read PDFs with an AI study assistant, highlights and a concept canvas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", defaultConfigFile,
		"path to config file (env APP_CONFIG_FILE)")

	root.AddCommand(serveCmd(c), askCmd(c), searchCmd(c), outlineCmd(c))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the config file when present. Without one the defaults and
// the environment apply.
func (c *cli) load(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("config") {
		if env := os.Getenv("APP_CONFIG_FILE"); env != "" {
			c.configFile = env
		}
	}

	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadOptional(c.configFile, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	logger, err := internal.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Debug("config", zap.String("file", c.configFile), zap.Bool("loaded", loaded))

	c.cfg = cfg
	c.logger = logger
	return nil
}

// aiContext bounds one model call by the configured timeout.
func (c *cli) aiContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.AI.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.cfg.AI.Timeout)
}
