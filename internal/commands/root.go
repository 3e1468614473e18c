package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"booklookup/internal/config"
	"booklookup/internal/logger"
	"booklookup/internal/lookup"
	"booklookup/internal/metrics"
	"booklookup/internal/shell"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "booklookup",
		Short: "Look up a book by title and print its description and authors",
		Long: `booklookup prompts for a book title, searches the remote book API for it and
prints the title, description and author names. It keeps prompting until
standard input is closed.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the config file (default $"+config.PathEnv+" or ./"+config.DefaultPath+")")

	cmd.AddCommand(newDiagnoseCmd(&configPath))

	return cmd
}

// app bundles what every subcommand needs after configuration is loaded.
type app struct {
	cfg    *config.Config
	client *lookup.Client
	logs   io.Closer
}

func setup(configPath string) (*app, error) {
	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		return nil, err
	}
	logs, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, err
	}
	client, err := lookup.New(cfg.API, logrus.StandardLogger())
	if err != nil {
		logs.Close()
		return nil, err
	}
	logrus.WithField("base_url", cfg.API.BaseURL).Debug("config.loaded")
	return &app{cfg: cfg, client: client, logs: logs}, nil
}

// close flushes metrics to the pushgateway (when configured) and releases the log file.
func (a *app) close() error {
	var pushErr error
	if err := metrics.Push(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job); err != nil {
		logrus.WithError(err).Warn("metrics.push.failed")
		pushErr = fmt.Errorf("push metrics: %w", err)
	}
	return errors.Join(pushErr, a.logs.Close())
}

func runShell(ctx context.Context, configPath string, in io.Reader, out io.Writer) (err error) {
	a, err := setup(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	input, err := shell.OpenInput(in, out, a.cfg.Shell.HistoryFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := input.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("input.close.failed")
		}
	}()

	sh := &shell.Shell{
		Lookup: a.client,
		Input:  input,
		Out:    out,
		Render: shell.NewRenderer(a.cfg.Shell, out),
		Prompt: a.cfg.Shell.Prompt,
	}
	return sh.Run(ctx)
}
