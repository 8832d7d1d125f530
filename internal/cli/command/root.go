package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Saiguru2554/Health-Link-Qr/internal/cli/config"
	"github.com/Saiguru2554/Health-Link-Qr/internal/cli/connection"
	"github.com/Saiguru2554/Health-Link-Qr/internal/cli/output"
	"github.com/Saiguru2554/Health-Link-Qr/internal/infra/buildinfo"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "healthqr-cli",
		Usage:    "Health QR Link command-line tool",
		Version:  buildinfo.Get().String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			TokenCommand(),
			PatientCommand(),
			ScanCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			c.App.Metadata[metaConfig] = cfg
			return setupLogger(c)
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.healthqr/cli.yaml)",
			EnvVars: []string{config.EnvConfigPath},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "healthqr-server address (e.g., 127.0.0.1:5080)",
			EnvVars: []string{"HEALTHQR_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log debug output to stderr",
		},
	}
}

// setupLogger silences library logging unless --verbose is given.
func setupLogger(c *cli.Context) error {
	if !c.Bool("verbose") {
		logger.SetDefault(logger.NewNop())
		return nil
	}
	l, err := logger.New(logger.Config{Level: "debug", Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return err
	}
	logger.SetDefault(l)
	return nil
}

// GlobalFlags are the global flags resolved against the config file.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Wide    bool
	Timeout time.Duration
	BaseURL string
}

// ParseGlobalFlags merges flags over the loaded CLI config.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	flags := &GlobalFlags{
		Server:  cfg.Server,
		Wide:    c.Bool("wide"),
		Timeout: cfg.Timeout,
		BaseURL: cfg.BaseURL,
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

// newClient returns an HTTP client for the resolved server.
func newClient(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	return connection.NewHTTPClient(flags.Server, connection.WithTimeout(flags.Timeout)), flags, nil
}

// requestContext bounds one command's server calls.
func requestContext(c *cli.Context, flags *GlobalFlags) (context.Context, context.CancelFunc) {
	timeout := flags.Timeout
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	return context.WithTimeout(c.Context, timeout)
}

// render writes data in the selected output format.
func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}

// requireArg returns the first positional argument or a usage error.
func requireArg(c *cli.Context, name string) (string, error) {
	v := c.Args().First()
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}
