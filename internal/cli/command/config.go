package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Saiguru2554/Health-Link-Qr/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or edit the CLI config file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the CLI config file settings",
				Action: configShow,
			},
			{
				Name:      "get",
				Usage:     "Print one setting",
				ArgsUsage: "KEY",
				Action:    configGet,
			},
			{
				Name:      "set",
				Usage:     "Change one setting and save the file",
				ArgsUsage: "KEY VALUE",
				Action:    configSet,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
		},
	}
}

func configFilePath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

func loadedConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

type settingRow struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func configShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cfg := loadedConfig(c)

	rows := make([]settingRow, 0, len(config.Keys))
	for _, k := range config.Keys {
		v, _ := cfg.Get(k)
		rows = append(rows, settingRow{Key: k, Value: v})
	}
	return render(c, flags, rows)
}

func configGet(c *cli.Context) error {
	key, err := requireArg(c, "KEY")
	if err != nil {
		return err
	}
	v, err := loadedConfig(c).Get(key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, v)
	return err
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: config set KEY VALUE")
	}
	cfg := *loadedConfig(c)
	if err := cfg.Set(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}

	path := configFilePath(c)
	if err := config.Save(&cfg, path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.App.Writer, "Saved %s\n", path)
	return err
}

func configPath(c *cli.Context) error {
	_, err := fmt.Fprintln(c.App.Writer, configFilePath(c))
	return err
}
