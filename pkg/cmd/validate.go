package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/config"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type (
	summary struct {
		Blocks       []blockSummary `yaml:"blocks"`
		OutputTables []tableSummary `yaml:"output_tables"`
	}

	blockSummary struct {
		Name  string        `yaml:"name"`
		Codes []codeSummary `yaml:"codes"`
	}

	codeSummary struct {
		Name    string `yaml:"name"`
		Scripts int    `yaml:"scripts"`
	}

	tableSummary struct {
		Source      string `yaml:"source"`
		Destination string `yaml:"destination"`
	}
)

// validateCmd creates the command checking a configuration without connecting
// to the warehouse. A valid configuration is summarized on the output as YAML:
//
//	Configuration is valid.
//	blocks:
//	  - name: Block 1
//	    codes:
//	      - name: Code 1
//	        scripts: 2
//	output_tables:
//	  - source: orders
//	    destination: out.c-main.orders
func validateCmd(loader *config.Loader) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loader.Load(cmd.String("data-dir"))
			if err != nil {
				return err
			}

			return printSummary(cmd.Root().Writer, cfg)
		},
	}
}

func printSummary(w io.Writer, cfg *config.Config) error {
	s := summary{
		Blocks:       make([]blockSummary, 0, len(cfg.Blocks())),
		OutputTables: make([]tableSummary, 0, len(cfg.OutputTables())),
	}

	for _, block := range cfg.Blocks() {
		b := blockSummary{Name: block.Name, Codes: make([]codeSummary, 0, len(block.Codes))}
		for _, code := range block.Codes {
			b.Codes = append(b.Codes, codeSummary{Name: code.Name, Scripts: len(code.Scripts)})
		}
		s.Blocks = append(s.Blocks, b)
	}

	for _, table := range cfg.OutputTables() {
		s.OutputTables = append(s.OutputTables, tableSummary{Source: table.Source, Destination: table.Destination})
	}

	if _, err := fmt.Fprintln(w, "Configuration is valid."); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "failed to write summary")
	}

	return enc.Close()
}
