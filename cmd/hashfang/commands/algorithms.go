package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// ErrUnknownFormat indicates an unsupported algorithms output format.
var ErrUnknownFormat = errors.New("unknown format: use table, json, or yaml")

// algorithmInfo is one row of the algorithms listing.
type algorithmInfo struct {
	Name    string   `json:"name"    yaml:"name"`
	Bits    int      `json:"bits"    yaml:"bits"`
	Aliases []string `json:"aliases" yaml:"aliases"`
}

// AlgorithmsCommand holds flag state for the algorithms command.
type AlgorithmsCommand struct {
	format string
}

// NewAlgorithmsCommand creates the algorithms listing command.
func NewAlgorithmsCommand() *cobra.Command {
	ac := &AlgorithmsCommand{}

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List supported hash algorithms",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.format, "format", formatTable, "Output format: table, json, yaml")

	return cmd
}

func (ac *AlgorithmsCommand) run(cmd *cobra.Command, _ []string) error {
	rows := listAlgorithms()
	out := cmd.OutOrStdout()

	switch ac.format {
	case formatTable:
		return writeAlgorithmTable(out, rows)
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		encodeErr := enc.Encode(rows)
		if encodeErr != nil {
			return fmt.Errorf("encode algorithms: %w", encodeErr)
		}

		return nil
	case formatYAML:
		data, marshalErr := yaml.Marshal(rows)
		if marshalErr != nil {
			return fmt.Errorf("encode algorithms: %w", marshalErr)
		}

		_, writeErr := out.Write(data)
		if writeErr != nil {
			return fmt.Errorf("write algorithms: %w", writeErr)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ac.format)
	}
}

func listAlgorithms() []algorithmInfo {
	kinds := digest.Kinds()
	rows := make([]algorithmInfo, len(kinds))

	const bitsPerByte = 8

	for i, kind := range kinds {
		rows[i] = algorithmInfo{
			Name:    kind.String(),
			Bits:    kind.Size() * bitsPerByte,
			Aliases: kind.Aliases(),
		}
	}

	return rows
}

func writeAlgorithmTable(out io.Writer, rows []algorithmInfo) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"NAME", "BITS", "ALIASES"})

	for _, row := range rows {
		tbl.AppendRow(table.Row{row.Name, row.Bits, strings.Join(row.Aliases, ", ")})
	}

	_, err := fmt.Fprintln(out, tbl.Render())
	if err != nil {
		return fmt.Errorf("write algorithms: %w", err)
	}

	return nil
}
