package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codenexus/codenexus-engine/pkg/smells"
)

var (
	smellsFormat string
	smellsFiles  bool
)

var smellsCmd = &cobra.Command{
	Use:   "smells",
	Short: "Inspect detection payloads offline",
}

var smellsCountCmd = &cobra.Command{
	Use:   "count <file|->",
	Short: "Count findings in a detection payload",
	Long: `Count the findings in a detection payload in either encoding
(category-keyed or file-keyed) without touching the database.

Examples:
  codenexus-engine smells count scan.json
  codenexus-engine smells count --files --format yaml scan.json
  cat scan.json | codenexus-engine smells count -`,
	Args: cobra.ExactArgs(1),
	RunE: runSmellsCount,
}

func init() {
	smellsCountCmd.Flags().StringVarP(&smellsFormat, "format", "f", "json", "Output format (json, yaml)")
	smellsCountCmd.Flags().BoolVar(&smellsFiles, "files", false, "Rank files by number of findings instead of totals")

	smellsCmd.AddCommand(smellsCountCmd)
}

type countOutput struct {
	Shape     string           `json:"shape" yaml:"shape"`
	Total     int              `json:"total" yaml:"total"`
	Breakdown smells.Breakdown `json:"breakdown" yaml:"breakdown"`
}

func runSmellsCount(cmd *cobra.Command, args []string) error {
	raw, err := readPayload(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	payload := smells.Decode(raw)

	var out any
	if smellsFiles {
		out = smells.FilesByCodeSmellCount([]smells.Payload{payload})
	} else {
		result := smells.Count(payload)
		out = countOutput{
			Shape:     smells.DetectShape(payload).String(),
			Total:     result.Total,
			Breakdown: result.Breakdown,
		}
	}

	return writeOutput(cmd.OutOrStdout(), smellsFormat, out)
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return raw, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
