package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/slietar/dexc"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "dexc",
		Short:         "Render captured error reports as readable tracebacks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		renderCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dexc: %s\n", err)
		os.Exit(1)
	}
}

func renderCmd() *cobra.Command {
	var (
		format     string
		noColor    bool
		forceColor bool
		width      int
		rulesPath  string
		maxFrames  int
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a captured report (JSON or Go panic text)",
		Long: `Render reads a captured error report and writes a readable
traceback to stdout. With no file argument it reads stdin.

Two input formats are understood: the JSON report shape produced by
this package's MarshalJSON, and the plain text a crashing Go program
prints. By default the format is sniffed from the first byte.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}

			rec, err := decode(data, format)
			if err != nil {
				return err
			}

			opts := dexc.DefaultOptions()
			opts.Color = forceColor || dexc.ColorEnabled(os.Stdout)
			opts.NoColor = noColor
			if width > 0 {
				opts.Width = width
			} else {
				opts.Width = dexc.Width(os.Stdout)
			}
			if maxFrames > 0 {
				opts.MaxFrames = maxFrames
			}
			if rulesPath != "" {
				rules, err := dexc.LoadRules(rulesPath)
				if err != nil {
					return fmt.Errorf("loading rules: %w", err)
				}
				opts.Rules = rules
			}

			return dexc.DumpRecord(rec, os.Stdout, opts)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "auto", "input format: auto, json, or panic")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI styling")
	cmd.Flags().BoolVar(&forceColor, "color", false, "force ANSI styling even when stdout is not a terminal")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "output width (0 = detect)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML file with classifier rules")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 0, "maximum frames displayed per record")
	return cmd
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func decode(data []byte, format string) (*dexc.ErrorRecord, error) {
	if format == "auto" {
		format = "panic"
		for _, b := range data {
			if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
				continue
			}
			if b == '{' {
				format = "json"
			}
			break
		}
	}
	switch format {
	case "json":
		return dexc.RecordFromJSON(data)
	case "panic":
		return dexc.ParsePanicText(data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dexc version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
