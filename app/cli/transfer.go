package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"zodo/app/codec"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [ref]",
	Short: "Export the tree or a subtree",
	Long: `Write the tree, or the subtree at ref, as a nested
{name, children, done, show} document.

The format defaults to the extension of --out, or json when writing to
stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		ref := "0"
		if len(args) == 1 {
			ref = args[0]
		}
		format, err := resolveFormat(exportFormat, exportOut)
		if err != nil {
			return err
		}
		rec, err := Service.Export(cmd.Context(), ref)
		if err != nil {
			return err
		}
		data, err := codec.Encode(rec, format)
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		Logger.Info("exported", "tasks", rec.Count(), "file", exportOut)
		return nil
	},
}

var (
	importFormat  string
	importUnder   string
	importReplace bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import a subtree from a file",
	Long: `Read a nested {name, children, done, show} document and attach it as
the last child of --under (the root by default). With --replace the document
becomes the whole tree.

The format defaults to the file extension, or json when reading stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		path := args[0]
		format, err := resolveFormat(importFormat, path)
		if err != nil {
			return err
		}

		var data []byte
		if path == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return fmt.Errorf("reading import: %w", err)
		}
		rec, err := codec.Decode(data, format)
		if err != nil {
			return err
		}

		if importReplace {
			if err := Service.Replace(cmd.Context(), rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replaced tree with %d tasks\n", rec.Count())
			return nil
		}
		v, err := Service.Import(cmd.Context(), importUnder, rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks at %s\n", rec.Count(), v.Path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json, yaml or toml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "json, yaml or toml")
	importCmd.Flags().StringVarP(&importUnder, "under", "u", "0", "ref of the parent task")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "replace the whole tree")

	rootCmd.AddCommand(exportCmd, importCmd)
}

// resolveFormat prefers an explicit format name and falls back to the file
// extension.
func resolveFormat(name, path string) (codec.Format, error) {
	if name != "" {
		return codec.ParseFormat(name)
	}
	if path == "" || path == "-" {
		return codec.JSON, nil
	}
	return codec.FormatFromPath(path), nil
}
