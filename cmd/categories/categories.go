// Package categories provides the "dirkit categories" commands.
package categories

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/dirkit/internal/categories"
	"github.com/klytics/dirkit/internal/cli"
	"github.com/klytics/dirkit/internal/config"
	"github.com/klytics/dirkit/internal/output"
)

// NewCommand returns the categories command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and customize the category table",
		Long: `The category table maps file extensions to folder names. The built-in table
can be replaced with a YAML file, listed in the order categories should appear:

  Images: [.jpg, .jpeg, .png]
  Books: [.epub, .mobi]
  Others:

The category with no extensions receives every unknown extension.`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newClassifyCommand())
	cmd.AddCommand(newInitCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the active category table",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cli.Load(cmd)
			if err != nil {
				return err
			}

			if opts.JSON {
				return output.PrintJSON("categories list", opts.Table.Categories())
			}

			bold := color.New(color.Bold)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CATEGORY\tEXTENSIONS\n")
			for _, c := range opts.Table.Categories() {
				exts := strings.Join(c.Extensions, " ")
				name := c.Name
				if c.Name == opts.Table.Fallback() {
					exts = "(everything else)"
					name = bold.Sprint(name)
				}
				fmt.Fprintf(w, "%s\t%s\n", name, exts)
			}
			return w.Flush()
		},
	}
}

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <extension|file>...",
		Short: "Show which category an extension or file name falls into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cli.Load(cmd)
			if err != nil {
				return err
			}

			result := make(map[string]string, len(args))
			for _, arg := range args {
				ext := filepath.Ext(arg)
				if ext == "" {
					ext = arg
				}
				result[arg] = opts.Table.Classify(ext)
			}

			if opts.JSON {
				return output.PrintJSON("categories classify", result)
			}
			for _, arg := range args {
				fmt.Printf("%s -> %s\n", arg, result[arg])
			}
			return nil
		},
	}
}

func newInitCommand() *cobra.Command {
	var (
		outPath string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in table to a YAML file for editing",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load()
			if outPath == "" {
				outPath = filepath.Join(config.Dir(), "categories.yaml")
			}
			if _, err := os.Stat(outPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}

			data, err := categories.Marshal(categories.Default())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				return fmt.Errorf("could not create %s: %w", filepath.Dir(outPath), err)
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("could not write %s: %w", outPath, err)
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("categories init", map[string]string{"path": outPath})
			}
			fmt.Printf("Category table written to %s\n", outPath)
			fmt.Printf("Use it with: dirkit config set categories_file %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Destination file (default: ~/.dirkit/categories.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
