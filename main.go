package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "mindloom",
		Short:        "Terminal studio for AI-generated mind maps",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStudio()
		},
	}
	root.AddCommand(newExportCommand(), newDigestCommand())
	return root
}

func runStudio() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m := initialModel(cfg)
	if m.history != nil {
		defer m.history.Close()
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// newExportCommand renders a saved map payload to PNG or SVG without
// starting the UI.
func newExportCommand() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a saved map to an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sess, err := sessionFromFile(in, cfg)
			if err != nil {
				return err
			}
			switch {
			case strings.HasSuffix(out, ".png"):
				err = ExportPNG(sess, out)
			case strings.HasSuffix(out, ".svg"):
				err = ExportSVG(sess, out)
			default:
				return fmt.Errorf("output must end in .png or .svg")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "saved map payload (JSON)")
	cmd.Flags().StringVar(&out, "out", "", "output image path (.png or .svg)")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

// newDigestCommand prints the text outline of a saved map.
func newDigestCommand() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print the text outline of a saved map",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := LoadMapJSON(in)
			if err != nil {
				return err
			}
			digest := tree.Digest() + "\n"
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), digest)
				return nil
			}
			return os.WriteFile(out, []byte(digest), 0644)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "saved map payload (JSON)")
	cmd.Flags().StringVar(&out, "out", "", "write the outline here instead of stdout")
	cmd.MarkFlagRequired("in")
	return cmd
}

func sessionFromFile(path string, cfg *Config) (*Session, error) {
	tree, err := LoadMapJSON(path)
	if err != nil {
		return nil, err
	}
	measurer, err := NewFontMeasurer()
	if err != nil {
		return nil, err
	}
	return NewSession(tree, measurer, cfg.SizeMultiplier())
}
