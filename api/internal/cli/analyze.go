package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jewelry-identifier/api/internal/format"
	"jewelry-identifier/api/internal/jewel"
	"jewelry-identifier/api/internal/render"
	"jewelry-identifier/api/internal/session"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		engine string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze one photo and print the report",
		Long: `Analyze validates a local photo the same way the web upload does
(image type, at most 20MB), sends it to the configured engine once and prints
the formatted report.

Examples:
  jewelry-identifier analyze ring.jpg
  jewelry-identifier analyze --engine gpt --json necklace.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyzeFile(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], engine, asJSON)
		},
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "engine to use: gemini, genai or gpt (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session snapshot as JSON")
	return cmd
}

func (a *app) analyzeFile(ctx context.Context, stdout, stderr io.Writer, path, engine string, asJSON bool) error {
	if engine = strings.TrimSpace(engine); engine != "" {
		a.cfg.LLMProvider = engine
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	c, err := newCore(a.cfg, a.log)
	if err != nil {
		return err
	}

	f, err := session.FromPath(path)
	if err != nil {
		return err
	}
	sess := session.New("cli", session.Deps{
		Analyzer: c.manager.For("cli"),
		Prompt:   c.prompt,
		Logger:   a.log,
	})
	if err := sess.Upload(ctx, f); err != nil {
		fmt.Fprintln(stderr, render.Error(jewel.UserMessage(err)))
		return err
	}

	snap := sess.Snapshot()
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	fmt.Fprint(stdout, render.Terminal(jewel.Title, snap.Blocks))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, jewel.Disclaimer)
	return nil
}

func newFormatCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format analysis text from a file or stdin",
		Long: `Format turns raw analysis text into display blocks: numbered lines become
section headers, "- Label: value" lines become fields, other "- " lines become
bullets and everything else a paragraph. Without a file (or with "-") it reads stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				fh, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer fh.Close()
				in = fh
			}
			b, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			blocks := format.Analysis(string(b))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(blocks)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Terminal("", blocks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print blocks as JSON")
	return cmd
}
