package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/cognicore/flowtag/pkg/flowtag/flow"
	"github.com/cognicore/flowtag/pkg/flowtag/match"
)

func newTagCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag [text...]",
		Short: "Tag text against the ontology",
		Long: `Tag prints the ranked tags of the text given as arguments. Without
arguments every non-empty input line is tagged as a separate text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, cleanup, err := buildEngine(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				tags, err := engine.Tag(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printTags(out, tags, opts.jsonOutput)
			}

			texts, err := readLines(cmd.InOrStdin())
			if err != nil {
				return err
			}
			results, err := engine.TagBatch(ctx, texts)
			if err != nil {
				return err
			}
			for i, tags := range results {
				if !opts.jsonOutput {
					fmt.Fprintf(out, "# %s\n", texts[i])
				}
				if err := printTags(out, tags, opts.jsonOutput); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var (
		text    string
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [tag...]",
		Short: "Resolve tags into ranked flows",
		Long: `Resolve maps a tag set onto the ontology's flows and prints the
normalized confidence levels, highest first. With --text the text is tagged
first and its labels are resolved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, cleanup, err := buildEngine(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			tags := args
			if text != "" {
				tagged, err := engine.Tag(ctx, text)
				if err != nil {
					return err
				}
				tags = tags[:0:0]
				for _, t := range tagged {
					tags = append(tags, t.Label)
				}
			}
			if len(tags) == 0 {
				return errors.New("no tags to resolve")
			}

			res, err := engine.Resolve(ctx, tags)
			if err != nil {
				return err
			}
			return printResolution(cmd.OutOrStdout(), res, explain, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "tag this text and resolve its labels")
	cmd.Flags().BoolVar(&explain, "explain", false, "print every candidate with its rule breakdown")
	return cmd
}

func newKeywordsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords <text...>",
		Short: "Print stopword-filtered keywords of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, cleanup, err := buildEngine(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			words, err := engine.Keywords(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, words)
			}
			fmt.Fprintln(out, strings.Join(words, " "))
			return nil
		},
	}
}

func printTags(w io.Writer, tags []match.Tag, asJSON bool) error {
	if asJSON {
		if tags == nil {
			tags = []match.Tag{}
		}
		return writeJSON(w, tags)
	}
	if len(tags) == 0 {
		fmt.Fprintln(w, "(no tags)")
		return nil
	}
	for _, t := range tags {
		fmt.Fprintf(w, "%6.1f  %s\n", t.Confidence, t.Label)
	}
	return nil
}

func printResolution(w io.Writer, res *flow.Resolution, explain, asJSON bool) error {
	if asJSON {
		if explain {
			return writeJSON(w, res)
		}
		return writeJSON(w, res.Summary)
	}

	fmt.Fprintf(w, "resolution %s  tags: %s\n", res.ID, strings.Join(res.Tags, ", "))
	rows := res.Summary.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no flows)")
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%6.1f  %s\n", row.Confidence, strings.Join(row.Flows, ", "))
	}

	if !explain {
		return nil
	}
	fmt.Fprintln(w, "\ncandidates:")
	for _, c := range res.Candidates {
		fmt.Fprintf(w, "  %s  %.1f\n", c.Flow, c.Confidence)
		for _, step := range breakdownOrder(c.Breakdown) {
			fmt.Fprintf(w, "    %-16s %+.1f\n", step, c.Breakdown[step])
		}
	}
	return nil
}

// breakdownOrder lists breakdown steps in scoring order.
func breakdownOrder(b map[string]float64) []string {
	order := []string{flow.StepBase}
	for _, r := range flow.DefaultRules(flow.GuardExcludeOneOf) {
		order = append(order, r.Name())
	}
	order = append(order, flow.StepTieBreak, flow.StepClamp)

	out := make([]string, 0, len(b))
	for _, step := range order {
		if _, ok := b[step]; ok {
			out = append(out, step)
		}
	}
	return out
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	return lines, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
