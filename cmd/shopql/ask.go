package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopql/shopql/internal/pipeline"
	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return pipeline.ErrEmptyQuestion
		}

		store, p, err := buildPipeline(cmd.Context(), configFrom(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		resp := p.Ask(cmd.Context(), question)
		if askJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
		}
		if resp.Failed() {
			return errors.New(resp.Error)
		}
		if askJSON {
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, resp.Answer)
		if v := resp.Visualization; v != nil && v.IsVisualizable {
			fmt.Fprintf(out, "\nChart: %s (%s)\n", v.ChartTitle, v.ChartType)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
}
