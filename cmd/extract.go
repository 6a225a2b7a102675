package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/prlink/internal/config"
	"github.com/danielolaszy/prlink/internal/jira"
	"github.com/danielolaszy/prlink/internal/tickets"
	"github.com/danielolaszy/prlink/pkg/models"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// extractCmd finds ticket IDs in text without contacting any service.
var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Print the ticket IDs found in text",
	Long: `Print the ticket IDs found in text, read from the arguments or from stdin.

With --linkify the text is also printed with every ticket ID replaced by a
markdown link to the tracker, exactly as sync rewrites pull request descriptions.

Example:
  echo "Fixes PROJ-1 and PROJ-2" | prlink extract --pattern 'PROJ-\d+' --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadExtractConfig(cmd.Flags())
		if err != nil {
			return err
		}

		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		unique, err := cmd.Flags().GetBool("unique")
		if err != nil {
			return err
		}
		linkify, err := cmd.Flags().GetBool("linkify")
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		if len(args) == 0 {
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(input)
		}

		result, err := extract(cfg, text, unique, linkify)
		if err != nil {
			return err
		}
		return writeExtraction(cmd.OutOrStdout(), format, result)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("format", "o", formatText, "Output format: text, json or yaml")
	extractCmd.Flags().Bool("unique", false, "Drop repeated ticket IDs")
	extractCmd.Flags().Bool("linkify", false, "Also print the text with ticket IDs replaced by tracker links")
}

// extraction is the result of an extract run.
type extraction struct {
	Tickets []string `json:"tickets" yaml:"tickets"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
}

func extract(cfg *config.ExtractConfig, text string, unique, linkify bool) (extraction, error) {
	re, err := tickets.Compile(cfg.Pattern)
	if err != nil {
		return extraction{}, err
	}

	ids, err := tickets.Extract(text, re)
	if err != nil {
		return extraction{}, err
	}
	if unique {
		ids = tickets.Unique(ids)
	}

	result := extraction{Tickets: ids}
	if linkify {
		if cfg.TrackerURL == "" {
			return extraction{}, models.NewConfigurationError("TRACKER_URL (youtrackUrl)")
		}
		result.Text = tickets.Linkify(text, re, linkFunc(cfg))
	}
	return result, nil
}

func linkFunc(cfg *config.ExtractConfig) func(string) string {
	if cfg.TrackerKind == config.TrackerJira {
		return func(id string) string { return jira.BrowseURL(cfg.TrackerURL, id) }
	}
	return func(id string) string { return tickets.IssueURL(cfg.TrackerURL, id) }
}

func writeExtraction(w io.Writer, format string, result extraction) error {
	switch format {
	case formatText:
		for _, id := range result.Tickets {
			fmt.Fprintln(w, id)
		}
		if result.Text != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, result.Text)
		}
		return nil
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q, expected text, json or yaml", format)
	}
}
