package main

import (
	"github.com/spf13/cobra"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress/elementor"
	"github.com/doITmagic/thinktest-analyzer/internal/tools"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		filename string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file|->",
		Short: "Analyze one WordPress plugin file",
		Long: `Analyze a PHP file and print the extracted WordPress facts.

Pass --filename owner/repo@branch to analyze a concatenated repository
document whose files are separated by "// File: <path>" markers.

Examples:
  thinktest analyze my-plugin.php
  thinktest analyze - --filename acme/forms@main < repo.txt
  thinktest analyze my-plugin.php --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			code, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}

			result := analyzer.AnalyzePlugin(code, sourceName(args[0], filename))
			a.logger.WithField("method", result.AnalysisMethod).Debug("analysis complete")

			return writeResult(cmd.OutOrStdout(), format, result, func() string {
				return tools.FormatAnalysisMarkdown(result)
			})
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "Reported file name, or owner/repo@branch for concatenated input")
	addFormatFlag(cmd, &format)
	return cmd
}

func newElementorCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "elementor <file|->",
		Short: "Analyze an Elementor widget class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			code, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			widget := elementor.Analyze(code)
			a.logger.WithField("controls", len(widget.Controls)).Debug("widget analysis complete")

			return writeResult(cmd.OutOrStdout(), format, widget, func() string {
				return tools.FormatWidgetMarkdown(widget)
			})
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}
