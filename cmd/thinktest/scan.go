package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doITmagic/thinktest-analyzer/internal/tools"
	"github.com/doITmagic/thinktest-analyzer/internal/workspace"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		combined bool
		repo     string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Analyze every PHP file of a plugin directory",
		Long: `Scan a plugin directory and analyze each PHP file matching the configured
include globs (vendor, node_modules, .git and tests are excluded by default).

With --combined the files are concatenated into one repository document and
analyzed as a whole, producing a single merged result.

Examples:
  thinktest scan ./wp-content/plugins/acme-forms
  thinktest scan . --combined --repo acme/forms@main
  thinktest scan . --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			scanner, err := a.scanner()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if combined {
				result, err := scanner.ScanCombined(ctx, args[0], repo)
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), format, result, func() string {
					return tools.FormatAnalysisMarkdown(result)
				})
			}

			result, err := scanner.Scan(ctx, args[0])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), format, result, func() string {
				return tools.FormatScanMarkdown(result)
			})
		},
	}

	cmd.Flags().BoolVar(&combined, "combined", false, "Analyze all files as one repository")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository id owner/repo@branch for --combined (default: <dirname>@<branch>)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Rescan a plugin directory whenever its PHP files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			scanner, err := a.scanner()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			emit := func(result *workspace.ScanResult) {
				err := writeResult(out, format, result, func() string {
					return tools.FormatScanMarkdown(result)
				})
				if err != nil {
					a.logger.WithError(err).Error("failed to write scan result")
				}
			}

			initial, err := scanner.Scan(ctx, args[0])
			if err != nil {
				return err
			}
			emit(initial)

			watcher, err := workspace.NewWatcher(args[0], scanner, a.cfg.Watch.Debounce, func(result *workspace.ScanResult, err error) {
				if err == nil {
					emit(result)
				}
			}, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			<-ctx.Done()
			a.logger.Info("watch stopped")
			return nil
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}
