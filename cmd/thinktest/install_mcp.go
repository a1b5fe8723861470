package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const mcpServerKey = "thinktest"

// mcpClients maps client names to their config file, relative to $HOME
var mcpClients = map[string]string{
	"windsurf": ".codeium/windsurf/mcp_config.json",
	"cursor":   ".cursor/mcp.json",
}

func newInstallMCPCmd(a *app) *cobra.Command {
	var (
		clients    []string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "install-mcp",
		Short: "Register the thinktest MCP server with editor clients",
		Long: `Add a "thinktest" entry to the mcpServers section of MCP client
configuration files so the editor launches "thinktest serve". Existing
entries for other servers are preserved.

Examples:
  thinktest install-mcp
  thinktest install-mcp --client cursor
  thinktest install-mcp --path ./mcp.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("cannot locate thinktest binary: %w", err)
			}

			targets := map[string]string{}
			if configPath != "" {
				targets["custom"] = configPath
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("cannot locate home directory: %w", err)
				}
				for _, name := range clients {
					rel, ok := mcpClients[strings.ToLower(name)]
					if !ok {
						return fmt.Errorf("unknown MCP client %q", name)
					}
					targets[name] = filepath.Join(home, rel)
				}
			}

			names := make([]string, 0, len(targets))
			for name := range targets {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				path := targets[name]
				if err := configureMCPClient(path, binPath, a.cfgFile); err != nil {
					a.logger.WithError(err).WithField("client", name).Warn("could not update MCP config")
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "MCP config updated for %s: %s\n", name, path)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&clients, "client", []string{"cursor", "windsurf"}, "MCP clients to configure (cursor, windsurf)")
	cmd.Flags().StringVar(&configPath, "path", "", "Write this config file instead of the client defaults")
	return cmd
}

// configureMCPClient merges the thinktest server entry into an MCP client
// config file, creating it when missing.
func configureMCPClient(path, binPath, cfgFile string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create directory for %s: %w", path, err)
	}

	config := map[string]interface{}{}
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("could not parse config at %s: %w", path, err)
		}
	}

	mcpServers := map[string]interface{}{}
	if servers, ok := config["mcpServers"].(map[string]interface{}); ok {
		mcpServers = servers
	}

	args := []string{"serve"}
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		args = append(args, "--config", cfgFile)
	}
	mcpServers[mcpServerKey] = map[string]interface{}{
		"command": binPath,
		"args":    args,
	}
	config["mcpServers"] = mcpServers

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
