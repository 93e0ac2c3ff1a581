package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCommand creates the workspace configuration command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Read and write workspace configuration",
		GroupID: groupWorkspace,
	}

	cmd.AddCommand(c.configGetCommand())
	cmd.AddCommand(c.configSetCommand())
	cmd.AddCommand(c.configDeleteCommand())
	cmd.AddCommand(c.configListCommand())

	return cmd
}

func (c *CLI) configGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			v, err := s.ws.Config.Get(args[0])
			if err != nil {
				return err
			}
			if v == nil {
				return nil
			}
			fmt.Fprintln(c.Out, formatValue(v))
			return nil
		},
	}
}

func (c *CLI) configSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. The value is parsed as YAML, so lists can be
given inline:

  gpm config set selection "[app, lib]"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			if err := s.ws.Config.Set(args[0], parseValue(args[1])); err != nil {
				return err
			}
			printSuccess(c.Out, "%s = %s", args[0], args[1])
			return nil
		},
	}
}

func (c *CLI) configDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a configuration value",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			return s.ws.Config.Delete(args[0])
		},
	}
}

func (c *CLI) configListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all configuration values",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open()
			if err != nil {
				return err
			}
			keys, values, err := s.ws.Config.All()
			if err != nil {
				return err
			}
			for _, k := range keys {
				printKeyValue(c.Out, k, formatValue(values[k]))
			}
			return nil
		},
	}
}

// parseValue reads a command-line value as YAML, falling back to the raw
// string for anything that is not a list or map.
func parseValue(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case []any, map[string]any:
		return v
	}
	return s
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(out))
}
