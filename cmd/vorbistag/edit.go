package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/vorbistag"
	"github.com/simonhull/vorbistag/internal/batch"
)

func newSetCmd() *cobra.Command {
	var (
		entries []string
		add     bool
		sf      saveFlags
	)
	cmd := &cobra.Command{
		Use:   "set FILE... -c KEY=VALUE [-c KEY=VALUE...]",
		Short: "Set comment values, replacing existing ones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := entryRules(entries, add)
			if err != nil {
				return err
			}
			applier := &batch.Applier{
				Log:         logger,
				Rules:       rules,
				SaveOptions: sf.options(),
			}
			return applier.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringArrayVarP(&entries, "comment", "c", nil, "comment entry as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&add, "add", false, "append the values instead of replacing existing ones")
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

// entryRules turns KEY=VALUE flags into a rule set, folding repeated
// keys into one multi-value rule so "set -c GENRE=A -c GENRE=B" ends up
// with both values rather than the last one.
func entryRules(entries []string, add bool) (*batch.Rules, error) {
	var order []string
	byKey := make(map[string][]string)
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || !vorbistag.IsValidKey(key) {
			return nil, fmt.Errorf("invalid comment %q, want KEY=VALUE", entry)
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], value)
	}

	rules := make([]batch.Rule, 0, len(order))
	for _, key := range order {
		rules = append(rules, batch.Rule{Key: key, Values: byKey[key]})
	}
	if add {
		return &batch.Rules{Add: rules}, nil
	}
	return &batch.Rules{Set: rules}, nil
}

func newDelCmd() *cobra.Command {
	var (
		keys []string
		sf   saveFlags
	)
	cmd := &cobra.Command{
		Use:   "del FILE... --key KEY [--key KEY...]",
		Short: "Delete all values of the given comment keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applier := &batch.Applier{
				Log:         logger,
				Rules:       &batch.Rules{Del: keys},
				SaveOptions: sf.options(),
			}
			return applier.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringArrayVarP(&keys, "key", "k", nil, "comment key to delete (repeatable)")
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newClearCmd() *cobra.Command {
	var sf saveFlags
	cmd := &cobra.Command{
		Use:   "clear FILE...",
		Short: "Remove all comments, keeping the vendor string",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applier := &batch.Applier{
				Log:         logger,
				Rules:       &batch.Rules{Clear: true},
				SaveOptions: sf.options(),
			}
			return applier.Run(cmd.Context(), args)
		},
	}
	sf.register(cmd)
	return cmd
}
