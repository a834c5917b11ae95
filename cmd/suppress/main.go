// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"cardsearch/internal/suppressions"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var suppressionFile string

	root := &cobra.Command{
		Use:   "cardsearch-suppress",
		Short: "Manage cardsearch suppression rules",
		Long: `Manage the rules that hide accepted cardsearch findings.

Rules are keyed by a finding hash that never contains the card number.
cardsearch --generate-suppressions writes disabled rules for every finding;
enable the ones that are accepted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&suppressionFile, "suppression-file", "", "path to the suppression file (default: the cardsearch config directory)")

	manager := func() (*suppressions.SuppressionManager, error) {
		m := suppressions.NewSuppressionManager(suppressionFile)
		if err := m.LoadError(); err != nil {
			return nil, err
		}
		return m, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List suppression rules",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := manager()
				if err != nil {
					return err
				}
				listSuppressions(cmd.OutOrStdout(), m)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a suppression rule",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := manager()
				if err != nil {
					return err
				}
				if err := m.RemoveSuppression(args[0]); err != nil {
					return fmt.Errorf("error removing suppression: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed suppression rule: %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove expired suppression rules",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := manager()
				if err != nil {
					return err
				}
				removed, err := m.CleanupExpired()
				if err != nil {
					return fmt.Errorf("error cleaning up suppressions: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleaned up %d expired suppression rules\n", removed)
				return nil
			},
		},
		newEnableCommand(manager),
		&cobra.Command{
			Use:   "disable <id>",
			Short: "Disable a suppression rule without removing it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := manager()
				if err != nil {
					return err
				}
				if err := m.DisableSuppressionByID(args[0]); err != nil {
					return fmt.Errorf("error disabling suppression: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully disabled suppression rule: %s\n", args[0])
				return nil
			},
		},
	)

	return root
}

func newEnableCommand(manager func() (*suppressions.SuppressionManager, error)) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "enable <hash>",
		Short: "Enable the suppression rule of a finding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			hash := args[0]
			if err := m.EnableSuppressionByHash(hash, reason); err != nil {
				return fmt.Errorf("error enabling suppression: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully enabled suppression for hash: %s\n", hash[:min(8, len(hash))])
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the finding is accepted")
	return cmd
}

func listSuppressions(w io.Writer, manager *suppressions.SuppressionManager) {
	rules := manager.ListSuppressions()
	if len(rules) == 0 {
		fmt.Fprintln(w, "No suppression rules found.")
		return
	}

	fmt.Fprintf(w, "Found %d suppression rules:\n\n", len(rules))
	for _, rule := range rules {
		fmt.Fprintf(w, "ID: %s\n", rule.ID)
		fmt.Fprintf(w, "Hash: %s\n", rule.Hash)
		fmt.Fprintf(w, "Enabled: %t\n", rule.Enabled)
		fmt.Fprintf(w, "Reason: %s\n", rule.Reason)
		if rule.CreatedBy != "" {
			fmt.Fprintf(w, "Created By: %s\n", rule.CreatedBy)
		}
		fmt.Fprintf(w, "Created At: %s\n", rule.CreatedAt.Format("2006-01-02 15:04:05"))
		if rule.ExpiresAt != nil {
			fmt.Fprintf(w, "Expires At: %s\n", rule.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
		if len(rule.Metadata) > 0 {
			fmt.Fprintln(w, "Metadata:")
			keys := make([]string, 0, len(rule.Metadata))
			for k := range rule.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "  %s: %s\n", k, rule.Metadata[k])
			}
		}
		fmt.Fprintln(w, "---")
	}
}
