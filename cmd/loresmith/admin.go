package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loresmith/loresmith/engine/content"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Provision the per-kind vector collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureCollections(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("collections ready (%d kinds, %d dimensions)\n", len(content.Kinds), cfg.Embedding.Dimensions)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-collection point counts and status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats := store.Stats(cmd.Context())
		fmt.Printf("model: %s (%d dimensions)\n\n", store.Model(), store.Dimensions())
		for _, kind := range content.Kinds {
			st := stats[kind]
			if st.Error != "" {
				fmt.Printf("%-12s %-28s %s\n", kind, st.Name, st.Error)
				continue
			}
			fmt.Printf("%-12s %-28s %8d points  %s\n", kind, st.Name, st.Points, st.Status)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <type> <id>",
	Short: "Remove one record's embedding",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := content.Kind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown content type %q", args[0])
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Delete(cmd.Context(), kind, args[1]); err != nil {
			return err
		}
		fmt.Printf("deleted %s/%s\n", kind, args[1])
		return nil
	},
}

var dropForce bool

var dropCmd = &cobra.Command{
	Use:   "drop <type>",
	Short: "Delete a kind's entire collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := content.Kind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown content type %q", args[0])
		}
		if !dropForce {
			return fmt.Errorf("drop removes every %s embedding; re-run with --force", kind)
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.DropCollection(cmd.Context(), kind); err != nil {
			return err
		}
		fmt.Printf("dropped collection for %s\n", kind)
		return nil
	},
}

func init() {
	dropCmd.Flags().BoolVar(&dropForce, "force", false, "confirm the drop")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(dropCmd)
}
