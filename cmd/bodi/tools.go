package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/mcptools"
	"github.com/comigor/bodi-go/internal/recommend"
	"github.com/comigor/bodi-go/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve listing lookup tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog(cmd.Context())
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer store.Close()

		provider := catalog.NewProvider(store)
		if _, err := provider.Refresh(cmd.Context()); err != nil {
			return err
		}
		logger.L.Info("mcp server starting", "listings", provider.Snapshot().Len())
		return mcptools.New(provider, session.DefaultViewAllBase).Serve(version)
	},
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Encode or decode recommendation tokens",
}

var bridgeEncodeCmd = &cobra.Command{
	Use:   "encode ID...",
	Short: "Print the view-all URL for ids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if !recommend.ValidIdentifier(id) {
				return fmt.Errorf("invalid listing identifier %q", id)
			}
		}
		base, _ := cmd.Flags().GetString("base")
		fmt.Fprintln(cmd.OutOrStdout(), recommend.ViewAllURL(base, args))
		return nil
	},
}

var bridgeDecodeCmd = &cobra.Command{
	Use:   "decode TOKEN",
	Short: "Print the ids carried by a token, one per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := recommend.Decode(args[0])
		if len(ids) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, "\n"))
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load listings from a YAML seed file into the catalog store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		entries, err := catalog.SeedFile(args[0]).Load(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if !recommend.ValidIdentifier(e.ID) {
				return fmt.Errorf("listing %q: id does not match %s", e.Title, recommend.IdentifierPattern)
			}
		}

		store, err := catalog.OpenStore(cfg.Catalog.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Upsert(ctx, entries); err != nil {
			return err
		}
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d listings (%d in catalog)\n", len(entries), n)
		return nil
	},
}

func init() {
	bridgeEncodeCmd.Flags().String("base", session.DefaultViewAllBase, "listing page the URL points at")
	bridgeCmd.AddCommand(bridgeEncodeCmd, bridgeDecodeCmd)
}
