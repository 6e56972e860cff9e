package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"flowbuilder/application/ports"
	"flowbuilder/domain/core/validators"
	"flowbuilder/domain/core/valueobjects"
	"flowbuilder/domain/services"
	"flowbuilder/domain/snapshot"
	"flowbuilder/infrastructure/config"
	"flowbuilder/infrastructure/di"
	"flowbuilder/pkg/auth"
)

// errInvalidFlow makes the process exit non-zero after the verdict has
// been printed
var errInvalidFlow = errors.New("flow is not valid")

func newRootCmd(out io.Writer) *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:           "flowctl",
		Short:         "Inspect and validate chatbot flows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, json or toml)")
	flags.String("store", config.StoreFile, "Snapshot store: file or dynamodb")
	flags.String("key", "chatbot-flow", "Snapshot key")
	flags.String("dir", "./data", "Snapshot directory for the file store")
	flags.String("table", "flowbuilder", "DynamoDB table for the dynamodb store")
	flags.String("region", "us-west-2", "AWS region")
	flags.String("codec", "json", "Snapshot codec: json or msgpack")
	flags.String("compression", "none", "Snapshot compression: none, gzip or zstd")
	flags.Bool("json", false, "Print results as JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(v, cmd.Flags())
	}

	rootCmd.AddCommand(
		newValidateCmd(v),
		newShowCmd(v),
		newDiffCmd(v),
		newTokenCmd(v),
		newKindsCmd(),
	)
	return rootCmd
}

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a snapshot file against the save rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			snap, err := readSnapshot(s, args[0])
			if err != nil {
				return err
			}
			return printVerdict(cmd.OutOrStdout(), s.JSON, snap)
		},
	}
}

func newShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the flow saved in a store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), s)
			if err != nil {
				return err
			}
			snap, err := store.Get(cmd.Context(), s.Key)
			if err != nil {
				return err
			}
			checksum, err := snap.Checksum()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if s.JSON {
				return writeJSON(out, struct {
					Key      string            `json:"key"`
					Checksum string            `json:"checksum"`
					Snapshot snapshot.Snapshot `json:"snapshot"`
				}{s.Key, checksum, snap})
			}

			fmt.Fprintf(out, "%s  %d nodes  %d edges  sha256:%s\n", s.Key, len(snap.Nodes), len(snap.Edges), checksum[:12])
			targets := make(map[string]string, len(snap.Edges))
			for _, e := range snap.Edges {
				targets[e.Source] = e.Target
			}
			for _, n := range snap.Nodes {
				line := fmt.Sprintf("  %-20s %-12s (%g, %g) %q", n.ID, n.Type, n.Position.X, n.Position.Y, n.Data.Text)
				if target, ok := targets[n.ID]; ok {
					line += " -> " + target
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newDiffCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <base> <next>",
		Short: "List nodes and edges that differ between two snapshot files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			base, err := readSnapshot(s, args[0])
			if err != nil {
				return err
			}
			next, err := readSnapshot(s, args[1])
			if err != nil {
				return err
			}

			diff := snapshot.Compare(base, next)
			out := cmd.OutOrStdout()
			if s.JSON {
				return writeJSON(out, diff)
			}
			if diff.IsEmpty() {
				fmt.Fprintln(out, "no changes")
				return nil
			}
			for _, row := range []struct {
				mark string
				ids  []string
			}{
				{"+ node", diff.NodesAdded},
				{"- node", diff.NodesRemoved},
				{"~ node", diff.NodesUpdated},
				{"+ edge", diff.EdgesAdded},
				{"- edge", diff.EdgesRemoved},
			} {
				for _, id := range row.ids {
					fmt.Fprintf(out, "%s %s\n", row.mark, id)
				}
			}
			return nil
		},
	}
}

func newTokenCmd(v *viper.Viper) *cobra.Command {
	var (
		email string
		roles []string
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign an API token with the shared secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			gen, err := auth.NewJWTGenerator(s.JWTSecret, s.JWTIssuer, nil, s.TokenTTL)
			if err != nil {
				return fmt.Errorf("%w (set FLOW_JWT_SECRET or --jwt-secret)", err)
			}
			token, err := gen.GenerateToken(args[0], email, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{"editor"}, "Role claims")
	cmd.Flags().String("jwt-secret", "", "HS256 signing secret")
	cmd.Flags().String("jwt-issuer", "flowbuilder", "Issuer claim")
	cmd.Flags().Duration("token-ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the node types the editor can create",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, def := range valueobjects.DefaultKindRegistry("New message").Definitions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", def.Kind, def.Description)
			}
		},
	}
}

func readSnapshot(s *settings, path string) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot

	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	serializer, err := di.ProvideSerializer(s.appConfig())
	if err != nil {
		return snap, err
	}
	if err := serializer.Deserialize(data, &snap); err != nil {
		return snap, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func openStore(ctx context.Context, s *settings) (ports.SnapshotStore, error) {
	cfg := s.appConfig()
	if cfg.SnapshotStore == config.StoreMemory {
		return nil, errors.New("the memory store only lives inside a running server")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	serializer, err := di.ProvideSerializer(cfg)
	if err != nil {
		return nil, err
	}
	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return di.ProvideSnapshotStore(cfg, di.ProvideDynamoDBClient(awsCfg), serializer, zap.NewNop())
}

func printVerdict(out io.Writer, asJSON bool, snap snapshot.Snapshot) error {
	registry := valueobjects.DefaultKindRegistry("New message")
	if err := validators.NewSnapshotValidator(registry).Validate(snap); err != nil {
		return err
	}
	nodes, edges, err := snap.ToDomain(time.Now())
	if err != nil {
		return err
	}
	verdict := services.NewFlowValidator(registry).Validate(nodes, edges)

	if asJSON {
		if err := writeJSON(out, struct {
			Valid            bool     `json:"valid"`
			Message          string   `json:"message,omitempty"`
			OffendingNodeIDs []string `json:"offendingNodeIds"`
			Disconnected     []string `json:"disconnected"`
			EmptyContent     []string `json:"emptyContent"`
		}{verdict.Valid, verdict.Message, ids(verdict.OffendingNodeIDs), ids(verdict.Disconnected), ids(verdict.EmptyContent)}); err != nil {
			return err
		}
	} else if verdict.Valid {
		fmt.Fprintf(out, "ok: %d nodes, %d edges\n", len(nodes), len(edges))
	} else {
		fmt.Fprintln(out, verdict.Message)
		if len(verdict.Disconnected) > 0 {
			fmt.Fprintf(out, "  not connected: %s\n", strings.Join(ids(verdict.Disconnected), ", "))
		}
		if len(verdict.EmptyContent) > 0 {
			fmt.Fprintf(out, "  empty text:    %s\n", strings.Join(ids(verdict.EmptyContent), ", "))
		}
	}

	if !verdict.Valid {
		return errInvalidFlow
	}
	return nil
}

func ids(in []valueobjects.NodeID) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, id.String())
	}
	return out
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
