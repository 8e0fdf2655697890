package main

import (
	"fmt"
	"os"

	"meetroom/backend/internal/config"
	"meetroom/backend/internal/identity"
	"meetroom/backend/internal/logger"
	"meetroom/backend/internal/presence"
	"meetroom/backend/internal/room"
	"meetroom/backend/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "meetctl",
		Short:         "Inspect meetroom links, identity and presence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.Init(logger.Config{Service: "meetctl", Env: logger.EnvDev, Output: cmd.ErrOrStderr()})
		},
	}
	root.AddCommand(newRoomCmd(), newWhoamiCmd(), newLogoutCmd(), newPresenceCmd())
	return root
}

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "room", Short: "Room link helpers"}

	var baseURL string
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a room id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := room.NewRoomID()
			fmt.Fprintln(cmd.OutOrStdout(), id)
			fmt.Fprintln(cmd.OutOrStdout(), room.Fragment(id))
			if baseURL != "" {
				link, err := room.Link(baseURL, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), link)
			}
			return nil
		},
	}
	newCmd.Flags().StringVar(&baseURL, "base-url", "", "print the full link under this URL")

	parseCmd := &cobra.Command{
		Use:   "parse <code-or-link>",
		Short: "Extract the room id from a code or a pasted link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := room.ParseRoomInput(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.AddCommand(newCmd, parseCmd)
	return cmd
}

func openIdentity() (*identity.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.OpenDatabase(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return identity.NewStore(storage.NewStorageService(db, nil)), closeDB, nil
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeDB, err := openIdentity()
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := store.Restore(ctx)
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeDB, err := openIdentity()
			if err != nil {
				return err
			}
			defer closeDB()
			return store.Logout(ctx)
		},
	}
}

func newPresenceCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "presence", Short: "Inspect the shared participant roster"}
	cmd.AddCommand(&cobra.Command{
		Use:   "count <roomId>",
		Short: "Print the participant count shown in the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			if rdb == nil {
				return errors.New("REDIS_ADDR is not set")
			}
			defer rdb.Close()

			n, err := storage.NewStorageService(nil, rdb).ParticipantCount(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d participant(s) in the roster, %d shown\n", n, presence.DisplayCount(n))
			return nil
		},
	})
	return cmd
}
