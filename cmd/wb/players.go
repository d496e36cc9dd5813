package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wbtracker/internal/app"
	"wbtracker/internal/domain"
	"wbtracker/internal/events"
)

func playersCmd() *cobra.Command {
	pl := &cobra.Command{Use: "players", Short: "Inspect and moderate player statistics"}
	pl.AddCommand(playersListCmd())
	pl.AddCommand(playersShowCmd())
	pl.AddCommand(playersSetCmd("set-rsn", "Set a player's in-game name", func(ctx context.Context, rt *app.Runtime, who domain.Reporter, v string) (domain.Player, error) {
		return rt.Engine.SetRSN(ctx, who, v)
	}))
	pl.AddCommand(playersSetCmd("set-clan", "Set a player's clan", func(ctx context.Context, rt *app.Runtime, who domain.Reporter, v string) (domain.Player, error) {
		return rt.Engine.SetClan(ctx, who, v)
	}))
	pl.AddCommand(playersSetCmd("set-notes", "Replace a player's moderator notes", func(ctx context.Context, rt *app.Runtime, who domain.Reporter, v string) (domain.Player, error) {
		return rt.Engine.SetNotes(ctx, who, v)
	}))
	pl.AddCommand(playersRecordCmd("warn", "Record a warning", func(ctx context.Context, rt *app.Runtime, id string) (domain.Player, error) {
		return rt.Engine.Warn(ctx, id)
	}))
	pl.AddCommand(playersRecordCmd("suspend", "Record a suspension", func(ctx context.Context, rt *app.Runtime, id string) (domain.Player, error) {
		return rt.Engine.Suspend(ctx, id)
	}))
	return pl
}

func playersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List players by participation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				players, err := rt.Engine.Repo.ListPlayers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(players)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Username", "RSN", "Clan", "Events", "Time", "Worlds", "Warnings", "Suspensions"})
				for _, p := range players {
					tw.AppendRow(table.Row{
						p.ID, p.Username, p.RSN, p.Clan, p.TotalEvents,
						(time.Duration(p.EventSeconds) * time.Second).String(),
						p.WorldsReported, p.Warnings, p.Suspensions,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func playersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p, err := rt.Engine.Repo.GetPlayer(ctx, args[0])
				if err != nil {
					return fmt.Errorf("player %s: %w", args[0], err)
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func playersSetCmd(use, short string, apply func(context.Context, *app.Runtime, domain.Reporter, string) (domain.Player, error)) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   use + " <id> <value>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p, err := apply(ctx, rt, domain.Reporter{ID: args[0], Username: username}, args[1])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username to register if the player is new")
	return cmd
}

func playersRecordCmd(use, short string, apply func(context.Context, *app.Runtime, string) (domain.Player, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				p, err := apply(ctx, rt, args[0])
				if err != nil {
					return fmt.Errorf("player %s: %w", args[0], err)
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func journalCmd() *cobra.Command {
	j := &cobra.Command{Use: "journal", Short: "Read the report journal"}
	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print the latest journaled reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := events.Files(app.JournalDir(viper.GetString("workspace")))
			if err != nil {
				return err
			}
			var entries []events.Entry
			for _, f := range files {
				if err := events.Read(f, func(e events.Entry) error {
					entries = append(entries, e)
					return nil
				}); err != nil {
					return fmt.Errorf("%s: %w", f, err)
				}
			}
			if n > 0 && len(entries) > n {
				entries = entries[len(entries)-n:]
			}
			if viper.GetBool("json") {
				return printJSON(entries)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"At", "Reporter", "Outcome", "Line"})
			for _, e := range entries {
				tw.AppendRow(table.Row{e.At.UTC().Format(time.RFC3339), e.Reporter.DisplayName(), e.Outcome, e.Line})
			}
			tw.Render()
			return nil
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of entries")
	j.AddCommand(tail)
	return j
}
