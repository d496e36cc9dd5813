package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wbtracker/internal/app"
	"wbtracker/internal/config"
	"wbtracker/internal/db"
	"wbtracker/internal/engine"
	"wbtracker/internal/migrate"
	"wbtracker/internal/parse"
	"wbtracker/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "wb",
	Short: "World report tracker",
	Long: `wb tracks world reports posted in chat during the scheduled warbands event.
Core concepts:
- Report: one chat line like "24 dwf beamed pk 2:30"; the bot parses world, location, status, supplies, hostiles and countdown.
- Registry: one record per world, merged as reports arrive and cleared before each event.
- Schedule: weekly event times in UTC from wb.yml; the cycle fires 15 minutes before each one.
- Players: participation, reports and moderation history kept in .wb/players.db.
- Journal: every report outcome appended to .wb/journal as compressed JSON lines.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("WB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/wb.yml)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(playersCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(remoteCmd())
	rootCmd.AddCommand(tokenCmd())
}

func initCmd() *cobra.Command {
	var channel string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create wb.yml and the player database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(channel) == "" {
				return fmt.Errorf("--channel required")
			}
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(workspace, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(channel)), 0o644); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			applied, err := migrate.Migrate(cmd.Context(), conn)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"config": path, "db": db.Path(workspace), "migrations": applied})
			}
			fmt.Printf("Wrote %s\n", path)
			fmt.Printf("Player database at %s (%d migrations applied)\n", db.Path(workspace), len(applied))
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "warbands channel id")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing wb.yml")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect wb.yml",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSONOrTable(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate config against the schema and rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadConfig()
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	return cfg
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <line>",
		Short: "Show what the parser extracts from a chat line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			clean := parse.Sanitize(raw)
			rep, ok := parse.Line(raw)
			out := map[string]any{
				"sanitized": clean,
				"admitted":  ok,
			}
			if ok && rep.HasWorld {
				out["report"] = rep
			}
			if viper.GetBool("json") {
				return printJSON(out)
			}
			fmt.Printf("sanitized: %q\n", clean)
			fmt.Printf("admitted:  %v\n", ok)
			if !ok || !rep.HasWorld {
				fmt.Println("ignored")
				return nil
			}
			return printJSONOrTable(rep)
		},
	}
	return cmd
}

func scheduleCmd() *cobra.Command {
	var zone string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the weekly event schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := engine.New(nil, cfg, nil)
			if err != nil {
				return err
			}
			offset := e.DisplayOffset()
			switch strings.ToLower(zone) {
			case "", "br":
			case "utc":
				offset = 0
			default:
				return fmt.Errorf("unknown zone %q (use br or utc)", zone)
			}
			fmt.Println(e.ScheduleText(offset))
			return nil
		},
	}
	cmd.Flags().StringVar(&zone, "zone", "br", "display zone: br or utc")
	return cmd
}

func tokenCmd() *cobra.Command {
	var subject string
	var admin bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := setting(cmd, "jwt-secret", "")
			if secret == "" {
				if cfg, err := loadConfig(); err == nil {
					secret = cfg.API.JWTSecret
				}
			}
			var roles []string
			if admin {
				roles = append(roles, server.AdminRole)
			}
			token, err := server.SignToken(secret, subject, roles)
			if err != nil {
				return fmt.Errorf("%w (set WB_JWT_SECRET or api.jwt_secret)", err)
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().String("jwt-secret", "", "signing secret")
	return cmd
}

// setting prefers an explicit flag, then the WB_* environment, then fallback.
func setting(cmd *cobra.Command, name, fallback string) string {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := viper.GetString(name); v != "" {
		return v
	}
	return fallback
}

func loadConfig() (*config.Config, error) {
	return app.LoadConfig(viper.GetString("workspace"), viper.GetString("config"))
}

func withRuntime(ctx context.Context, fn func(context.Context, *app.Runtime) error) error {
	rt, err := app.Open(ctx, viper.GetString("workspace"), app.Options{ConfigPath: viper.GetString("config")})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
