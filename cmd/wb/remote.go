package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	wbsdk "wbtracker/sdk/go"
)

func remoteCmd() *cobra.Command {
	r := &cobra.Command{
		Use:   "remote",
		Short: "Query a running wb serve over HTTP",
	}
	r.PersistentFlags().String("url", "http://127.0.0.1:8787", "API base url")
	r.PersistentFlags().String("token", "", "bearer token")
	_ = viper.BindPFlag("url", r.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("token", r.PersistentFlags().Lookup("token"))

	var resource string
	list := &cobra.Command{
		Use:   "list",
		Short: "Grouped world list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("json") {
				worlds, err := remoteClient().Worlds(cmd.Context(), resource)
				if err != nil {
					return err
				}
				return printJSON(worlds)
			}
			out, err := remoteClient().List(cmd.Context(), resource)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	list.Flags().StringVar(&resource, "resource", "", "only worlds with this supply (name or letter)")

	table := &cobra.Command{
		Use:   "table",
		Short: "Resource by location matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := remoteClient().Table(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	timelist := &cobra.Command{
		Use:   "timelist",
		Short: "Live countdown table",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := remoteClient().Timelist(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	var reporterID, username, originID string
	report := &cobra.Command{
		Use:   "report <line>",
		Short: "Submit a chat line as a world report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := remoteClient().SubmitReport(cmd.Context(), strings.Join(args, " "),
				wbsdk.Reporter{ID: reporterID, Username: username},
				wbsdk.Origin{ID: originID})
			if err != nil {
				return err
			}
			return printJSONOrTable(res)
		},
	}
	report.Flags().StringVar(&reporterID, "reporter-id", "cli", "reporter id")
	report.Flags().StringVar(&username, "username", "cli", "reporter username")
	report.Flags().StringVar(&originID, "origin", "cli", "origin id")

	var zone string
	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Weekly schedule from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := remoteClient().Schedule(cmd.Context(), zone)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(s)
			}
			fmt.Println(s.Text)
			return nil
		},
	}
	schedule.Flags().StringVar(&zone, "zone", "br", "display zone: br or utc")

	r.AddCommand(list, table, timelist, report, schedule)
	return r
}

func remoteClient() *wbsdk.Client {
	c := wbsdk.New(viper.GetString("url"))
	c.BearerToken = viper.GetString("token")
	return c
}
