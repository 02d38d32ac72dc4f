package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"occucalc/internal/rooms"
)

func roomsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List or create rooms on a remote occucalc server",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := rooms.NewClient(a.cfg.Rooms.BaseURL, nil)
			if err != nil {
				return err
			}
			all, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tROOM NAME\tAREA\tCREATED")
			for _, r := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.RoomName, strconv.FormatFloat(r.Area, 'f', -1, 64), r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	var in rooms.Input
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := rooms.NewClient(a.cfg.Rooms.BaseURL, nil)
			if err != nil {
				return err
			}
			room, err := client.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created room %s\n", room.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.RoomName, "name", "", "room name")
	create.Flags().Float64Var(&in.Area, "area", 0, "area in m²")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(list, create)
	return cmd
}
