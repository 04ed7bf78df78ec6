package main

import (
	"fmt"

	"github.com/spf13/cobra"

	verc20 "github.com/verc20dev/verc20-go"
)

// NewActivitiesCommand shows the market activity feed.
func NewActivitiesCommand() *cobra.Command {
	var tick string
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Show recent market activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			list, err := client.Indexer().GetActivities(cmd.Context(), tick,
				verc20.PageQuery{Offset: offset, Limit: limit})
			if err != nil {
				return err
			}
			for _, act := range list.Data {
				fmt.Printf("%s\t%s\t%s @ %s\ttx=%s\n",
					act.Type, act.Tick, act.Quantity, act.UnitPrice, act.Tx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tick, "tick", "", "filter by tick")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")

	return cmd
}

// NewStatusCommand compares the indexer head with the chain head.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show indexer sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.Indexer().GetStatus(cmd.Context())
			if err != nil {
				return err
			}
			head, err := client.Chain().LatestBlockNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("indexer block: %d\nchain head:    %d\nlag:           %d\n",
				status.LatestImportedBlockNumber, head,
				int64(head)-int64(status.LatestImportedBlockNumber))
			return nil
		},
	}
}
