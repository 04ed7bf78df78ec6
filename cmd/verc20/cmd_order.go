package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	verc20 "github.com/verc20dev/verc20-go"
)

// NewOrderCommand groups the market order subcommands.
func NewOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create, take, cancel and list market orders",
	}
	cmd.AddCommand(
		newOrderCreateCommand(),
		newOrderTakeCommand(),
		newOrderCancelCommand(),
		newOrderListCommand(),
	)
	return cmd
}

type orderCreateOptions struct {
	Tick     string
	Bid      bool
	Amount   string
	Price    string
	Duration string
}

func newOrderCreateCommand() *cobra.Command {
	opts := &orderCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "List tokens for sale (ask) or offer to buy (bid)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			amount, ok := new(big.Int).SetString(opts.Amount, 10)
			if !ok {
				return errors.New("amount must be an integer")
			}
			price, err := verc20.EtherToWei(opts.Price)
			if err != nil {
				return err
			}

			signed, err := client.CreateOrder(cmd.Context(), verc20.CreateOrderInput{
				Tick:      opts.Tick,
				Sell:      !opts.Bid,
				Amount:    amount,
				UnitPrice: price,
				Duration:  opts.Duration,
			})
			if err != nil {
				return err
			}
			fmt.Printf("listed %s %s at %s wei each, expires %s\n",
				signed.Order.Amount, signed.Order.Tick, signed.Order.Price,
				time.Unix(signed.Order.ExpirationTime, 0).Format(time.RFC3339))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Tick, "tick", "", "token tick")
	flags.BoolVar(&opts.Bid, "bid", false, "create a bid instead of an ask")
	flags.StringVar(&opts.Amount, "amount", "", "amount in whole tokens")
	flags.StringVar(&opts.Price, "price", "", "unit price in ether per token")
	flags.StringVar(&opts.Duration, "duration", "7D", "expiry window: 7D, 14D or 1M")
	cobra.CheckErr(cmd.MarkFlagRequired("tick"))
	cobra.CheckErr(cmd.MarkFlagRequired("amount"))
	cobra.CheckErr(cmd.MarkFlagRequired("price"))

	return cmd
}

// findOrder scans the open-order pages for an id. The indexer has no
// by-id endpoint, so the CLI pages through the listing.
func findOrder(ctx context.Context, client *verc20.Client, id int64) (*verc20.Order, error) {
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		list, err := client.Indexer().GetOrders(ctx, verc20.OrderQuery{
			PageQuery: verc20.PageQuery{Offset: offset, Limit: pageSize},
		})
		if err != nil {
			return nil, err
		}
		order, found := lo.Find(list.Data, func(o verc20.Order) bool {
			return o.ID == id
		})
		if found {
			return &order, nil
		}
		if offset+len(list.Data) >= list.Total || len(list.Data) == 0 {
			return nil, errors.Newf("order %d not found", id)
		}
	}
}

func newOrderTakeCommand() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Settle an open order as the counterparty",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			order, err := findOrder(cmd.Context(), client, id)
			if err != nil {
				return err
			}
			txHash, err := client.TakeOrder(cmd.Context(), order)
			if err != nil {
				return err
			}
			fmt.Println(txHash)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "order id")
	cobra.CheckErr(cmd.MarkFlagRequired("id"))

	return cmd
}

func newOrderCancelCommand() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel one of your open orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			order, err := findOrder(cmd.Context(), client, id)
			if err != nil {
				return err
			}
			txHash, err := client.CancelOrder(cmd.Context(), order)
			if err != nil {
				return err
			}
			fmt.Println(txHash)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "order id")
	cobra.CheckErr(cmd.MarkFlagRequired("id"))

	return cmd
}

func newOrderListCommand() *cobra.Command {
	var tick, owner, orderType string
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			list, err := client.Indexer().GetOrders(cmd.Context(), verc20.OrderQuery{
				PageQuery: verc20.PageQuery{Offset: offset, Limit: limit},
				Tick:      tick,
				Owner:     owner,
				Type:      orderType,
			})
			if err != nil {
				return err
			}

			now := time.Now().Unix()
			for _, order := range list.Data {
				side := "ask"
				if !order.Sell {
					side = "bid"
				}
				status := ""
				if order.Expired(now) {
					status = "\t(expired)"
				}
				price, ok := new(big.Int).SetString(order.UnitPrice, 10)
				display := order.UnitPrice
				if ok {
					display = verc20.FormatUnitPrice(price)
				}
				fmt.Printf("#%d\t%s\t%s\t%s @ %s ETH%s\n",
					order.ID, side, order.Tick, order.Quantity, display, status)
			}
			fmt.Printf("total: %d\n", list.Total)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&tick, "tick", "", "filter by tick")
	flags.StringVar(&owner, "owner", "", "filter by owner address")
	flags.StringVar(&orderType, "type", "", `filter by side, "ask" or "bid"`)
	flags.IntVar(&offset, "offset", 0, "pagination offset")
	flags.IntVar(&limit, "limit", 20, "page size")

	return cmd
}
