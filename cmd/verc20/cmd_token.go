package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	verc20 "github.com/verc20dev/verc20-go"
)

type deployOptions struct {
	Tick       string
	Type       string
	Supply     string
	Decimals   string
	Limit      string
	StartBlock string
	Duration   string
}

func optional(s string) verc20.Optional[string] {
	if s == "" {
		return verc20.Absent[string]()
	}
	return verc20.Some(s)
}

// NewDeployCommand deploys a new token.
func NewDeployCommand() *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new vERC-20 token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			txHash, err := client.Deploy(cmd.Context(), verc20.DeployInput{
				Tick:        opts.Tick,
				Type:        verc20.TokenType(opts.Type),
				TotalSupply: optional(opts.Supply),
				Decimals:    optional(opts.Decimals),
				Limit:       optional(opts.Limit),
				StartBlock:  optional(opts.StartBlock),
				Duration:    optional(opts.Duration),
			})
			if err != nil {
				return err
			}
			fmt.Println(txHash)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Tick, "tick", "", "token tick")
	flags.StringVar(&opts.Type, "type", "normal", `token type, "normal" or "fair"`)
	flags.StringVar(&opts.Supply, "supply", "", "total supply (normal tokens)")
	flags.StringVar(&opts.Decimals, "decimals", "", "decimals, 0-18 (default 18)")
	flags.StringVar(&opts.Limit, "limit", "", "per-mint limit")
	flags.StringVar(&opts.StartBlock, "start-block", "", "block minting opens at")
	flags.StringVar(&opts.Duration, "duration", "", "mint window in blocks (fair tokens)")
	cobra.CheckErr(cmd.MarkFlagRequired("tick"))

	return cmd
}

// NewMintCommand mints from an open deployment.
func NewMintCommand() *cobra.Command {
	var tick, amount string

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			txHash, err := client.Mint(cmd.Context(), tick, amount)
			if err != nil {
				return err
			}
			fmt.Println(txHash)
			return nil
		},
	}

	cmd.Flags().StringVar(&tick, "tick", "", "token tick")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to mint")
	cobra.CheckErr(cmd.MarkFlagRequired("tick"))
	cobra.CheckErr(cmd.MarkFlagRequired("amount"))

	return cmd
}

// NewTransferCommand transfers tokens to another address.
func NewTransferCommand() *cobra.Command {
	var tick, amount, to string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer tokens to an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			txHash, err := client.Transfer(cmd.Context(), tick, amount, to)
			if err != nil {
				return err
			}
			fmt.Println(txHash)
			return nil
		},
	}

	cmd.Flags().StringVar(&tick, "tick", "", "token tick")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to transfer")
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cobra.CheckErr(cmd.MarkFlagRequired("tick"))
	cobra.CheckErr(cmd.MarkFlagRequired("amount"))
	cobra.CheckErr(cmd.MarkFlagRequired("to"))

	return cmd
}

// NewTokensCommand lists tokens, or shows one token with --tick.
func NewTokensCommand() *cobra.Command {
	var tick string
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List deployed tokens or show one token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if tick != "" {
				token, err := client.Indexer().GetToken(cmd.Context(), tick)
				if err != nil {
					return err
				}
				fmt.Printf("%s\ttype=%s\tsupply=%s\tminted=%s\tholders=%d\n",
					token.Name, token.Type, token.TotalSupply, token.Minted, token.Holders)
				return nil
			}

			list, err := client.Indexer().GetTokens(cmd.Context(), verc20.TokenQuery{
				PageQuery: verc20.PageQuery{Offset: offset, Limit: limit},
			})
			if err != nil {
				return err
			}
			for _, token := range list.Data {
				fmt.Printf("%s\tminted=%s/%s\tholders=%d\n",
					token.Name, token.Minted, token.TotalSupply, token.Holders)
			}
			fmt.Printf("total: %d\n", list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&tick, "tick", "", "show one token")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")

	return cmd
}

// NewBalanceCommand shows the wallet's holdings.
func NewBalanceCommand() *cobra.Command {
	var tick string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the connected wallet's token balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if tick != "" {
				balance, err := client.TokenBalance(cmd.Context(), client.Address(), tick)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", tick, verc20.FormatQuantity(balance))
				return nil
			}

			balances, err := client.Indexer().GetHolderBalances(
				cmd.Context(), client.Address().Hex(), "", verc20.PageQuery{Limit: 100})
			if err != nil {
				return err
			}
			for _, b := range balances.Tokens {
				quantity, ok := new(big.Int).SetString(b.Balance, 10)
				if !ok {
					fmt.Printf("%s\t%s\n", b.Tick, b.Balance)
					continue
				}
				fmt.Printf("%s\t%s\n", b.Tick, verc20.FormatQuantity(quantity))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tick, "tick", "", "restrict to one tick")

	return cmd
}
