package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/derek2403/token2049/chain"
	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/intent"
)

var balanceWallet string

var contactsCmd = &cobra.Command{
	Use:   "contacts [query]",
	Short: "List or search the contact directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runContacts,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show CELO, cUSD and cEUR balances for a wallet",
	RunE:  runBalance,
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceWallet, "wallet", "w", "", "wallet address")
	_ = balanceCmd.MarkFlagRequired("wallet")
}

func runContacts(cmd *cobra.Command, args []string) error {
	dir, err := newDirectory(cfg.ContactsFile)
	if err != nil {
		return err
	}
	query := ""
	if len(args) == 1 {
		query = strings.TrimSpace(args[0])
	}

	contacts := dir.Search(query)
	out := cmd.OutOrStdout()
	if len(contacts) == 0 {
		fmt.Fprintln(out, "No contacts found.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPHONE\tWALLET")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Phone, c.Wallet)
	}
	return tw.Flush()
}

func runBalance(cmd *cobra.Command, args []string) error {
	if !intent.IsAddress(balanceWallet) {
		return errors.Wrapf(core.ErrValidation, "invalid wallet address %q", balanceWallet)
	}
	ctx := cmd.Context()
	client, err := chain.Dial(ctx, logger, cfg.Chain.RPCURLs...)
	if err != nil {
		return err
	}
	defer client.Close()

	balances, err := chain.NewBalanceReader(client, cfg.Chain.ChainID).Balances(ctx, balanceWallet)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s on %s\n", balanceWallet, core.ChainName(cfg.Chain.ChainID))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, b := range balances {
		fmt.Fprintf(tw, "%s\t%s\n", b.Token, b.Amount)
	}
	return tw.Flush()
}
