package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	walletrender "github.com/bnema/tokenwallet/internal/adapters/render/wallet"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 10

func newBalanceCmd(app *app) *cobra.Command {
	var (
		rawType string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show token balances and recent activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rawType != "" {
				tokenType, err := domain.ParseTokenType(rawType)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), app.ledger.GetBalance(tokenType))
				return err
			}

			balances := app.ledger.GetAllBalances()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), balancesJSON(balances))
			}

			user, err := app.sessions.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			rendered, err := app.render(walletrender.Snapshot{
				User:     user,
				Balances: balances,
				History:  app.ledger.History(defaultHistoryLimit),
				Now:      app.clock.Now(),
			})
			if err != nil {
				return fmt.Errorf("render wallet: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&rawType, "type", "", "Print only this token type's balance")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newHistoryCmd(app *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			history := app.ledger.History(limit)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), history)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), walletrender.History(history, app.clock.Now()))
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Maximum number of transactions (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newLedgerCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the token log",
	}

	cmd.AddCommand(newLedgerVerifyCmd(app))

	return cmd
}

func newLedgerVerifyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Replay the token log and compare it with the cached balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			drift := app.ledger.Replay()
			tokens := len(app.ledger.GetAll(0))
			if len(drift) == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "ledger ok: %d tokens replayed\n", tokens)
				return err
			}

			types := make([]domain.TokenType, 0, len(drift))
			for tokenType := range drift {
				types = append(types, tokenType)
			}
			sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
			for _, tokenType := range types {
				pair := drift[tokenType]
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tcached %d\treplayed %d\n", tokenType.Label(), pair[0], pair[1])
			}
			return fmt.Errorf("ledger drift in %d token types", len(drift))
		},
	}
}

func balancesJSON(balances domain.Balances) map[string]int64 {
	out := make(map[string]int64, len(balances))
	for tokenType, amount := range balances {
		out[string(tokenType)] = amount
	}
	return out
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
