package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/spf13/cobra"
)

const defaultTokenSource = "cli"

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create, spend and clear tokens",
	}

	cmd.AddCommand(
		newTokenCreateCmd(app),
		newTokenSpendCmd(app),
		newTokenClearCmd(app),
	)

	return cmd
}

func newTokenCreateCmd(app *app) *cobra.Command {
	var (
		rawType     string
		amount      int64
		source      string
		description string
		metadata    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Append a token to the ledger",
		Long:  "Append a token to the ledger. Positive amounts credit the balance; negative amounts record a debit without a balance check.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokenType, err := domain.ParseTokenType(rawType)
			if err != nil {
				return err
			}

			token, err := app.ledger.CreateToken(cmd.Context(), tokenType, amount, source, description, metadata)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s\t%s\t%+d\tbalance %d\n",
				token.ID, token.Type.Label(), token.Amount, app.ledger.GetBalance(token.Type))
			return err
		},
	}

	cmd.Flags().StringVar(&rawType, "type", "", "Token type (infinity|xp|badge|creator)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Signed token amount")
	cmd.Flags().StringVar(&source, "source", defaultTokenSource, "Origin of the token")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "Metadata key=value pairs")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTokenSpendCmd(app *app) *cobra.Command {
	var (
		rawType     string
		amount      int64
		source      string
		description string
		expected    int64
	)

	cmd := &cobra.Command{
		Use:   "spend",
		Short: "Debit tokens when the balance covers the amount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokenType, err := domain.ParseTokenType(rawType)
			if err != nil {
				return err
			}
			if amount <= 0 {
				return fmt.Errorf("%w: spend amount must be positive", domain.ErrInvalidAmount)
			}

			var spendErr error
			if cmd.Flags().Changed("expect-balance") {
				if expected < amount {
					return fmt.Errorf("%w: expected balance %d does not cover %d", domain.ErrInsufficientBalance, expected, amount)
				}
				_, spendErr = app.ledger.CompareAndAppend(cmd.Context(), tokenType, expected, -amount, source, description, nil)
			} else {
				_, spendErr = app.ledger.Spend(cmd.Context(), tokenType, amount, source, description)
			}

			switch {
			case errors.Is(spendErr, domain.ErrInsufficientBalance):
				return fmt.Errorf("cannot spend %d %s: balance is %d: %w",
					amount, tokenType.Label(), app.ledger.GetBalance(tokenType), spendErr)
			case spendErr != nil:
				return spendErr
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "spent %d %s\tbalance %d\n",
				amount, tokenType.Label(), app.ledger.GetBalance(tokenType))
			return err
		},
	}

	cmd.Flags().StringVar(&rawType, "type", "", "Token type (infinity|xp|badge|creator)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to spend")
	cmd.Flags().StringVar(&source, "source", defaultTokenSource, "Where the tokens are spent")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().Int64Var(&expected, "expect-balance", 0, "Only spend if the balance still equals this value")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTokenClearCmd(app *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase the token log, balances and history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("refusing to clear the ledger without --yes")
			}
			if err := app.ledger.Clear(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "ledger cleared")
			return err
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the reset")

	return cmd
}
