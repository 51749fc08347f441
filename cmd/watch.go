package cmd

import (
	"context"
	"errors"
	"time"

	walletrender "github.com/bnema/tokenwallet/internal/adapters/render/wallet"
	"github.com/bnema/tokenwallet/internal/application"
	"github.com/bnema/tokenwallet/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live wallet view that follows changes from other tw processes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			user, err := app.sessions.CurrentUser(ctx)
			if err != nil {
				return err
			}

			p := tea.NewProgram(
				walletrender.NewModel(app.ledger, app.clock, user, defaultHistoryLimit),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)

			unsubscribe := app.bus.Subscribe(application.Handlers{
				OnTokenCreated:  func(token domain.Token) { p.Send(walletrender.TokenCreatedMsg{Token: token}) },
				OnTokensCleared: func() { p.Send(walletrender.TokensClearedMsg{}) },
				OnLoginChanged:  func(user *domain.User) { p.Send(walletrender.LoginChangedMsg{User: user}) },
			})
			defer unsubscribe()

			if err := app.broadcaster.Start(ctx); err != nil {
				return err
			}
			defer app.broadcaster.Stop()

			if _, err := p.Run(); err != nil {
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "for", 0, "Exit after this long (0 runs until q)")

	return cmd
}
