package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, sign in and sign out",
	}

	cmd.AddCommand(
		newAuthRegisterCmd(app),
		newAuthSignInCmd(app),
		newAuthSignOutCmd(app),
		newAuthWhoAmICmd(app),
	)

	return cmd
}

func newAuthRegisterCmd(app *app) *cobra.Command {
	var (
		email       string
		displayName string
		secret      string
		secretStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveSecret(cmd.InOrStdin(), secret, secretStdin)
			if err != nil {
				return err
			}

			user, err := app.sessions.Register(cmd.Context(), domain.Profile{
				Email:       email,
				DisplayName: displayName,
				Secret:      resolved,
			})
			if err != nil {
				return err
			}

			return writeSignedIn(cmd, app, user)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	cmd.Flags().StringVar(&secret, "secret", "", "Secret (prefer --secret-stdin)")
	cmd.Flags().BoolVar(&secretStdin, "secret-stdin", false, "Read the secret from the first line of stdin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newAuthSignInCmd(app *app) *cobra.Command {
	var (
		email       string
		secret      string
		secretStdin bool
	)

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveSecret(cmd.InOrStdin(), secret, secretStdin)
			if err != nil {
				return err
			}

			user, err := app.sessions.SignIn(cmd.Context(), domain.Credentials{ID: email, Secret: resolved})
			if err != nil {
				return err
			}

			return writeSignedIn(cmd, app, user)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&secret, "secret", "", "Secret (prefer --secret-stdin)")
	cmd.Flags().BoolVar(&secretStdin, "secret-stdin", false, "Read the secret from the first line of stdin")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthSignOutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.SignOut(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return err
		},
	}
}

func newAuthWhoAmICmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := app.sessions.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				session, err := app.sessions.Session(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), sessionJSON(session))
			}

			if user == nil {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\t%s\n", user.DisplayName, user.Email, user.ID)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

type sessionOutput struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"user_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	DisplayName   string     `json:"display_name,omitempty"`
	SessionStart  *time.Time `json:"session_start,omitempty"`
	LastActivity  *time.Time `json:"last_activity,omitempty"`
}

func sessionJSON(session domain.Session) sessionOutput {
	if !session.Authenticated || session.User == nil {
		return sessionOutput{}
	}

	start, last := session.SessionStart, session.LastActivity
	return sessionOutput{
		Authenticated: true,
		UserID:        string(session.User.ID),
		Email:         session.User.Email,
		DisplayName:   session.User.DisplayName,
		SessionStart:  &start,
		LastActivity:  &last,
	}
}

func writeSignedIn(cmd *cobra.Command, app *app, user domain.User) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s <%s>\t%s balance %d\n",
		user.DisplayName, user.Email, domain.TokenTypeInfinity.Label(), app.ledger.GetBalance(domain.TokenTypeInfinity))
	return err
}

func resolveSecret(stdin io.Reader, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		return flagValue, nil
	}
	if flagValue != "" {
		return "", fmt.Errorf("--secret and --secret-stdin are mutually exclusive")
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read secret from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
