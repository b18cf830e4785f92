package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foxfolio/portfolio-api/internal/repository/postgres"
	"github.com/foxfolio/portfolio-api/internal/service/auth"
	"github.com/foxfolio/portfolio-api/internal/service/credential"
)

func (a *app) authService(db *sql.DB) *auth.Service {
	return auth.NewService(
		postgres.NewPrincipalRepo(db),
		credential.NewStore(postgres.NewCredentialRepo(db)),
		a.cfg.Auth.TokenLifetime(),
	)
}

func newCreateAdminCmd(a *app) *cobra.Command {
	var username, email, password string
	var superuser bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account that can publish broadcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			return a.withDB(func(db *sql.DB) error {
				p, err := a.authService(db).CreatePrincipal(cmd.Context(), username, email, password, true, superuser)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created staff account %q (id %d).\n", p.Username, p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&email, "email", "", "contact address")
	cmd.Flags().StringVar(&password, "password", "", "initial password (required)")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant superuser rights")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newSetPasswordCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Reset an account password and revoke its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			return a.withDB(func(db *sql.DB) error {
				if err := a.authService(db).SetPassword(cmd.Context(), username, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q.\n", username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&password, "password", "", "new password (required)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
