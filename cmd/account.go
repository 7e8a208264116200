package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ProjectApnapan/apnapan-pulse/internal/account"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage school accounts",
}

// -- account create --

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a school",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("accounts"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc, _, err := initAccounts(ctx, st)
		if err != nil {
			return err
		}

		id, _ := cmd.Flags().GetString("school-id")
		password, _ := cmd.Flags().GetString("password")
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		logoPath, _ := cmd.Flags().GetString("logo")

		req := account.CreateRequest{
			SchoolID:   id,
			Password:   password,
			Email:      email,
			SchoolName: name,
		}
		if logoPath != "" {
			req.Logo, err = os.ReadFile(logoPath)
			if err != nil {
				return eris.Wrap(err, "read logo")
			}
			req.LogoName = logoPath
		}

		if err := svc.Create(ctx, req); err != nil {
			return eris.Wrap(err, "account create")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account %s created.\n", id)
		return nil
	},
}

// -- account reset-password --

var accountResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset a school's password after confirming its email",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("accounts"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc, _, err := initAccounts(ctx, st)
		if err != nil {
			return err
		}

		id, _ := cmd.Flags().GetString("school-id")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if err := svc.VerifyReset(ctx, id, email); err != nil {
			return eris.Wrap(err, "account reset-password")
		}
		if err := svc.ResetPassword(ctx, id, password); err != nil {
			return eris.Wrap(err, "account reset-password")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Password for %s updated.\n", id)
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().String("school-id", "", "school ID (required)")
	accountCreateCmd.Flags().String("password", "", "password (required)")
	accountCreateCmd.Flags().String("email", "", "contact email used for password resets")
	accountCreateCmd.Flags().String("name", "", "school name (required)")
	accountCreateCmd.Flags().String("logo", "", "school logo image")
	_ = accountCreateCmd.MarkFlagRequired("school-id")
	_ = accountCreateCmd.MarkFlagRequired("password")
	_ = accountCreateCmd.MarkFlagRequired("name")

	accountResetCmd.Flags().String("school-id", "", "school ID (required)")
	accountResetCmd.Flags().String("email", "", "registered email (required)")
	accountResetCmd.Flags().String("password", "", "new password (required)")
	_ = accountResetCmd.MarkFlagRequired("school-id")
	_ = accountResetCmd.MarkFlagRequired("email")
	_ = accountResetCmd.MarkFlagRequired("password")

	accountCmd.AddCommand(accountCreateCmd, accountResetCmd)
	rootCmd.AddCommand(accountCmd)
}
