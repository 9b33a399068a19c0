package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/services/account"
)

func newSignUpCmd() *cobra.Command {
	var email, password, displayName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and provision its profile, settings, and device",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Account.SignUp(cmd.Context(), email, password, displayName)
			if err != nil {
				if errors.Is(err, account.ErrAccountCreationFailed) {
					printf("account creation failed; sign-up was rolled back, try again later")
				}
				return err
			}
			printf("signed up as %s (user %s)", session.Email, session.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name for the profile")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newSignInCmd() *cobra.Command {
	var email, password, oauthURL string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with credentials or an OAuth return URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *account.SignInResult
			var err error
			if oauthURL != "" {
				result, err = app.Account.CompleteOAuth(cmd.Context(), oauthURL)
			} else {
				if email == "" || password == "" {
					return fmt.Errorf("either --oauth-url or both --email and --password are required")
				}
				result, err = app.Account.SignIn(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}
			return reportSignIn(result)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&oauthURL, "oauth-url", "", "OAuth return URL carrying the token pair")

	return cmd
}

func newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Invalidate the session remotely and clear the local copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Account.SignOut(cmd.Context()); err != nil {
				return err
			}
			printf("signed out")
			return nil
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Replay a sign-in suspended by the device limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Account.ResumePendingAuth(cmd.Context())
			if err != nil {
				if errors.Is(err, account.ErrNoPendingAuth) {
					printf("no suspended sign-in to resume")
					return nil
				}
				return err
			}
			return reportSignIn(result)
		},
	}
}

func reportSignIn(result *account.SignInResult) error {
	if result.Suspended {
		printf("sign-in suspended: device limit reached")
		printf("remove a device (courtsync devices remove <id>), then run: courtsync resume")
		return printJSON(result.Devices)
	}
	printf("signed in as %s (user %s)", result.Session.Email, result.Session.UserID)
	return nil
}

// currentUser loads the persisted session or fails with a sign-in hint
func currentUser(cmd *cobra.Command) (*model.AuthSession, error) {
	session, err := app.Account.Session(cmd.Context())
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, fmt.Errorf("not signed in; run: courtsync signin")
		}
		return nil, err
	}
	return session, nil
}
