package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/domain"
	"pathlight-web/internal/session"
)

func newSignInCommand(app *App) *cobra.Command {
	var remember bool

	cmd := &cobra.Command{
		Use:   "signin [email]",
		Short: "Sign in with email and password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var email string
			if len(args) == 1 {
				email = args[0]
			} else {
				var err error
				if email, err = app.prompt("Email"); err != nil {
					return err
				}
			}
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("email is required")
			}

			password, err := app.password()
			if err != nil {
				return err
			}
			return app.signIn(cmd.Context(), domain.SignInRequest{Email: email, Password: password}, remember)
		},
	}
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the session on disk across runs")
	return cmd
}

func (a *App) signIn(ctx context.Context, req domain.SignInRequest, remember bool) error {
	log := a.Container.GetLogger()

	env := a.Container.API.SignIn(ctx, req)
	if !env.OK() {
		return errors.New(apiclient.UserMessage(apiclient.CallSignIn, env))
	}
	tok, ok := apiclient.AccessToken(env)
	if !ok {
		log.Warn("Sign-in succeeded without a token in the response")
		return errors.New(apiclient.UserMessage(apiclient.CallSignIn, &apiclient.Envelope{Status: env.Status, Error: "missing access token"}))
	}
	if err := a.Store.SetToken(tok, remember); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	if remember {
		a.printf("Signed in as %s\n", req.Email)
	} else {
		a.printf("Signed in as %s (this run only, use --remember to stay signed in)\n", req.Email)
	}
	return nil
}

func newSignOutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tok, ok := app.Store.GetToken(); ok {
				app.Container.Dashboard.Invalidate(cmd.Context(), tok)
			}
			if err := app.Store.RemoveToken(); err != nil {
				return fmt.Errorf("removing token: %w", err)
			}
			app.printf("Signed out\n")
			return nil
		},
	}
}

func newWhoAmICommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := app.Container.Guard.Check(app.Store)
			if d.State != session.StateAuthenticated {
				if d.Cleared {
					app.printf("Session expired\n")
				}
				return ErrNotSignedIn
			}

			env := app.Container.API.For(app.Store).Me(cmd.Context())
			if env.Unauthorized() {
				app.Container.Guard.HandleUnauthorized(app.Store)
				return ErrNotSignedIn
			}
			if !env.OK() {
				return errors.New(apiclient.UserMessage(apiclient.CallProfile, env))
			}

			var user domain.User
			if err := env.Decode(&user); err != nil {
				return fmt.Errorf("decoding profile: %w", err)
			}

			app.printf("Email:      %s\n", user.Email)
			if user.FullName != "" {
				app.printf("Name:       %s\n", user.FullName)
			}
			app.printf("Verified:   %t\n", user.EmailVerified)
			app.printf("Token:      %s\n", d.TokenStatus)
			app.printf("Remembered: %t\n", app.Store.IsRemembered())
			return nil
		},
	}
}
