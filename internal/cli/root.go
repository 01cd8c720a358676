package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrNotSignedIn is returned by commands that need a live session
var ErrNotSignedIn = errors.New("not signed in")

// NewRootCommand wires every subcommand to app
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "pathlight",
		Short:         "Pathlight terminal client",
		Long:          `Sign in to Pathlight, check your session and view your learning dashboard from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.openStore()
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Out)

	root.AddCommand(
		newSignInCommand(app),
		newSignOutCommand(app),
		newWhoAmICommand(app),
		newDashboardCommand(app),
		newWatchCommand(app),
	)
	return root
}

// Run executes the command line in args and closes the session file whether
// or not the command succeeded
func (a *App) Run(args []string) error {
	root := NewRootCommand(a)
	root.SetArgs(args)
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
