package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pathlight-web/internal/session"
)

func newWatchCommand(app *App) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the session and report when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = app.Container.GetConfig().SessionCheckInterval
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			recheck := make(chan struct{})
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-hup:
						select {
						case recheck <- struct{}{}:
						case <-ctx.Done():
							return
						}
					}
				}
			}()
			return app.watch(ctx, interval, recheck)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "how often to re-check the session (default from SESSION_CHECK_INTERVAL)")
	return cmd
}

// watch runs the session monitor until the session ends or ctx is done.
// Each value on recheck triggers an immediate check (SIGHUP from the shell).
func (a *App) watch(ctx context.Context, interval time.Duration, recheck <-chan struct{}) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var expired bool
	m := session.NewMonitor(a.Container.Guard, a.Store, interval, func(d session.Decision) {
		expired = true
		if d.Cleared {
			a.printf("Session expired, sign in again\n")
		} else {
			a.printf("Not signed in\n")
		}
		cancel()
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-recheck:
				m.Revalidate()
			}
		}
	}()

	a.printf("Watching session every %s\n", interval)
	m.Run(ctx)

	if expired {
		return ErrNotSignedIn
	}
	return nil
}
