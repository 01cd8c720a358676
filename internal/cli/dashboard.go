package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/session"
)

// heatmapGlyphs renders levels 0..4
var heatmapGlyphs = []rune{'·', '░', '▒', '▓', '█'}

func newDashboardCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show your learning dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := app.Container.Guard.Check(app.Store)
			if d.State != session.StateAuthenticated {
				return ErrNotSignedIn
			}
			tok, _ := app.Store.GetToken()

			v, env := app.Container.Dashboard.Load(cmd.Context(), app.Container.API.For(app.Store), tok)
			if v == nil {
				if env.Unauthorized() {
					app.Container.Guard.HandleUnauthorized(app.Store)
					return ErrNotSignedIn
				}
				return errors.New(apiclient.UserMessage(apiclient.CallDashboard, env))
			}

			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			app.renderDashboard(v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the shaped dashboard as JSON")
	return cmd
}

func (a *App) renderDashboard(v *dashboard.View) {
	if v.User != nil {
		name := v.User.FullName
		if name == "" {
			name = v.User.Email
		}
		a.printf("%s\n\n", name)
	}

	a.printf("Courses enrolled: %d\n", v.Stats.CoursesEnrolled)
	a.printf("Quizzes taken:    %d\n", v.Stats.QuizzesTaken)
	a.printf("Average score:    %.1f%%\n", v.Stats.AverageScore)
	a.printf("Streak:           %d days\n", v.Stats.StreakDays)

	if len(v.Courses) > 0 {
		a.printf("\nCourses\n")
		for _, c := range v.Courses {
			a.printf("  %-40s %3.0f%%\n", c.Title, c.Progress)
		}
	}

	a.printf("\n%s", RenderHeatmap(v.Heatmap))
	a.printf("%d activities in the last %d weeks\n", v.Heatmap.Total, len(v.Heatmap.Weeks))
	if v.Cached {
		a.printf("(cached)\n")
	}
}

// RenderHeatmap draws the grid as seven text rows, Sunday first
func RenderHeatmap(hm dashboard.Heatmap) string {
	var b strings.Builder
	for day := 0; day < 7; day++ {
		for _, week := range hm.Weeks {
			if day >= len(week) || week[day].Future {
				b.WriteRune(' ')
				continue
			}
			lvl := week[day].Level
			if lvl < 0 || lvl >= len(heatmapGlyphs) {
				lvl = 0
			}
			b.WriteRune(heatmapGlyphs[lvl])
		}
		b.WriteRune('\n')
	}
	return b.String()
}
