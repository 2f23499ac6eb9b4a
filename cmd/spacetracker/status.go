package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rpggio/spacetracker/internal/agent"
	"github.com/rpggio/spacetracker/internal/domain/registry"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/spf13/cobra"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	liveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	amountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

var statusRecent int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running agent's sessions and the backend reward state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		snap, err := agent.FetchSnapshot(cmd.Context(), nil, "http://"+cfg.Agent.ControlAddr)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("agent unreachable: "+err.Error()))
		} else {
			renderSnapshot(out, snap, statusRecent)
		}

		if cfg.Agent.Token == "" {
			return nil
		}
		view, err := agent.NewBackendClient(cfg.Agent.BackendURL, cfg.Agent.Token, nil).RewardState(cmd.Context())
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("backend unreachable: "+err.Error()))
			return nil
		}
		renderRewards(out, view)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusRecent, "recent", 5, "Number of completed sessions to list")
}

func renderSnapshot(w io.Writer, snap registry.Snapshot, recent int) {
	fmt.Fprintln(w, sectionStyle.Render("Sessions"))
	if snap.Active != nil {
		fmt.Fprintf(w, "%s %s %s\n",
			liveStyle.Render("● live"),
			sessionLabel(snap.Active.Title, snap.Active.Host),
			dimStyle.Render(fmt.Sprintf("since %s", snap.Active.StartTime.Format(time.Kitchen))))
	} else {
		fmt.Fprintln(w, dimStyle.Render("no active space"))
	}

	stats := snap.Stats
	fmt.Fprintf(w, "%d sessions, %.1f min total, %.1f min average, %d eligible\n",
		stats.TotalSessions, stats.TotalDurationMinutes, stats.AverageDurationMinutes, stats.EligibleSessions)

	start := len(snap.Completed) - recent
	if start < 0 {
		start = 0
	}
	for i := len(snap.Completed) - 1; i >= start; i-- {
		s := snap.Completed[i]
		fmt.Fprintf(w, "  %s %s %s\n",
			sessionLabel(s.Title, s.Host),
			fmt.Sprintf("%.1f min", s.DurationMinutes),
			dimStyle.Render(string(s.EndReason)))
	}

	granted := 0
	for _, o := range snap.Rewards {
		if o.Granted {
			granted += o.Amount
		}
	}
	if len(snap.Rewards) > 0 {
		fmt.Fprintf(w, "%d submissions, %s points granted\n", len(snap.Rewards), amountStyle.Render(fmt.Sprint(granted)))
	}
	fmt.Fprintln(w)
}

func renderRewards(w io.Writer, view reward.StateView) {
	fmt.Fprintln(w, sectionStyle.Render("Rewards"))
	fmt.Fprintf(w, "total %s, today %d/%d (%d left), streak %d\n",
		amountStyle.Render(fmt.Sprint(view.TotalAccumulated)),
		view.DailyEarned, view.DailyCap, view.RemainingCap, view.CurrentStreak)
	if view.LastRewardDate != nil {
		fmt.Fprintln(w, dimStyle.Render("last reward "+string(*view.LastRewardDate)))
	}
}

func sessionLabel(title, host string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled"
	}
	if host == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, host)
}
