// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"luxsync/internal/journal"
)

func newJournalCommand(o *options) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "journal [session]",
		Short: "Show recorded sections and force strikes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Journal.Path
			}

			j, err := journal.Open(journal.Options{Dir: dir})
			if err != nil {
				return err
			}
			defer j.Close()

			var session string
			if len(args) == 1 {
				session = args[0]
			}
			events, err := j.List(session)
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Journal directory. Defaults to journal.path")
	return cmd
}

func printEvents(w io.Writer, events []journal.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "no events")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SESSION", "TRACK", "TIME", "EVENT", "DETAIL")
	for _, ev := range events {
		t.Row(ev.Session, strconv.Itoa(ev.Track), ev.Timestamp.Truncate(time.Millisecond).String(),
			string(ev.Kind), eventDetail(ev))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func eventDetail(ev journal.Event) string {
	switch {
	case ev.Section != nil:
		s := ev.Section
		return fmt.Sprintf("%s for %s, avg %.2f, peak %.2f",
			s.Type, s.Duration.Truncate(time.Millisecond), s.AvgEnergy, s.PeakEnergy)
	case ev.Strike != nil:
		s := ev.Strike
		return fmt.Sprintf("intensity %.2f, z %.2f, energy %.2f in %s",
			s.Intensity, s.ZScore, s.Energy, s.Section)
	}
	return ""
}
