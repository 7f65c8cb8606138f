package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/lesson"
)

// today is replaced in tests.
var today = func() calendar.CivilDate { return calendar.CivilOf(time.Now()) }

func newFestivalsCmd(g *globalFlags) *cobra.Command {
	var (
		date      string
		window    int
		firstAdar bool
	)
	cmd := &cobra.Command{
		Use:   "festivals",
		Short: "List festivals near a date",
		Long: `Festivals correlates a civil date against the festival table and
prints every festival whose nearest occurrence lies within the window,
closest first. Negative distances lie before the date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := today()
			if date != "" {
				parsed, err := calendar.ParseDate(date)
				if err != nil {
					return err
				}
				d = parsed
			}

			ctx := cmd.Context()
			store, closeFn, err := g.store(ctx, g.logger(cmd))
			if err != nil {
				return err
			}
			defer closeFn()

			service := lesson.NewService(store, g.years(), g.logger(cmd))
			festivals, err := service.Festivals(d, calendar.Options{WindowDays: window, FirstAdar: firstAdar})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(festivals) == 0 {
				fmt.Fprintf(w, "no festivals within %d days of %s\n", window, d)
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FESTIVAL\tANCHOR\tDATE\tDAYS")
			for _, f := range festivals {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Festival, f.Anchor, f.Date, signed(f.DaysApart))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Civil date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&window, "window", calendar.DefaultWindowDays, "Proximity window in days")
	cmd.Flags().BoolVar(&firstAdar, "first-adar", false, "Resolve Adar anchors to Adar I in leap years")
	return cmd
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	var (
		raw     lesson.RawRequest
		minutes int
		window  int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a lesson and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("minutes") {
				raw.EstimatedMinutes = json.RawMessage(strconv.Itoa(minutes))
			}
			if cmd.Flags().Changed("window") {
				raw.WindowDays = &window
			}

			limits := lesson.DefaultLimits()
			limits.Today = today()
			req, err := lesson.ParseRequest(raw, limits)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log := g.logger(cmd)
			store, closeFn, err := g.store(ctx, log)
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := lesson.NewService(store, g.years(), log).Generate(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&raw.TopicOrPassage, "topic", "", "Topic key or passage reference")
	f.StringVar(&raw.LessonType, "type", "sermon", "Lesson type: sermon, bible_study or discipleship")
	f.StringVar(&raw.Date, "date", "", "Civil date YYYY-MM-DD (default today)")
	f.StringVar(&raw.Audience, "audience", "", "Intended audience")
	f.StringVar(&raw.Occasion, "occasion", "", "Occasion")
	f.StringVar(&raw.CongregationID, "congregation", "", "Congregation id")
	f.IntVar(&minutes, "minutes", lesson.DefaultMinutes, "Estimated minutes")
	f.IntVar(&window, "window", calendar.DefaultWindowDays, "Proximity window in days")
	f.BoolVar(&raw.Interpreted, "interpreted", false, "Lesson is delivered through an interpreter")
	f.BoolVar(&raw.FirstAdar, "first-adar", false, "Resolve Adar anchors to Adar I in leap years")
	cmd.MarkFlagRequired("topic")
	return cmd
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
