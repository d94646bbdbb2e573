package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schedcal/internal/schedule"
)

var inspectURL string

var inspectCmd = &cobra.Command{
	Use:   "inspect [schedule.html]",
	Short: "Show the events parsed from a schedule page without generating anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		htmlText, err := readScheduleInput(cmd.Context(), cfg, args, inspectURL)
		if err != nil {
			return err
		}

		res, err := schedule.Extract(htmlText)
		if err != nil {
			return err
		}

		if len(res.Events) == 0 {
			fmt.Println("No events found in the schedule.")
		}
		for i, ev := range res.Events {
			fmt.Printf("Event #%d\n", i+1)
			fmt.Printf("  Title:            %s\n", ev.Title)
			fmt.Printf("  Category:         %s\n", ev.Category)
			fmt.Printf("  Meeting day:      %s\n", ev.Day)
			fmt.Printf("  Time:             %s - %s\n", ev.StartTime, ev.EndTime)
			fmt.Printf("  Location:         %s\n", ev.Location)
			fmt.Printf("  First occurrence: %s\n", ev.Date.Format("2006-01-02"))
			fmt.Println()
		}

		if !res.DetectedTermEnd.IsZero() {
			fmt.Printf("Detected term end: %s\n", res.DetectedTermEnd.Format("2006-01-02"))
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectURL, "url", "", "Capture the schedule page from this URL instead of a file")
	rootCmd.AddCommand(inspectCmd)
}
