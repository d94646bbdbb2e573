package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"schedcal/internal/convert"
	"schedcal/internal/gcal"
	appLog "schedcal/internal/log"
	"schedcal/internal/schedule"
)

var (
	googleURL     string
	googleTermEnd string
)

var googleCmd = &cobra.Command{
	Use:   "google [schedule.html]",
	Short: "Insert the parsed schedule into the primary Google Calendar",
	Long: `Extracts events from a schedule page and inserts them as weekly-recurring
events via the Google Calendar API. Requires an OAuth client credentials
file (google.credentials_path in the config); the first run walks through
the browser authorization flow and caches the token.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		htmlText, err := readScheduleInput(ctx, cfg, args, googleURL)
		if err != nil {
			return err
		}

		res, err := schedule.Extract(htmlText)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		if len(res.Events) == 0 {
			return fmt.Errorf("no events found in the schedule page")
		}

		var termEnd time.Time
		switch {
		case googleTermEnd != "":
			termEnd, err = time.Parse("2006-01-02", googleTermEnd)
			if err != nil {
				return fmt.Errorf("--term-end must be YYYY-MM-DD: %w", err)
			}
		case cfg.TermEnd != "":
			termEnd, err = time.Parse("2006-01-02", cfg.TermEnd)
			if err != nil {
				return fmt.Errorf("term_end in config must be YYYY-MM-DD: %w", err)
			}
		case !res.DetectedTermEnd.IsZero():
			termEnd = res.DetectedTermEnd
		default:
			return fmt.Errorf("%w; pass --term-end YYYY-MM-DD", convert.ErrNoTermEnd)
		}

		exporter, err := gcal.NewExporter(ctx, cfg.Google.CredentialsPath, cfg.Google.TokenPath, cfg.Google.Timezone)
		if err != nil {
			return err
		}

		if !exporter.Authorized() {
			fmt.Println("Authorize this app by visiting:")
			fmt.Println(" ", exporter.AuthURL())
			fmt.Print("Enter the authorization code: ")
			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read authorization code: %w", err)
			}
			if err := exporter.Exchange(ctx, strings.TrimSpace(code)); err != nil {
				return err
			}
		}

		inserted, err := exporter.Insert(ctx, res.Events, termEnd)
		if err != nil {
			appLog.Error("google export incomplete", err, "inserted", inserted)
			return fmt.Errorf("inserted %d of %d events: %w", inserted, len(res.Events), err)
		}

		fmt.Printf("Inserted %d events into the primary calendar (weekly until %s)\n",
			inserted, termEnd.Format("2006-01-02"))
		return nil
	},
}

func init() {
	googleCmd.Flags().StringVar(&googleURL, "url", "", "Capture the schedule page from this URL instead of a file")
	googleCmd.Flags().StringVar(&googleTermEnd, "term-end", "", "Recurrence cutoff date (YYYY-MM-DD)")
	rootCmd.AddCommand(googleCmd)
}
