package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"schedcal/internal/capture"
	"schedcal/internal/config"
	"schedcal/internal/convert"
	appLog "schedcal/internal/log"
)

var (
	convertURL     string
	convertTermEnd string
	convertOutput  string
)

var convertCmd = &cobra.Command{
	Use:   "convert [schedule.html]",
	Short: "Generate an iCalendar file from a schedule page",
	Long: `Reads a saved schedule page (or captures a live one with --url) and
writes the weekly-recurring calendar file. The recurrence cutoff comes from
--term-end; when omitted, the latest term end found in the page is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		htmlText, err := readScheduleInput(cmd.Context(), cfg, args, convertURL)
		if err != nil {
			return err
		}

		var termEnd time.Time
		if convertTermEnd != "" {
			termEnd, err = time.Parse("2006-01-02", convertTermEnd)
			if err != nil {
				return fmt.Errorf("--term-end must be YYYY-MM-DD: %w", err)
			}
		} else if cfg.TermEnd != "" {
			termEnd, err = time.Parse("2006-01-02", cfg.TermEnd)
			if err != nil {
				return fmt.Errorf("term_end in config must be YYYY-MM-DD: %w", err)
			}
		}

		res, err := convert.Run(htmlText, termEnd, convert.Options{
			ProductID:            cfg.ProductID,
			AllowDetectedTermEnd: true,
		})
		if err != nil {
			if errors.Is(err, convert.ErrNoTermEnd) {
				return fmt.Errorf("%w; pass --term-end YYYY-MM-DD", err)
			}
			return err
		}

		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		if err := convert.WriteFile(convertOutput, res.ICS); err != nil {
			return fmt.Errorf("write %s: %w", convertOutput, err)
		}

		appLog.Info("calendar written",
			"output", convertOutput,
			"event_count", len(res.Events),
			"term_end", res.TermEnd.Format("2006-01-02"),
		)
		fmt.Printf("Wrote %d events to %s (weekly until %s)\n",
			len(res.Events), convertOutput, res.TermEnd.Format("2006-01-02"))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertURL, "url", "", "Capture the schedule page from this URL instead of a file")
	convertCmd.Flags().StringVar(&convertTermEnd, "term-end", "", "Recurrence cutoff date (YYYY-MM-DD)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "schedule.ics", "Output calendar file path")
	rootCmd.AddCommand(convertCmd)
}

// readScheduleInput resolves the page source: an explicit file argument, a
// --url capture, or the configured portal URL, in that order.
func readScheduleInput(ctx context.Context, cfg *config.Config, args []string, urlFlag string) ([]byte, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", args[0], err)
		}
		return data, nil
	}

	url := urlFlag
	if url == "" {
		url = cfg.PortalURL
	}
	if url == "" {
		return nil, errors.New("no input: pass a saved HTML file, --url, or set portal_url in the config")
	}

	appLog.Info("capturing schedule page", "url", url)
	return capture.FetchScheduleHTML(ctx, capture.Options{
		URL:     url,
		Timeout: time.Duration(cfg.CaptureTimeoutSec) * time.Second,
	})
}
