package convert

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"schedcal/internal/ics"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

// ErrNoTermEnd is returned when neither an explicit term end nor a usable
// detected one is available to bound the recurrence.
var ErrNoTermEnd = errors.New("no term end date available")

// Options tunes one conversion run.
type Options struct {
	// ProductID overrides the PRODID of the generated calendar.
	ProductID string

	// AllowDetectedTermEnd permits falling back to the latest term end
	// found in the source document when termEnd is zero.
	AllowDetectedTermEnd bool
}

// Result is the outcome of one HTML→ICS conversion.
type Result struct {
	Events   []model.ScheduleEvent
	Warnings []string

	// TermEnd is the recurrence cutoff that was actually applied.
	TermEnd time.Time

	// ICS is the complete calendar document text.
	ICS string
}

// Run performs the full extract→emit pipeline over one document. It is the
// single entry point shared by the CLI, the HTTP handler and the refresher.
func Run(htmlText []byte, termEnd time.Time, opts Options) (Result, error) {
	extracted, err := schedule.Extract(htmlText)
	if err != nil {
		return Result{}, err
	}

	if termEnd.IsZero() {
		if !opts.AllowDetectedTermEnd || extracted.DetectedTermEnd.IsZero() {
			return Result{}, ErrNoTermEnd
		}
		termEnd = extracted.DetectedTermEnd
		appLog.Info("using term end detected in source", "term_end", termEnd.Format("2006-01-02"))
	}

	text, err := ics.NewBuilder(opts.ProductID).Build(extracted.Events, termEnd)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Events:   extracted.Events,
		Warnings: extracted.Warnings,
		TermEnd:  termEnd,
		ICS:      text,
	}, nil
}

// WriteFile writes the calendar text to path without leaving a partial file
// behind: the content goes to a temp file in the same directory first and is
// renamed over the target.
func WriteFile(path, content string) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".schedcal-ics-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
