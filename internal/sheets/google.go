package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

var (
	spreadsheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	bareIDPattern        = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SpreadsheetID extracts the spreadsheet id from a sharing link. A bare id
// is returned unchanged.
func SpreadsheetID(link string) (string, error) {
	if m := spreadsheetIDPattern.FindStringSubmatch(link); m != nil {
		return m[1], nil
	}
	if bareIDPattern.MatchString(link) {
		return link, nil
	}
	return "", fmt.Errorf("cannot extract spreadsheet id from %q", link)
}

// GoogleReader reads records from a Google Sheet tab using the Sheets API.
type GoogleReader struct {
	svc           *gsheets.Service
	spreadsheetID string
	tab           string
	opts          ParseOptions
}

// NewGoogleReader creates a reader for link/tab. clientOpts typically
// carries service-account credentials.
func NewGoogleReader(ctx context.Context, link, tab string, opts ParseOptions, clientOpts ...option.ClientOption) (*GoogleReader, error) {
	id, err := SpreadsheetID(link)
	if err != nil {
		return nil, err
	}
	clientOpts = append(clientOpts, option.WithScopes(gsheets.SpreadsheetsReadonlyScope))
	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleReader{svc: svc, spreadsheetID: id, tab: tab, opts: opts}, nil
}

// Read implements Reader. Any API failure is marked ErrSourceUnavailable.
func (r *GoogleReader) Read(ctx context.Context) ([]Record, error) {
	start := time.Now()

	rng, err := r.resolveRange(ctx)
	if err != nil {
		return nil, apperr.Markf(err, apperr.ErrSourceUnavailable, "resolve sheet tab")
	}

	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.Markf(err, apperr.ErrSourceUnavailable, "read sheet range %s", rng)
	}

	records, err := ParseValues(resp.Values, r.opts)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("spreadsheetId", r.spreadsheetID).
		Str("range", rng).
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("Read application sheet")
	return records, nil
}

// resolveRange returns the A1 range for the configured tab, falling back to
// the first tab when the name is not found.
func (r *GoogleReader) resolveRange(ctx context.Context) (string, error) {
	ss, err := r.svc.Spreadsheets.Get(r.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	title, ok := pickTab(titles, r.tab)
	if !ok {
		return "", fmt.Errorf("spreadsheet %s has no tabs", r.spreadsheetID)
	}
	if title != r.tab {
		log.Warn().Str("requested", r.tab).Str("using", title).Strs("available", titles).Msg("Sheet tab not found, using first tab")
	}
	return "'" + strings.ReplaceAll(title, "'", "''") + "'", nil
}

func pickTab(titles []string, want string) (string, bool) {
	if len(titles) == 0 {
		return "", false
	}
	for _, t := range titles {
		if t == want {
			return t, true
		}
	}
	return titles[0], true
}
