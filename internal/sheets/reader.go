package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Veraticus/sheetboard/internal/common"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Reader fetches value ranges from Google Sheets.
type Reader struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewReader creates a reader. Extra client options are appended after the
// credentials, which lets callers point the client at another endpoint.
func NewReader(ctx context.Context, config Config, logger *slog.Logger, opts ...option.ClientOption) (*Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := newService(ctx, config, sheets.SpreadsheetsReadonlyScope, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Reader{
		service: srv,
		logger:  logger,
		config:  config,
	}, nil
}

// Fetch returns the formatted cell values of readRange. Transient API
// failures are retried; an empty range returns common.ErrNoData.
func (r *Reader) Fetch(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	var resp *sheets.ValueRange

	err := common.WithRetry(ctx, func() error {
		callCtx := ctx
		if r.config.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
			defer cancel()
		}

		var err error
		resp, err = r.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
			MajorDimension("ROWS").
			Context(callCtx).
			Do()
		return classify(err)
	}, r.config.RetryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", readRange, spreadsheetID, err)
	}

	if len(resp.Values) == 0 {
		return nil, common.ErrNoData
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = cellString(cell)
		}
	}

	r.logger.Debug("fetched sheet range",
		"spreadsheet_id", spreadsheetID,
		"range", readRange,
		"rows", len(grid))

	return grid, nil
}

// classify maps API errors onto the retry policy: rate limits and server
// errors are retried, other client errors are not.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return common.Transient(fmt.Errorf("%w: %w", common.ErrRateLimit, err))
	case apiErr.Code >= 500:
		return common.Transient(err)
	case apiErr.Code >= 400:
		return common.Permanent(fmt.Errorf("%w: %w", common.ErrSheetUnavailable, err))
	default:
		return err
	}
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
