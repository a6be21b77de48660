package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/sheetboard/internal/service"
)

// MockReader is a service.GridSource that serves canned grids.
type MockReader struct {
	FetchFunc  func(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
	Grids      map[string][][]string
	FetchCalls []FetchCall
	mu         sync.Mutex
}

// FetchCall records a single call to Fetch.
type FetchCall struct {
	SpreadsheetID string
	ReadRange     string
}

// NewMockReader creates a mock reader serving grids keyed by spreadsheet id.
func NewMockReader(grids map[string][][]string) *MockReader {
	if grids == nil {
		grids = make(map[string][][]string)
	}
	return &MockReader{Grids: grids}
}

// Fetch implements service.GridSource.
func (m *MockReader) Fetch(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, FetchCall{SpreadsheetID: spreadsheetID, ReadRange: readRange})
	fn := m.FetchFunc
	grid := m.Grids[spreadsheetID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, spreadsheetID, readRange)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return grid, nil
}

// Calls returns the number of Fetch calls so far.
func (m *MockReader) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchCalls)
}

// MockWriter is a service.ReportWriter that records every report.
type MockWriter struct {
	WriteFunc func(ctx context.Context, report *service.Report) error
	Reports   []*service.Report
	mu        sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements service.ReportWriter.
func (m *MockWriter) Write(ctx context.Context, report *service.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reports = append(m.Reports, report)
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, report)
	}
	return nil
}

// Last returns the most recent report, or nil.
func (m *MockWriter) Last() *service.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Reports) == 0 {
		return nil
	}
	return m.Reports[len(m.Reports)-1]
}
