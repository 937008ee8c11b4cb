// Package mock provides mock implementations for testing.
package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/heaptrace/pkg/model"
)

// MockParser is a mock implementation of the Parser interface.
type MockParser struct {
	mock.Mock
}

// Parse mocks the Parse method. The reader is drained so that callers see
// the same consumption as with a real parser.
func (m *MockParser) Parse(ctx context.Context, reader io.Reader) ([]model.ParsedEvent, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ParsedEvent), args.Error(1)
}

// SupportedFormats mocks the SupportedFormats method.
func (m *MockParser) SupportedFormats() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// Name mocks the Name method.
func (m *MockParser) Name() string {
	args := m.Called()
	return args.String(0)
}

// ExpectParse sets up an expectation for Parse with any input.
func (m *MockParser) ExpectParse(events []model.ParsedEvent, err error) *mock.Call {
	return m.On("Parse", mock.Anything, mock.Anything).Return(events, err)
}

// ExpectParseData sets up an expectation for Parse of exactly data.
func (m *MockParser) ExpectParseData(data []byte, events []model.ParsedEvent, err error) *mock.Call {
	return m.On("Parse", mock.Anything, data).Return(events, err)
}
