package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tempowatch/tempowatch/pkg/storage"
	"github.com/tempowatch/tempowatch/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) UpsertDayColor(ctx context.Context, calendar string, day types.DayColor) error {
	args := m.Called(ctx, calendar, day)
	return args.Error(0)
}

func (m *MockDatabase) GetDayColor(ctx context.Context, calendar, date string) (types.DayColor, error) {
	args := m.Called(ctx, calendar, date)
	if len(args) > 0 {
		return args.Get(0).(types.DayColor), args.Error(1)
	}
	return types.DayColor{}, nil
}

func (m *MockDatabase) GetDayColorHistory(ctx context.Context, calendar, startDate, endDate string) ([]types.DayColor, error) {
	args := m.Called(ctx, calendar, startDate, endDate)
	if len(args) > 0 {
		return args.Get(0).([]types.DayColor), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetLatestDayColorDate(ctx context.Context, calendar string) (string, error) {
	args := m.Called(ctx, calendar)
	return args.String(0), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
