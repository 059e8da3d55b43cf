package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func TestToPriceBars(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := toPriceBars([]models.Bar{
		{Date: d, Open: 1, High: 2, Low: 0.5, Close: 1.5, AdjClose: 1.4},
		{Date: d.AddDate(0, 0, 1), Close: 1.6},
	})

	require.Len(t, bars, 2)
	assert.Equal(t, d, bars[0].Date)
	assert.Equal(t, 1.4, bars[0].AdjClose)
	assert.Equal(t, 1.5, bars[0].Close)
	// AdjClose 없으면 Close 사용
	assert.Equal(t, 1.6, bars[1].AdjClose)
}

func TestPickPrice(t *testing.T) {
	tests := []struct {
		name               string
		regular, pre, post float64
		want               float64
		wantErr            bool
	}{
		{"regular", 150, 149, 151, 150, false},
		{"pre market", 0, 149, 151, 149, false},
		{"post market", 0, 0, 151, 151, false},
		{"none", 0, 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickPrice(tt.regular, tt.pre, tt.post, "AAPL")
			if tt.wantErr {
				assert.ErrorIs(t, err, contracts.ErrNoPrice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithTimeout(t *testing.T) {
	v, err := withTimeout(context.Background(), time.Second, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = withTimeout(context.Background(), time.Second, func() (int, error) {
		return 0, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")

	_, err = withTimeout(context.Background(), 10*time.Millisecond, func() (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLastCloses_Empty(t *testing.T) {
	c := NewClient(time.Second, logger.NewNop())
	closes, failed := c.LastCloses(context.Background(), nil)
	assert.Empty(t, closes)
	assert.Empty(t, failed)
}
