package testutil

import (
	"time"

	"github.com/raulk/clock"
)

// Epoch is the wall time every test clock starts at.
var Epoch = time.Date(2024, 4, 4, 12, 0, 0, 0, time.UTC)

// NewClock returns a mock clock set to Epoch.
//
// The mock only moves when the test calls Add, so server-assigned
// timestamps are reproducible.
func NewClock() *clock.Mock {
	mock := clock.NewMock()
	mock.Add(Epoch.Sub(mock.Now()))
	return mock
}
