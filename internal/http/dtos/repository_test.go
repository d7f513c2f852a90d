package dtos

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/just-nibble/srs-tracker/internal/runlog"
)

func TestToRunsResponseCountsFailures(t *testing.T) {
	runs := []runlog.Run{
		{ID: "r1"},
		{ID: "r2", Reason: "NonZeroExit", ExitCode: 1},
		{ID: "r3", Reason: "Timeout"},
	}

	res := ToRunsResponse(runs)

	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Runs, 3)
	assert.Zero(t, ToRunsResponse(nil).Failed)
}
