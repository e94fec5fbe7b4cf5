package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleRows(t *testing.T) {
	end := at(8, 15, 0)
	rows := SampleRows(end, 7, time.UTC)
	require.NotEmpty(t, rows)
	assert.Equal(t, rows, SampleRows(end, 7, time.UTC), "deterministic")

	from, to := at(1, 0, 0), at(8, 0, 0)
	for _, r := range rows {
		assert.False(t, r.RecordedAt.Before(from), r.RecordedAt)
		assert.True(t, r.RecordedAt.Before(to), r.RecordedAt)
		assert.Greater(t, r.Minutes, 0.0)
		assert.LessOrEqual(t, r.Minutes, 60.0)
	}

	labels, _ := TopApps(rows, 0)
	assert.Equal(t, "Chrome", labels[0])
	assert.Len(t, labels, len(sampleApps))
}
