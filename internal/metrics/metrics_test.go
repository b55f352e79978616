package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveItem(t *testing.T) {
	m := New()

	m.ObserveItem(models.ModeExport, models.OutcomeRelayed)
	m.ObserveItem(models.ModeExport, models.OutcomeRelayed)
	m.ObserveItem(models.ModeExport, models.OutcomeUnmatched)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Items.WithLabelValues("export", "relayed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Items.WithLabelValues("export", "unmatched")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Items))
}

func TestObserveRun(t *testing.T) {
	m := New()
	finished := time.Unix(1718452800, 0)

	m.ObserveRun(&models.SyncRun{Mode: models.ModeImport, Status: models.RunStatusAborted, FinishedAt: &finished})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs.WithLabelValues("import", "aborted")))
	assert.Equal(t, float64(1718452800), testutil.ToFloat64(m.LastRunTime.WithLabelValues("import")))
}

func TestRegistryExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveItem(models.ModeImport, models.OutcomeImported)

	expected := `
# HELP watchsync_items_total File locations reconciled, by mode and outcome.
# TYPE watchsync_items_total counter
watchsync_items_total{mode="import",outcome="imported"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "watchsync_items_total"))
}
