package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/domain"
)

func TestExport_CSV(t *testing.T) {
	src := &fakeSource{seats: func(context.Context) ([]domain.SeatsByRole, error) {
		return []domain.SeatsByRole{{Role: `Admin, "Ops"`, Assigned: 1, Available: 2}}, nil
	}}
	agg := newTestAggregator(src, nil)

	var buf bytes.Buffer
	err := agg.Export(context.Background(), Request{TenantID: "t1", Features: allFeatures(), Range: testRange()}, FormatCSV, &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, ExportHeader, records[0])

	// usage 2*3 + seats 2 + adoption 2 + copilot 3 + audit 1
	assert.Len(t, records, 1+6+2+2+3+1)
	for _, rec := range records {
		assert.Len(t, rec, len(ExportHeader))
	}
	assert.Contains(t, records, []string{SourceSeats, "", `Admin, "Ops"`, "assigned", "1"})
	assert.Contains(t, records, []string{SourceCopilot, "2024-01-01", "", "acceptance_rate", "0.5000"})
}

func TestExport_JSON(t *testing.T) {
	agg := newTestAggregator(&fakeSource{}, nil)

	var buf bytes.Buffer
	err := agg.Export(context.Background(), Request{TenantID: "t1", Features: allFeatures(), Range: testRange()}, FormatJSON, &buf)
	require.NoError(t, err)

	var snap domain.AnalyticsSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Equal(t, "t1", snap.TenantID)
	assert.Equal(t, domain.SlotReady, snap.Audit.Status)
}

func TestExport_Errors(t *testing.T) {
	agg := newTestAggregator(&fakeSource{}, nil)
	req := Request{TenantID: "t1", Features: allFeatures(), Range: testRange()}

	t.Run("export feature off", func(t *testing.T) {
		r := req
		r.Features.Export = false
		var buf bytes.Buffer
		assert.ErrorIs(t, agg.Export(context.Background(), r, FormatCSV, &buf), domain.ErrFeatureDisabled)
		assert.Zero(t, buf.Len())
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, agg.Export(context.Background(), req, "xlsx", &buf), domain.ErrValidation)
	})

	t.Run("source failure writes nothing", func(t *testing.T) {
		failing := newTestAggregator(&fakeSource{audit: func(context.Context) ([]domain.AuditRollupPoint, error) {
			return nil, errors.New("audit store unavailable")
		}}, nil)
		var buf bytes.Buffer
		err := failing.Export(context.Background(), req, FormatCSV, &buf)

		var se *SourceError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, SourceAudit, se.Source)
		assert.Zero(t, buf.Len())
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType(FormatJSON))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
}
