package metrics_test

import (
	"context"
	"lending/pkg/metrics"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPipeline_ExportsToPrometheus(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	p, err := metrics.NewPipeline(mp)
	require.NoError(t, err)

	p.ApplicationSubmitted(ctx)
	p.ApplicationDecided(ctx, "APPROVED")
	p.DocumentExtracted(ctx, "pan", "verified")
	p.UnderwritingStarted(ctx)("approved")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	for _, prefix := range []string{
		"lending_applications_submitted",
		"lending_applications_decisions",
		"lending_documents_extracted",
		"lending_underwriting_duration",
	} {
		require.True(t, slices.ContainsFunc(names, func(n string) bool {
			return strings.HasPrefix(n, prefix)
		}), "missing %s in %v", prefix, names)
	}
}

func TestNoop(t *testing.T) {
	p := metrics.Noop()
	require.NotNil(t, p)

	ctx := context.Background()
	p.ApplicationSubmitted(ctx)
	p.UnderwritingStarted(ctx)("errored")
}
