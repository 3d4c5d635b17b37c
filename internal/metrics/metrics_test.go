package metrics

import (
    "testing"

    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/require"
)

func TestRegisterDefaultIdempotent(t *testing.T) {
    RegisterDefault()
    RegisterDefault()

    SearchComparisons.WithLabelValues("profit").Inc()
    require.GreaterOrEqual(t, testutil.ToFloat64(SearchComparisons.WithLabelValues("profit")), 1.0)

    mfs, err := Registry.Gather()
    require.NoError(t, err)
    names := map[string]bool{}
    for _, mf := range mfs { names[mf.GetName()] = true }
    require.True(t, names["search_comparisons_total"])
}
