package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(UsersProcessed.WithLabelValues("cached"))
	UsersProcessed.WithLabelValues("cached").Inc()
	if got := testutil.ToFloat64(UsersProcessed.WithLabelValues("cached")); got != before+1 {
		t.Errorf("UsersProcessed = %v, want %v", got, before+1)
	}

	CacheLookups.WithLabelValues("miss").Add(2)
	if got := testutil.ToFloat64(CacheLookups.WithLabelValues("miss")); got < 2 {
		t.Errorf("CacheLookups miss = %v", got)
	}
}
