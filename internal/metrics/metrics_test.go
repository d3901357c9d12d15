package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAuthz(t *testing.T) {
	before := testutil.ToFloat64(AuthzDecisions.WithLabelValues("delete", "false", "missing_role"))
	RecordAuthz("delete", false, "missing_role")
	after := testutil.ToFloat64(AuthzDecisions.WithLabelValues("delete", "false", "missing_role"))
	assert.Equal(t, before+1, after)
}

func TestRecordLogin(t *testing.T) {
	before := testutil.ToFloat64(LoginAttempts.WithLabelValues("failure"))
	RecordLogin(false)
	assert.Equal(t, before+1, testutil.ToFloat64(LoginAttempts.WithLabelValues("failure")))
}
