// Package opchecktest runs operator suites as Go subtests.
package opchecktest

import (
	"context"
	"testing"

	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/stretchr/testify/assert"
)

// Run executes every case as a subtest named after its fixture, with one
// assertion per check and mode.
func Run(t *testing.T, c *opcheck.Checker, cases []opcheck.Case) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name(), func(t *testing.T) {
			t.Parallel()
			report := c.Run(context.Background(), tc)
			assert.NotEmpty(t, report.Results, "no checks ran")
			for _, r := range report.Results {
				assert.NoError(t, r.Err, "%s %s/%s on %s", tc.Op(), r.Check, r.Mode, c.Place())
			}
		})
	}
}
