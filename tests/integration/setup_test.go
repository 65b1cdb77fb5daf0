package integration

import (
	"testing"

	"github.com/planit-app/planit-api/tests/testutil"
)

// setupTest starts a fresh postgres container for one test.
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	return testutil.SetupTestDB(t)
}
