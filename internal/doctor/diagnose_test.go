// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"context"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratahq/strata/internal/config"
	"github.com/stratahq/strata/internal/plan"
	"github.com/stratahq/strata/internal/store"
)

func TestToErrorCode(t *testing.T) {
	assert.Equal(t, 10400, toErrorCode(errorx.IllegalArgument.New("bad arg")))
	assert.Equal(t, 10404, toErrorCode(config.NotFoundError.New("missing")))
	assert.Equal(t, 10409, toErrorCode(store.LockedError.New("held")))
	assert.Equal(t, 10500, toErrorCode(errorx.IllegalState.New("broken")))
}

func TestFindResolution_ResolutionPropertyWins(t *testing.T) {
	err := errorx.IllegalState.New("requires manual action").
		WithProperty(ErrPropertyResolution, "Run 'strata reset' to rebuild the store.")

	steps := findResolution(err)
	require.Len(t, steps, 1)
	assert.Equal(t, "Run 'strata reset' to rebuild the store.", steps[0])
}

func TestFindResolution_UnknownVersion(t *testing.T) {
	err := plan.UnknownVersionError.New("version not in chain").
		WithProperty(plan.PropertySource, "0.9.0")

	steps := findResolution(err)
	require.NotEmpty(t, steps)
	assert.Contains(t, steps[len(steps)-1], "0.9.0")
}

func TestDiagnose_PopulatesTraceId(t *testing.T) {
	ctx := context.WithValue(context.Background(), "traceId", "abc-123") //nolint:staticcheck

	d := Diagnose(ctx, store.LockedError.New("store %q is locked", "app.db"))
	assert.Equal(t, "abc-123", d.TraceId)
	assert.Equal(t, 10409, d.Code)
	assert.NotEmpty(t, d.Resolution)
}
