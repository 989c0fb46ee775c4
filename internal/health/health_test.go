package health

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseDataSource_OptimisticBeforeFirstUse(t *testing.T) {
	ds := NewBaseDataSource("test")
	assert.True(t, ds.Healthy())
}

func TestBaseDataSource_UnhealthyAfterError(t *testing.T) {
	ds := NewBaseDataSource("test")
	ds.SetError(errors.New("boom"))
	assert.False(t, ds.Healthy())
}

func TestBaseDataSource_HealthyAfterSuccessClearsError(t *testing.T) {
	ds := NewBaseDataSource("test")
	ds.SetError(errors.New("boom"))
	ds.SetSuccess()
	assert.True(t, ds.Healthy())
}

func TestRegistry_ReadinessReflectsAggregateStatus(t *testing.T) {
	healthy := NewBaseDataSource("a")
	healthy.SetSuccess()
	unhealthy := NewBaseDataSource("b")
	unhealthy.SetError(errors.New("down"))

	reg := NewRegistry(unhealthy)
	w := httptest.NewRecorder()
	reg.Readiness(w, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, 503, w.Code)

	reg2 := NewRegistry(healthy)
	w2 := httptest.NewRecorder()
	reg2.Readiness(w2, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, 200, w2.Code)
}
