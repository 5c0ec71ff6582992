package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
)

func TestEvaluateUnknownDistance(t *testing.T) {
	d := Evaluate(distance.Unknown, 10)
	assert.False(t, d.Evaluated)
	assert.False(t, d.Admit)
	assert.Empty(t, d.Headline())
	assert.Nil(t, d.Detail())
}

func TestEvaluateBoundary(t *testing.T) {
	d := Evaluate(distance.Known(1), 50000)
	assert.True(t, d.Evaluated)
	assert.True(t, d.Admit)
	assert.Equal(t, int64(50000), d.Minimum)
	assert.Zero(t, d.Shortfall)
	assert.Equal(t, "Jarak dan Minimal Order Sesuai!", d.Headline())
	assert.Nil(t, d.Detail())

	d = Evaluate(distance.Known(1), 49999)
	assert.False(t, d.Admit)
	assert.Equal(t, int64(1), d.Shortfall)
}

func TestEvaluateRejectionText(t *testing.T) {
	d := Evaluate(distance.Known(2.5), 52000)
	assert.False(t, d.Admit)
	assert.Equal(t, int64(70000), d.Minimum)
	assert.Equal(t, int64(18000), d.Shortfall)
	assert.Equal(t, "Minimal Order Belum Sesuai", d.Headline())
	assert.Equal(t, []string{
		"Jarak 2.5 km minimal order Rp 70.000",
		"Kurang Rp 18.000",
	}, d.Detail())
}

func TestEvaluateFarAway(t *testing.T) {
	d := Evaluate(distance.Known(12.4), 120000)
	assert.True(t, d.Admit)
	assert.Equal(t, int64(110000), d.Minimum)
}
