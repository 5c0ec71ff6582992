package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
)

var (
	latte = catalog.Product{Name: "Butterscotch Latte", Price: 32000}
	fries = catalog.Product{Name: "French Fries", Price: 22000}
	tea   = catalog.Product{Name: "Lychee Tea", Price: 25000}
)

func TestOpenResetsDefaults(t *testing.T) {
	s, err := Open(latte, catalog.FlavouredLatte)
	require.NoError(t, err)
	s, _ = s.SetQuantity(4)
	s, _ = s.SetTemperature(cart.Hot)
	s, _ = s.ToggleTopping(cart.Messes)
	s, _ = s.SetNotes("less ice")

	// reopening from an already open state starts over
	s, err = Open(latte, catalog.FlavouredLatte)
	require.NoError(t, err)
	st := s.State()
	assert.True(t, st.Open)
	assert.Equal(t, 1, st.Quantity)
	assert.Empty(t, st.Notes)
	assert.Equal(t, cart.Ice, st.Temperature)
	assert.Equal(t, cart.SugarNormal, st.SugarLevel)
	assert.Equal(t, cart.NoExtraShot, st.Shots)
	assert.Empty(t, st.Toppings)
	assert.Equal(t, int64(32000), st.LinePrice)
}

func TestClosedRejectsEdits(t *testing.T) {
	var s Selector
	assert.False(t, s.IsOpen())

	_, err := s.SetQuantity(2)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.SetTemperature(cart.Hot)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = s.Confirm(nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, State{}, s.State())
}

func TestQuantityFloorsAtOne(t *testing.T) {
	s, _ := Open(fries, catalog.Snack)
	s, err := s.DecrementQuantity()
	require.NoError(t, err)
	assert.Equal(t, 1, s.State().Quantity)

	s, _ = s.IncrementQuantity()
	s, _ = s.IncrementQuantity()
	assert.Equal(t, 3, s.State().Quantity)
	assert.Equal(t, int64(66000), s.LinePrice())

	s, _ = s.SetQuantity(-5)
	assert.Equal(t, 1, s.State().Quantity)
}

func TestQuantityUpperBound(t *testing.T) {
	s, _ := Open(fries, catalog.Snack)
	s, err := s.SetQuantity(cart.MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, int64(22000*cart.MaxQuantity), s.LinePrice())

	kept, err := s.IncrementQuantity()
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	assert.Equal(t, cart.MaxQuantity, kept.State().Quantity)

	_, err = s.SetQuantity(1_000_000)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestOptionsGatedByCategory(t *testing.T) {
	s, _ := Open(fries, catalog.Snack)
	_, err := s.SetTemperature(cart.Hot)
	assert.ErrorIs(t, err, ErrNotApplicable)
	_, err = s.ToggleTopping(cart.Messes)
	assert.ErrorIs(t, err, ErrNotApplicable)

	s, _ = Open(tea, catalog.TeaSeries)
	_, err = s.SetShots(cart.DoubleShot)
	assert.ErrorIs(t, err, ErrNotApplicable)
	_, err = s.ToggleTopping(cart.JellyCoffee)
	assert.NoError(t, err)
}

func TestToggleTopping(t *testing.T) {
	s, _ := Open(tea, catalog.TeaSeries)
	s, _ = s.ToggleTopping(cart.Messes)
	s, _ = s.ToggleTopping(cart.JellyCoffee)
	assert.Equal(t, []cart.Topping{cart.Messes, cart.JellyCoffee}, s.State().Toppings)

	s, _ = s.ToggleTopping(cart.Messes)
	assert.Equal(t, []cart.Topping{cart.JellyCoffee}, s.State().Toppings)
}

func TestConfirmAddsAndCloses(t *testing.T) {
	s, _ := Open(latte, catalog.FlavouredLatte)
	s, _ = s.SetTemperature(cart.Hot)
	s, _ = s.SetShots(cart.SingleShot)
	s, _ = s.SetQuantity(2)
	s, _ = s.SetNotes("oat milk")

	c, closed, err := s.Confirm(nil)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	require.Len(t, c, 1)

	line := c[0]
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "oat milk", line.Notes)
	assert.Equal(t, catalog.FlavouredLatte, line.Category)
	assert.Equal(t, []string{"Hot", "Normal", "Shot"}, line.Customizations.Values())
	assert.Nil(t, line.Customizations.Toppings)
}

func TestConfirmSnackOmitsOptions(t *testing.T) {
	s, _ := Open(fries, catalog.Snack)
	c, _, err := s.Confirm(nil)
	require.NoError(t, err)
	assert.Equal(t, cart.Customizations{}, c[0].Customizations)
}

func TestCancelDiscards(t *testing.T) {
	s, _ := Open(fries, catalog.Snack)
	s = s.Cancel()
	assert.False(t, s.IsOpen())
}
