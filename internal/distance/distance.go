// Package distance measures how far a buyer is from the shop.
package distance

import (
	"encoding/json"
	"fmt"
	"math"
)

const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("coordinate out of range: %v,%v", c.Lat, c.Lng)
	}
	return nil
}

// Km is a distance that may not have been measured yet. The zero value is Unknown.
type Km struct {
	known bool
	value float64
}

var Unknown = Km{}

// Known wraps a measured distance. Negative input is treated as zero.
func Known(km float64) Km {
	if km < 0 {
		km = 0
	}
	return Km{known: true, value: km}
}

func (k Km) IsKnown() bool { return k.known }

// Value returns the distance and whether it is known.
func (k Km) Value() (float64, bool) { return k.value, k.known }

func (k Km) String() string {
	if !k.known {
		return "unknown"
	}
	return fmt.Sprintf("%g km", k.value)
}

// MarshalJSON writes null for an unknown distance.
func (k Km) MarshalJSON() ([]byte, error) {
	if !k.known {
		return []byte("null"), nil
	}
	return json.Marshal(k.value)
}

func (k *Km) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*k = Unknown
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*k = Known(v)
	return nil
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Coordinate) float64 {
	dLat := deg2rad(b.Lat - a.Lat)
	dLng := deg2rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Lat))*math.Cos(deg2rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(km float64) float64 {
	return math.Round(km*10) / 10
}

// Between measures shop to buyer and rounds for display and pricing.
func Between(shop, buyer Coordinate) Km {
	return Known(Round1(Haversine(shop, buyer)))
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
