package cart

import (
	"fmt"

	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
)

type Temperature string

const (
	Hot Temperature = "Hot"
	Ice Temperature = "Ice"
)

type SugarLevel string

const (
	SugarNormal SugarLevel = "Normal"
	SugarLess   SugarLevel = "Less"
	SugarNone   SugarLevel = "None"
)

type Shots string

const (
	NoExtraShot Shots = "None"
	SingleShot  Shots = "Shot"
	DoubleShot  Shots = "Double"
)

type Topping string

const (
	Messes      Topping = "Messes"
	JellyCoffee Topping = "Jelly Coffee"
)

// Toppings offered on drink-like items, in display order.
var Toppings = []Topping{Messes, JellyCoffee}

func ParseTemperature(s string) (Temperature, error) {
	switch t := Temperature(s); t {
	case Hot, Ice:
		return t, nil
	}
	return "", fmt.Errorf("unknown temperature %q", s)
}

func ParseSugarLevel(s string) (SugarLevel, error) {
	switch l := SugarLevel(s); l {
	case SugarNormal, SugarLess, SugarNone:
		return l, nil
	}
	return "", fmt.Errorf("unknown sugar level %q", s)
}

func ParseShots(s string) (Shots, error) {
	switch v := Shots(s); v {
	case NoExtraShot, SingleShot, DoubleShot:
		return v, nil
	}
	return "", fmt.Errorf("unknown shots option %q", s)
}

func ParseTopping(s string) (Topping, error) {
	for _, t := range Toppings {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topping %q", s)
}

func (t *Temperature) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTemperature(string(b))
	return err
}

func (l *SugarLevel) UnmarshalText(b []byte) (err error) {
	*l, err = ParseSugarLevel(string(b))
	return err
}

func (s *Shots) UnmarshalText(b []byte) (err error) {
	*s, err = ParseShots(string(b))
	return err
}

func (t *Topping) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTopping(string(b))
	return err
}

// Customizations are the per-line options. A nil field was not collected for the
// item's category. An empty topping set is stored as absent.
type Customizations struct {
	Temperature *Temperature `json:"temperature,omitempty"`
	SugarLevel  *SugarLevel  `json:"sugarLevel,omitempty"`
	Shots       *Shots       `json:"shots,omitempty"`
	Toppings    []Topping    `json:"toppings,omitempty"`
}

// ForCategory drops fields the category does not collect and fills collected but
// missing ones with the selector defaults. Inputs are never aliased.
func (c Customizations) ForCategory(category catalog.Category) Customizations {
	traits := category.Traits()
	var out Customizations

	if traits.Temperature {
		v := Ice
		if c.Temperature != nil {
			v = *c.Temperature
		}
		out.Temperature = &v
	}
	if traits.Sugar {
		v := SugarNormal
		if c.SugarLevel != nil {
			v = *c.SugarLevel
		}
		out.SugarLevel = &v
	}
	if traits.Shots {
		v := NoExtraShot
		if c.Shots != nil {
			v = *c.Shots
		}
		out.Shots = &v
	}
	if traits.Toppings && len(c.Toppings) > 0 {
		out.Toppings = dedupe(c.Toppings)
	}
	return out
}

// Values flattens the set options in field order, skipping empty ones.
func (c Customizations) Values() []string {
	var out []string
	if c.Temperature != nil && *c.Temperature != "" {
		out = append(out, string(*c.Temperature))
	}
	if c.SugarLevel != nil && *c.SugarLevel != "" {
		out = append(out, string(*c.SugarLevel))
	}
	if c.Shots != nil && *c.Shots != "" {
		out = append(out, string(*c.Shots))
	}
	for _, t := range c.Toppings {
		if t != "" {
			out = append(out, string(t))
		}
	}
	return out
}

// dedupe returns a fresh slice with first occurrences kept.
func dedupe(in []Topping) []Topping {
	out := make([]Topping, 0, len(in))
	seen := make(map[Topping]bool, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
