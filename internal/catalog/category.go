package catalog

import (
	"fmt"
	"strings"
)

// Category is a menu section key as it appears in produk.json.
type Category string

const (
	Recommended      Category = "RECOMMENDED"
	MonologSignature Category = "MONOLOG_SIGNATURE"
	TeaSeries        Category = "TEA_SERIES"
	WarmMeal         Category = "WARM_MEAL"
	MilkshakeSeries  Category = "MILKSHAKE_SERIES"
	EspressoBased    Category = "ESPRESSO_BASED"
	MainCourse       Category = "MAIN_COURSE"
	Refresher        Category = "REFRESHER"
	FlavouredLatte   Category = "FLAVOURED_LATTE"
	YakultSeries     Category = "YAKULT_SERIES"
	Snack            Category = "SNACK"
	AddOn            Category = "ADD_ON"
)

// Traits lists which customizations a category collects.
type Traits struct {
	Temperature bool `json:"temperature"`
	Sugar       bool `json:"sugar"`
	Shots       bool `json:"shots"`
	Toppings    bool `json:"toppings"`
}

var (
	coffee = Traits{Temperature: true, Sugar: true, Shots: true, Toppings: true}
	drink  = Traits{Toppings: true}
	food   = Traits{}
)

// traitTable is the single place to register a category.
var traitTable = map[Category]Traits{
	Recommended:      coffee,
	MonologSignature: coffee,
	EspressoBased:    coffee,
	FlavouredLatte:   coffee,
	TeaSeries:        drink,
	MilkshakeSeries:  drink,
	Refresher:        drink,
	YakultSeries:     drink,
	WarmMeal:         food,
	MainCourse:       food,
	Snack:            food,
	AddOn:            food,
}

// ParseCategory rejects keys that are not in the trait table.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if _, ok := traitTable[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Category) Valid() bool {
	_, ok := traitTable[c]
	return ok
}

func (c Category) Traits() Traits {
	return traitTable[c]
}

// IsCoffeeLike reports whether temperature, sugar level and shots are collected.
func (c Category) IsCoffeeLike() bool {
	t := traitTable[c]
	return t.Temperature || t.Sugar || t.Shots
}

// IsDrinkLike reports whether toppings are collected.
func (c Category) IsDrinkLike() bool {
	return traitTable[c].Toppings
}

// Label is the human form used in menu headings, e.g. "tea series".
func (c Category) Label() string {
	return strings.ToLower(strings.ReplaceAll(string(c), "_", " "))
}
