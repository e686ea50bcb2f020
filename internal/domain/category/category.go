package category

import "errors"

// Category selects which checkpoint map, streak and daily XP slot an action touches.
type Category string

const (
	Attendance  Category = "attendance"
	Strength    Category = "strength"
	Competition Category = "competition"
)

// ErrUnknown is returned for any value outside the three categories.
var ErrUnknown = errors.New("category must be one of: attendance, strength, competition")

// All lists the categories in display order.
var All = []Category{Attendance, Strength, Competition}

// Parse converts a wire string into a Category.
func Parse(s string) (Category, error) {
	switch Category(s) {
	case Attendance, Strength, Competition:
		return Category(s), nil
	case "pool":
		return Attendance, nil
	case "weight":
		return Strength, nil
	case "meet":
		return Competition, nil
	}
	return "", ErrUnknown
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Attendance, Strength, Competition:
		return true
	}
	return false
}
