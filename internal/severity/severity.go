// Package severity classifies apnea-hypopnea index (IAH) readings.
package severity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned for IAH values that cannot come from a sleep study.
var ErrInvalidInput = errors.New("invalid IAH value")

// MaxIAH is the input sanity ceiling.
const MaxIAH = 200

// Level is the three-tier severity of a reading.
type Level string

const (
	LevelNegative Level = "negative"
	LevelModerate Level = "moderate"
	LevelSevere   Level = "severe"
)

// Classification carries a level with its display metadata.
type Classification struct {
	Level      Level  `json:"level"`
	Label      string `json:"label"`
	LabelFr    string `json:"labelFr"`
	ColorToken string `json:"colorToken"`
}

var classifications = map[Level]Classification{
	LevelNegative: {Level: LevelNegative, Label: "Negative", LabelFr: "Négatif", ColorToken: "green"},
	LevelModerate: {Level: LevelModerate, Label: "Moderate", LabelFr: "Modéré", ColorToken: "yellow"},
	LevelSevere:   {Level: LevelSevere, Label: "Severe", LabelFr: "Sévère", ColorToken: "red"},
}

// Validate checks that iah is a plausible reading.
func Validate(iah float64) error {
	switch {
	case math.IsNaN(iah) || math.IsInf(iah, 0):
		return fmt.Errorf("%w: not a number", ErrInvalidInput)
	case iah < 0:
		return fmt.Errorf("%w: %.1f is negative", ErrInvalidInput, iah)
	case iah > MaxIAH:
		return fmt.Errorf("%w: %.1f exceeds %d", ErrInvalidInput, iah, MaxIAH)
	}
	return nil
}

// Classify maps a reading to its severity using the canonical boundaries:
// up to 15 is negative, below 30 is moderate, 30 and above is severe.
func Classify(iah float64) (Classification, error) {
	if err := Validate(iah); err != nil {
		return Classification{}, err
	}
	switch {
	case iah <= 15:
		return classifications[LevelNegative], nil
	case iah < 30:
		return classifications[LevelModerate], nil
	default:
		return classifications[LevelSevere], nil
	}
}

// ClassifyLegacy applies the older calendar boundaries (strictly below 15 is negative)
// and returns the bare French label the task calendar displays.
func ClassifyLegacy(iah float64) (string, error) {
	if err := Validate(iah); err != nil {
		return "", err
	}
	switch {
	case iah < 15:
		return classifications[LevelNegative].LabelFr, nil
	case iah < 30:
		return classifications[LevelModerate].LabelFr, nil
	default:
		return classifications[LevelSevere].LabelFr, nil
	}
}

// ParseIAH reads a reading typed by staff; both "25.3" and "25,3" are accepted.
func ParseIAH(s string) (float64, error) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidInput)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidInput, s)
	}
	if err := Validate(v); err != nil {
		return 0, err
	}
	return v, nil
}

// FormatIAHValue renders a reading with one decimal.
func FormatIAHValue(iah float64) string {
	return strconv.FormatFloat(iah, 'f', 1, 64)
}
