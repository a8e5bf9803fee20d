package profile

import (
	"errors"
	"fmt"
	"slices"
)

type Layout string

const (
	// LayoutClassScores rows carry a per-class score vector starting at column 5.
	LayoutClassScores Layout = "classScores"
	// LayoutObjectness rows carry a single confidence at column 4 and no class vector.
	LayoutObjectness Layout = "objectness"
)

var ErrInvalidProfile = errors.New("invalid detector profile")

// Profile configures one detector. It is built once at startup and passed by value.
type Profile struct {
	Name       string  `yaml:"name"`
	Layout     Layout  `yaml:"layout"`
	Confidence float32 `yaml:"confidence"`
	NMS        float32 `yaml:"nms"`
	Classes    []int   `yaml:"classes"`
	Privacy    bool    `yaml:"privacy"`
	Label      string  `yaml:"label"`
}

func (p Profile) Accepts(classID int) bool {
	return slices.Contains(p.Classes, classID)
}

// MinCols is the smallest row width the profile's layout can decode.
func (p Profile) MinCols() int {
	if p.Layout == LayoutObjectness {
		return 5
	}
	return 6
}

func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProfile)
	}
	switch p.Layout {
	case LayoutClassScores, LayoutObjectness:
	default:
		return fmt.Errorf("%w: %s: unknown layout %q", ErrInvalidProfile, p.Name, p.Layout)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: %s: confidence must be between 0.0 and 1.0, got %f", ErrInvalidProfile, p.Name, p.Confidence)
	}
	if p.NMS < 0 || p.NMS > 1 {
		return fmt.Errorf("%w: %s: nms must be between 0.0 and 1.0, got %f", ErrInvalidProfile, p.Name, p.NMS)
	}
	if len(p.Classes) == 0 {
		return fmt.Errorf("%w: %s: no accepted classes", ErrInvalidProfile, p.Name)
	}
	for _, c := range p.Classes {
		if c < 0 {
			return fmt.Errorf("%w: %s: negative class id %d", ErrInvalidProfile, p.Name, c)
		}
	}
	if p.Layout == LayoutObjectness && !p.Accepts(0) {
		return fmt.Errorf("%w: %s: objectness layout only produces class 0", ErrInvalidProfile, p.Name)
	}
	return nil
}
