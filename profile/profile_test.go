package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsValidate(t *testing.T) {
	for _, p := range []Profile{Face(), Person(), SingleFace(), SinglePerson()} {
		assert.NoError(t, p.Validate(), p.Name)
	}
}

func TestDefaultNamesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range []Profile{Face(), Person(), SingleFace(), SinglePerson()} {
		assert.False(t, seen[p.Name], p.Name)
		seen[p.Name] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Profile)
	}{
		{"empty name", func(p *Profile) { p.Name = "" }},
		{"unknown layout", func(p *Profile) { p.Layout = "yolo" }},
		{"confidence above one", func(p *Profile) { p.Confidence = 1.5 }},
		{"negative nms", func(p *Profile) { p.NMS = -0.1 }},
		{"no classes", func(p *Profile) { p.Classes = nil }},
		{"negative class", func(p *Profile) { p.Classes = []int{-1} }},
		{"objectness without class 0", func(p *Profile) {
			p.Layout = LayoutObjectness
			p.Classes = []int{1}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Person()
			tt.modify(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
		})
	}
}

func TestAcceptsAndMinCols(t *testing.T) {
	p := SinglePerson()
	assert.True(t, p.Accepts(0))
	assert.False(t, p.Accepts(1))
	assert.Equal(t, 6, p.MinCols())
	assert.Equal(t, 5, SingleFace().MinCols())
}
