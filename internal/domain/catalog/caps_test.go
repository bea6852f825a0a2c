package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxQuantity(t *testing.T) {
	assert.Equal(t, 10, MaxQuantity(Part{Name: "Connector Clip"}))
	assert.Equal(t, 20, MaxQuantity(Part{Name: "LoopSheet A4", HighVolume: true}))
}

func TestClassifyName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"LoopSheet A4", true},
		{"loop-sheet a3", true},
		{"LOOP SHEET, A4", true},
		{"Connector Clip", false},
		{"Fuser Unit", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyName(tc.name), "name %q", tc.name)
	}
}
