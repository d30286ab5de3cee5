package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexToRowLabel(t *testing.T) {
	cases := map[int]string{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
		-1: "",
	}
	for in, want := range cases {
		assert.Equal(t, want, indexToRowLabel(in), "index %d", in)
	}
}

func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []uint64{3, 1, 2}, dedupeIDs([]uint64{3, 1, 3, 0, 2, 1}))
	assert.Empty(t, dedupeIDs([]uint64{0, 0}))
	assert.Empty(t, dedupeIDs(nil))
}
