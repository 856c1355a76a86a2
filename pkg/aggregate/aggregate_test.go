package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type booking struct {
	status string
	nights int64
}

func TestCountBy(t *testing.T) {
	items := []booking{
		{status: "pending"},
		{status: "confirmed"},
		{status: "pending"},
		{status: "cancelled"},
		{status: "pending"},
	}

	got := CountBy(items, func(b booking) string { return b.status })

	assert.Equal(t, []Entry[string, int64]{
		{Key: "pending", Value: 3},
		{Key: "confirmed", Value: 1},
		{Key: "cancelled", Value: 1},
	}, got, "keys keep first-occurrence order")
}

func TestCountBy_Empty(t *testing.T) {
	got := CountBy(nil, func(b booking) string { return b.status })
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSumBy(t *testing.T) {
	items := []booking{
		{status: "confirmed", nights: 5},
		{status: "pending", nights: 2},
		{status: "confirmed", nights: 3},
	}

	got := SumBy(items,
		func(b booking) string { return b.status },
		func(b booking) int64 { return b.nights },
	)

	assert.Equal(t, []Entry[string, int64]{
		{Key: "confirmed", Value: 8},
		{Key: "pending", Value: 2},
	}, got)
}

func TestReduce_CustomFold(t *testing.T) {
	items := []booking{
		{status: "confirmed", nights: 5},
		{status: "confirmed", nights: 9},
		{status: "pending", nights: 2},
	}

	max := Reduce(items,
		func(b booking) string { return b.status },
		func(b booking) int64 { return b.nights },
		func(a, b int64) int64 {
			if a > b {
				return a
			}
			return b
		},
	)

	assert.Equal(t, []Entry[string, int64]{
		{Key: "confirmed", Value: 9},
		{Key: "pending", Value: 2},
	}, max)
}
