package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorAppendsFinalsAndReplacesInterim(t *testing.T) {
	var acc Accumulator

	acc.ApplyBatch([]Segment{{Text: "hel", Index: 0}})
	require.Equal(t, "hel", acc.CurrentText())
	require.Equal(t, "", acc.FinalOnlyText())

	acc.ApplyBatch([]Segment{{Text: "hello ", IsFinal: true, Index: 1}, {Text: "th", Index: 2}})
	require.Equal(t, "hello th", acc.CurrentText())
	require.Equal(t, "th", acc.Interim())

	acc.ApplyBatch([]Segment{{Text: "there ", IsFinal: true, Index: 3}})
	require.Equal(t, "hello there ", acc.CurrentText())
	require.Equal(t, "", acc.Interim())
	require.Equal(t, "hello there", acc.FinalOnlyText())
}

func TestAccumulatorEmptyBatchIsNoop(t *testing.T) {
	var acc Accumulator
	acc.ApplyBatch([]Segment{{Text: "one ", IsFinal: true}, {Text: "tw"}})

	acc.ApplyBatch(nil)
	acc.ApplyBatch([]Segment{})

	require.Equal(t, "one tw", acc.CurrentText())
}

func TestAccumulatorKeepsArrivalOrder(t *testing.T) {
	var acc Accumulator
	acc.ApplyBatch([]Segment{
		{Text: "b ", IsFinal: true, Index: 2},
		{Text: "a ", IsFinal: true, Index: 1},
	})
	require.Equal(t, "b a", acc.FinalOnlyText())
}

func TestAccumulatorInterimNeverBecomesFinal(t *testing.T) {
	var acc Accumulator
	acc.ApplyBatch([]Segment{{Text: "maybe"}})
	acc.ApplyBatch([]Segment{{Text: "sure ", IsFinal: true}})

	require.Equal(t, "sure", acc.FinalOnlyText())
	require.NotContains(t, acc.CurrentText(), "maybe")
}

func TestAccumulatorFinalTextIsMonotonic(t *testing.T) {
	batches := [][]Segment{
		{{Text: "a"}},
		{{Text: "a b ", IsFinal: true}, {Text: "c"}},
		{{Text: "c d"}},
		{},
		{{Text: "c d e ", IsFinal: true}},
		{{Text: "f"}, {Text: " g"}},
	}

	var acc Accumulator
	prev := ""
	for _, batch := range batches {
		acc.ApplyBatch(batch)
		current := acc.final.String()
		require.True(t, strings.HasPrefix(current, prev), "final text shrank: %q -> %q", prev, current)
		prev = current
	}
	require.Equal(t, "f g", acc.Interim())
}

func TestAccumulatorResetClearsEverything(t *testing.T) {
	var acc Accumulator
	acc.ApplyBatch([]Segment{{Text: "hello ", IsFinal: true}, {Text: "wor"}})

	acc.Reset()

	require.Equal(t, "", acc.CurrentText())
	require.Equal(t, "", acc.FinalOnlyText())
}

func TestNewSegment(t *testing.T) {
	require.Equal(t, Segment{Text: "hello there ", IsFinal: true, Index: 4}, NewSegment("  hello   there ", true, 4))
	require.Equal(t, Segment{Text: "hello", Index: 1}, NewSegment(" hello ", false, 1))
	require.Equal(t, Segment{Text: "", IsFinal: true}, NewSegment("   ", true, 0))
}
