package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcesses(t *testing.T) {
	procs := Processes()
	require.Len(t, procs, 8)

	// every entry belongs to a known value stream
	for _, p := range procs {
		require.True(t, ValidValueStream(p.ValueStream), "process %s has unknown stream %s", p.Key, p.ValueStream)
		require.NotEmpty(t, p.Name)
	}

	// returned slice is a copy
	procs[0].Key = "mutated"
	again := Processes()
	require.Equal(t, "S2P.01", again[0].Key)
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("DSS02")
	require.True(t, ok)
	require.Equal(t, "Manage Service Requests and Incidents", p.Name)
	require.Equal(t, Request2Fulfill, p.ValueStream)

	_, ok = Lookup("NOPE")
	require.False(t, ok)
}

func TestStreamIndex(t *testing.T) {
	require.Equal(t, 0, StreamIndex(Strategy2Portfolio))
	require.Equal(t, 1, StreamIndex(Requirement2Deploy))
	require.Equal(t, 2, StreamIndex(Request2Fulfill))
	require.Equal(t, 3, StreamIndex(Detect2Correct))

	// unknown streams fall back to the first column
	require.Equal(t, 0, StreamIndex("SomethingElse"))
}
