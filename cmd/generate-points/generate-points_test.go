package main

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	buf := &bytes.Buffer{}
	start := time.Unix(1000000, 0)
	require.NoError(t, generate(buf, rand.New(rand.NewSource(1)), start, 3*stepEvery))

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3*stepEvery+1)
	assert.Equal(t, []string{"time", "version", "throughput", "latency"}, records[0])

	prev := int64(0)
	for _, record := range records[1:] {
		ts, err := strconv.ParseInt(record[0], 10, 64)
		require.NoError(t, err)
		assert.True(t, ts > prev)
		prev = ts
	}

	throughput := func(idx int) float64 {
		v, err := strconv.ParseFloat(records[idx+1][2], 64)
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, 1000, throughput(0), 1000*noise)
	assert.InDelta(t, 1000/stepFactor, throughput(stepEvery), 1000*noise)
	assert.InDelta(t, 1000, throughput(2*stepEvery), 1000*noise)
}
