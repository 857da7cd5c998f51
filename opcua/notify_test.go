package opcua

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gopcua/opcua/ua"
	"github.com/nextabc-lab/edgex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetName(t *testing.T) {
	cases := map[string]string{
		"ns=2;s=0:FIT-321.CV":          "ns=2;s=0:FIT-321.CV",
		"NodeId(ns=2;s=0:FIT-321.CV)":  "ns=2;s=0:FIT-321.CV",
		"ns=2;s=0:TE200-07/AI1/OUT.CV": "ns=2;s=0:TE200-07/AI1/OUT.CV",
		"ns=3;s=Tank(1).Level":         "ns=3;s=Tank1.Level",
		"i=2258":                       "i=2258",
		"(i=2258)":                     "i=2258",
		"":                             "",
	}
	for rendered, expected := range cases {
		asset := AssetName(rendered)
		assert.Equal(t, expected, asset, "rendered: %q", rendered)
		assert.Equal(t, asset, AssetName(asset), "not idempotent: %q", rendered)
	}
}

func TestNewCorrelationKey(t *testing.T) {
	keys := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		key := NewCorrelationKey()
		_, err := uuid.Parse(key)
		require.NoError(t, err)
		keys[key] = struct{}{}
	}
	assert.Len(t, keys, 1000)
}

func TestDataValueOf(t *testing.T) {
	cases := []struct {
		in       interface{}
		expected interface{}
	}{
		{in: 42.5, expected: 42.5},
		{in: float32(1.5), expected: float64(1.5)},
		{in: int32(-7), expected: int64(-7)},
		{in: uint16(9), expected: uint64(9)},
		{in: true, expected: true},
		{in: "RUN", expected: "RUN"},
		{in: ua.StatusCode(0x80340000), expected: uint64(0x80340000)},
		{in: []int32{1, 2, 3}, expected: []interface{}{int64(1), int64(2), int64(3)}},
	}
	for _, c := range cases {
		v, err := DataValueOf(&ua.DataValue{Value: ua.MustVariant(c.in)})
		require.NoError(t, err, "in: %v", c.in)
		assert.Equal(t, c.expected, v)
	}
}

func TestDataValueOf_Missing(t *testing.T) {
	_, err := DataValueOf(nil)
	assert.Error(t, err)
	_, err = DataValueOf(&ua.DataValue{})
	assert.Error(t, err)
}

func TestAdapter_OnDataChange(t *testing.T) {
	log, _ := observedLogger()
	var readings []edgex.Reading
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	a := newAdapter(log, func(r edgex.Reading) {
		readings = append(readings, r)
	})
	a.now = func() time.Time { return now }
	a.newKey = func() string { return "key-1" }

	a.OnDataChange(ua.NewStringNodeID(2, "0:FIT-321.CV"), &ua.DataValue{Value: ua.MustVariant(42.5)})
	require.Len(t, readings, 1)
	assert.Equal(t, edgex.Reading{
		Asset:     "ns=2;s=0:FIT-321.CV",
		Timestamp: now,
		Key:       "key-1",
		Readings:  map[string]interface{}{"value": 42.5},
	}, readings[0])
}

func TestAdapter_DropsUnconvertible(t *testing.T) {
	log, logs := observedLogger()
	forwarded := 0
	a := newAdapter(log, func(edgex.Reading) { forwarded++ })

	a.OnDataChange(ua.NewNumericNodeID(0, 2258), &ua.DataValue{})
	a.OnDataChange(ua.NewNumericNodeID(0, 2258), nil)
	assert.Equal(t, 0, forwarded)
	assert.Equal(t, 2, countStage(logs, "notify"))
}
