package timeseries

import (
	"encoding/json"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadWithPreviousTotal(t *testing.T) {
	payload, err := DecodePayload([]byte(`[[{"date":"01.01.2024","b":2,"a":"3.5","flag":true}], 42]`))
	require.NoError(t, err)

	require.Len(t, payload.Current, 1)
	record := payload.Current[0]
	assert.Equal(t, "01.01.2024", record.Date)
	assert.Equal(t, []string{"b", "a", "flag"}, record.Keys)
	assert.Equal(t, map[string]float64{"b": 2, "a": 3.5, "flag": 1}, record.Values)
	assert.Equal(t, 42.0, payload.PreviousTotal)
	assert.False(t, payload.Comparison)
}

func TestDecodePayloadSentinelAndMissingTotal(t *testing.T) {
	payload, err := DecodePayload([]byte(`[[], -1]`))
	require.NoError(t, err)
	assert.Equal(t, float64(Unavailable), payload.PreviousTotal)

	payload, err = DecodePayload([]byte(`[[{"date":"01.01.2024","sum":1}]]`))
	require.NoError(t, err)
	assert.Equal(t, float64(Unavailable), payload.PreviousTotal)
	assert.Len(t, payload.Current, 1)
}

func TestDecodePayloadComparison(t *testing.T) {
	payload, err := DecodePayload([]byte(`[[{"date":"02.01.2024","sum":1}],[{"date":"01.01.2024","sum":2}]]`))
	require.NoError(t, err)
	assert.True(t, payload.Comparison)
	require.Len(t, payload.Previous, 1)
	assert.Equal(t, 2.0, payload.Previous[0].Values["sum"])
}

func TestDecodePayloadBareRecords(t *testing.T) {
	payload, err := DecodePayload([]byte(`[{"date":"02.01.2024","sum":1},{"date":"03.01.2024","sum":4}]`))
	require.NoError(t, err)
	assert.Len(t, payload.Current, 2)
	assert.Equal(t, float64(Unavailable), payload.PreviousTotal)
}

func TestDecodePayloadRejectsBadInput(t *testing.T) {
	_, err := DecodePayload([]byte(`{"date":"01.01.2024"}`))
	require.Error(t, err)

	_, err = DecodePayload([]byte(`[[{"date":"01.01.2024","sum":"lots"}], 1]`))
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))

	_, err = DecodePayload([]byte(`[[{"date":20240101,"sum":1}], 1]`))
	require.Error(t, err)
}

func TestPayloadRoundTripKeepsShape(t *testing.T) {
	in := Payload{
		Current:       []Record{NewRecord("01.01.2024").With("sum", 3).With("web", 1)},
		PreviousTotal: 7,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[[{"date":"01.01.2024","sum":3,"web":1}],7]`, string(data))

	out, err := DecodePayload(data)
	require.NoError(t, err)
	assert.Equal(t, in.Current[0].Keys, out.Current[0].Keys)
	assert.Equal(t, in.PreviousTotal, out.PreviousTotal)
}

func TestBucketJSONIsFlat(t *testing.T) {
	bucket := Bucket{Label: "01.01.2024", Fields: map[string]float64{"sum": 2, "prevSum": 1}}
	data, err := json.Marshal(bucket)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"01.01.2024","sum":2,"prevSum":1}`, string(data))

	var decoded Bucket
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, bucket, decoded)
}

func TestDecodePayloadRejectsNonJSONAsBadInput(t *testing.T) {
	for name, body := range map[string]string{
		"html page": "<html>bad gateway</html>",
		"truncated": `[[{"date":"01.01.2024"`,
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePayload([]byte(body))
			require.Error(t, err)
			assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))

			var gerr *goerrors.Error
			require.True(t, goerrors.As(err, &gerr))
			assert.Equal(t, TextCodeInvalidPayload, gerr.TextCode)
		})
	}
}
