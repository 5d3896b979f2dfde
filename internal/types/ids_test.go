package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)

	_, err := ParseID(a.String())
	assert.NoError(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("b3c9e9a0-0f9f-4b56-9a3e-0a4a7b1c2d3e")
	require.NoError(t, err)
	assert.Equal(t, "b3c9e9a0-0f9f-4b56-9a3e-0a4a7b1c2d3e", id.String())

	_, err = ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

func TestIDJSONRoundTrip(t *testing.T) {
	id := NewID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var back ID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)
}

func TestIDJSONZero(t *testing.T) {
	var zero ID

	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var back ID
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsZero())
}

func TestIDJSONInvalid(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &id))
	assert.Error(t, json.Unmarshal([]byte(`42`), &id))
}
