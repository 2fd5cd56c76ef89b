package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraMap_SetGet(t *testing.T) {
	var m ExtraMap
	m.Set("Warranty", "2027")
	m.Set("Serial", "ABC123")
	m.Set("Warranty", "2028") // overwrite keeps position

	v, ok := m.Get("Warranty")
	require.True(t, ok)
	assert.Equal(t, "2028", v)

	_, ok = m.Get("Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Warranty", "Serial"}, m.Keys())
}

func TestExtraMap_MarshalPreservesOrder(t *testing.T) {
	var m ExtraMap
	m.Set("Zebra", "1")
	m.Set("Alpha", "2")
	m.Set("Mango", "3")

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"Zebra":"1","Alpha":"2","Mango":"3"}`, string(b))
}

func TestExtraMap_MarshalEmpty(t *testing.T) {
	b, err := json.Marshal(ExtraMap{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestExtraMap_UnmarshalPreservesOrder(t *testing.T) {
	var m ExtraMap
	err := json.Unmarshal([]byte(`{"b":"x","a":"y","c":"z"}`), &m)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
}

func TestExtraMap_UnmarshalCoercesValues(t *testing.T) {
	var m ExtraMap
	err := json.Unmarshal([]byte(`{"n":42,"f":true,"empty":null}`), &m)
	require.NoError(t, err)

	n, _ := m.Get("n")
	assert.Equal(t, "42", n)
	f, _ := m.Get("f")
	assert.Equal(t, "true", f)
	empty, _ := m.Get("empty")
	assert.Equal(t, "", empty)
}

func TestExtraMap_UnmarshalRejectsNonObject(t *testing.T) {
	var m ExtraMap
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &m))
}

func TestExtraMap_RoundTrip(t *testing.T) {
	var m ExtraMap
	m.Set("Warranty Until", "2027-01-01")
	m.Set("Supplier", "Acme & Co")

	b, err := json.Marshal(m)
	require.NoError(t, err)

	var back ExtraMap
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, m, back)
}

func TestExtraMap_ScanValue(t *testing.T) {
	var m ExtraMap
	m.Set("a", "1")

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1"}`, v)

	var scanned ExtraMap
	require.NoError(t, scanned.Scan([]byte(`{"a":"1","b":"2"}`)))
	assert.Equal(t, []string{"a", "b"}, scanned.Keys())

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}
