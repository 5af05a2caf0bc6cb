package httpapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBool(t *testing.T) {
	q := url.Values{"on": {"true"}, "off": {"0"}, "bad": {"maybe"}}

	b, err := queryBool(q, "on", false)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = queryBool(q, "off", true)
	require.NoError(t, err)
	assert.False(t, b)

	b, err = queryBool(q, "absent", true)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = queryBool(q, "bad", false)
	assert.EqualError(t, err, "bad must be a boolean")
}

func TestQueryCount(t *testing.T) {
	q := url.Values{"n": {"5"}, "neg": {"-1"}, "word": {"five"}}

	n, err := queryCount(q, "n", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = queryCount(q, "absent", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = queryCount(q, "neg", 0)
	assert.EqualError(t, err, "neg must be a non-negative integer")
	_, err = queryCount(q, "word", 0)
	assert.Error(t, err)
}
