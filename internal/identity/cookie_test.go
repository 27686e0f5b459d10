package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oidcp/pkg/domain-errors"
)

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	cases := []Assertion{
		{UID: "alice", Created: 1700000000},
		{UID: "bob", Created: 0},
		{UID: "admin-user", Created: 1700000123, Admin: true},
		{UID: "weird user+name@host", Created: 42},
	}
	for _, want := range cases {
		cookie, err := Encode(want)
		require.NoError(t, err)
		assert.Contains(t, cookie, CookiePrefix)

		got, err := Decode(cookie)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func Test_Encode_RequiresUID(t *testing.T) {
	_, err := Encode(Assertion{Created: 1700000000})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvalidAssertion, dErrors.CodeOf(err))
}

func Test_Decode_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		cookie string
	}{
		{name: "empty", cookie: ""},
		{name: "no prefix", cookie: `{"uid":"alice","created":1}`},
		{name: "wrong prefix", cookie: `hub:{"uid":"alice","created":1}`},
		{name: "not json", cookie: CookiePrefix + "not-json"},
		{name: "missing uid", cookie: CookiePrefix + `{"created":1}`},
		{name: "empty uid", cookie: CookiePrefix + `{"uid":"","created":1}`},
		{name: "missing created", cookie: CookiePrefix + `{"uid":"alice"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.cookie)
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeInvalidAssertion, dErrors.CodeOf(err))
		})
	}
}

func Test_Decode_AdminDefaultsFalse(t *testing.T) {
	got, err := Decode(CookiePrefix + `{"uid":"alice","created":7}`)
	require.NoError(t, err)
	assert.False(t, got.Admin)
}
