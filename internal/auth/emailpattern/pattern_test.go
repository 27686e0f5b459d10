package emailpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_Unconfigured(t *testing.T) {
	p, err := New("", "", "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func Test_New_PlainPattern(t *testing.T) {
	p, err := New("{uid}@example.com", "", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.Email("alice", false))
	assert.Equal(t, "alice@example.com", p.Email("alice", true))
}

func Test_New_AdminUserSplit(t *testing.T) {
	p, err := New("", "{uid}@admin.example.com", "{uid}@users.example.com")
	require.NoError(t, err)
	assert.Equal(t, "root@admin.example.com", p.Email("root", true))
	assert.Equal(t, "alice@users.example.com", p.Email("alice", false))
}

func Test_New_InvalidCombinations(t *testing.T) {
	cases := []struct {
		name                              string
		pattern, adminPattern, userPattern string
	}{
		{name: "plain with admin", pattern: "{uid}@e.com", adminPattern: "{uid}@a.com"},
		{name: "plain with user", pattern: "{uid}@e.com", userPattern: "{uid}@u.com"},
		{name: "admin without user", adminPattern: "{uid}@a.com"},
		{name: "user without admin", userPattern: "{uid}@u.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.pattern, tc.adminPattern, tc.userPattern)
			require.Error(t, err)
		})
	}
}
