package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPassword(t *testing.T) {
	cases := map[string]bool{
		"Passw0rd!":                       true,
		"aB3$efgh":                        true,
		"aB3$efg":                         false, // too short
		"aB3$efghijklmnopqrstuvwxyz12345": false, // 31 chars
		"password1!":                      false, // no upper
		"PASSWORD1!":                      false, // no lower
		"Password!!":                      false, // no digit
		"Password12":                      false, // no symbol
		"Password1?":                      false, // ? is not an accepted symbol
	}
	for pw, want := range cases {
		assert.Equal(t, want, ValidPassword(pw), pw)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ada@example.com"))
	assert.True(t, ValidEmail("a.b+c@sub.example.org"))
	assert.False(t, ValidEmail("ada@example"))
	assert.False(t, ValidEmail("ada example@x.com"))
	assert.False(t, ValidEmail("@example.com"))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	require.NoError(t, err)

	assert.NotEqual(t, "Passw0rd!", hash)
	assert.True(t, CheckPasswordHash("Passw0rd!", hash))
	assert.False(t, CheckPasswordHash("Passw0rd?", hash))
}
