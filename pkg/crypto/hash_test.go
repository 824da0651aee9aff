package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	h1 := HashToken("token-a")
	h2 := HashToken("token-a")
	h3 := HashToken("token-b")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "token-a")
}

func TestVerifyTokenHash(t *testing.T) {
	hash := HashToken("secret")

	assert.True(t, VerifyTokenHash("secret", hash))
	assert.False(t, VerifyTokenHash("wrong", hash))
	assert.False(t, VerifyTokenHash("secret", "not-a-hash"))
}
