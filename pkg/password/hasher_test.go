package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := New(WithCost(bcrypt.MinCost))

	hash, err := h.Hash("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.NoError(t, h.Verify("Sup3rSecret", hash))
	assert.ErrorIs(t, h.Verify("wrong", hash), ErrPasswordMismatch)
	assert.ErrorIs(t, h.Verify("Sup3rSecret", "garbage"), ErrInvalidHash)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		policy   Policy
		wantErr  error
	}{
		{"meets default policy", "Passw0rd", DefaultPolicy(), nil},
		{"too short", "Pw1", DefaultPolicy(), ErrPasswordTooShort},
		{"missing uppercase", "passw0rd", DefaultPolicy(), ErrPasswordNoUppercase},
		{"missing lowercase", "PASSW0RD", DefaultPolicy(), ErrPasswordNoLowercase},
		{"missing number", "Password", DefaultPolicy(), ErrPasswordNoNumber},
		{"relaxed policy accepts lowercase only", "justletters", Policy{MinLength: 6, RequireLower: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(WithPolicy(tt.policy))
			err := h.Validate(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGenerateResetToken(t *testing.T) {
	t1, err := GenerateResetToken()
	require.NoError(t, err)
	t2, err := GenerateResetToken()
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
	assert.GreaterOrEqual(t, len(t1), 40)
}
