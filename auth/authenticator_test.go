package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaypops/Thrillway-Global-Concept-Backend/auth"
)

func TestVerifyIdentity(t *testing.T) {
	repo := setupRepo(t)
	registerAccount(t, repo, "jdoe", "jdoe@example.com", "correct-password")

	provider := auth.NewAuthenticator(repo)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    bool
	}{
		{name: "by username", identifier: "jdoe", password: "correct-password"},
		{name: "by email", identifier: "jdoe@example.com", password: "correct-password"},
		{name: "wrong password", identifier: "jdoe", password: "wrong-password", wantErr: true},
		{name: "unknown handle", identifier: "nobody", password: "correct-password", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := provider.VerifyIdentity(context.Background(), tt.identifier, tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, auth.IsInvalidCredentialsError(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "jdoe", identity.Username())
			assert.Equal(t, auth.RoleFieldAgent, identity.Role())
		})
	}
}

// The failure never reveals whether the handle or the password was at
// fault: both paths surface the identical error value.
func TestVerifyIdentityUniformFailure(t *testing.T) {
	repo := setupRepo(t)
	registerAccount(t, repo, "jdoe", "jdoe@example.com", "correct-password")

	provider := auth.NewAuthenticator(repo)
	ctx := context.Background()

	_, errWrongPassword := provider.VerifyIdentity(ctx, "jdoe", "wrong-password")
	_, errUnknownHandle := provider.VerifyIdentity(ctx, "nobody", "wrong-password")

	require.Error(t, errWrongPassword)
	require.Error(t, errUnknownHandle)
	assert.Equal(t, errWrongPassword.Error(), errUnknownHandle.Error())

	var a, b *goErr
	require.ErrorAs(t, errWrongPassword, &a)
	require.ErrorAs(t, errUnknownHandle, &b)
	assert.Equal(t, a.TextCode, b.TextCode)
}

func TestFindIdentityByID(t *testing.T) {
	repo := setupRepo(t)
	record := registerAccount(t, repo, "jdoe", "jdoe@example.com", "correct-password")

	provider := auth.NewAuthenticator(repo)
	ctx := context.Background()

	identity, err := provider.FindIdentityByID(ctx, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, record.ID.String(), identity.ID())

	_, err = provider.FindIdentityByID(ctx, "not-a-uuid")
	assert.Error(t, err)

	_, err = provider.FindIdentityByID(ctx, "0c4e2145-1f3e-4e5a-9ad9-23a3a07a47e1")
	assert.Error(t, err)
}
