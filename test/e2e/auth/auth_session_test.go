package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestSignUpSignInSignOut walks the password session lifecycle.
func TestSignUpSignInSignOut(t *testing.T) {
	svc := setupAuthContainer(t)
	ctx := t.Context()

	c := svc.client()
	created := signUp(t, c, "Alice", "alice@example.com")
	require.Equal(t, "user", created.User.Role)

	sess, err := c.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, created.User.ID, sess.User.ID)

	require.NoError(t, c.SignOut(ctx))
	require.False(t, c.Signed())

	_, err = c.GetSession(ctx)
	requireUnauthorized(t, err)

	// Email lookups are case-insensitive.
	sess, err = c.SignIn(ctx, "ALICE@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, created.User.ID, sess.User.ID)
	require.True(t, c.Signed())
}

// TestSignInRejected verifies wrong passwords and unknown accounts get the
// same answer.
func TestSignInRejected(t *testing.T) {
	svc := setupAuthContainer(t)
	ctx := t.Context()

	signUp(t, svc.client(), "Bob", "bob@example.com")

	_, err := svc.client().SignIn(ctx, "bob@example.com", "Wrong1!x")
	wrong := requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed)

	_, err = svc.client().SignIn(ctx, "nobody@example.com", testPassword)
	unknown := requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed)

	require.Equal(t, wrong.Message, unknown.Message)
}

// TestDuplicateSignUp verifies an email can only be registered once.
func TestDuplicateSignUp(t *testing.T) {
	svc := setupAuthContainer(t)

	signUp(t, svc.client(), "Carol", "carol@example.com")

	_, err := svc.client().SignUp(t.Context(), authsdk.SignUpRequest{
		Name: "Carol Again", Email: "Carol@Example.com", Password: testPassword,
	})
	requireAPIError(t, err, http.StatusConflict, authsdk.ErrorCodeConflict)
}

// TestProfileAndPassword covers the signed-in account endpoints.
func TestProfileAndPassword(t *testing.T) {
	svc := setupAuthContainer(t)
	ctx := t.Context()

	c := svc.client()
	signUp(t, c, "Dave", "dave@example.com")

	me, err := c.GetMe(ctx)
	require.NoError(t, err)
	require.Equal(t, "Dave", me.Name)
	require.True(t, me.HasPassword)
	require.False(t, me.EmailVerified)

	updated, err := c.UpdateProfile(ctx, "David")
	require.NoError(t, err)
	require.Equal(t, "David", updated.Name)

	_, err = c.ChangePassword(ctx, "Wrong1!x", "Another2@")
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed)

	_, err = c.ChangePassword(ctx, testPassword, "Another2@")
	require.NoError(t, err)

	_, err = c.CreatePassword(ctx, "Third3#x")
	requireAPIError(t, err, http.StatusConflict, authsdk.ErrorCodeConflict)

	_, err = svc.client().SignIn(ctx, "dave@example.com", "Another2@")
	require.NoError(t, err)
}

// TestUserPermissions verifies users can read and delete only themselves.
func TestUserPermissions(t *testing.T) {
	svc := setupAuthContainer(t)
	ctx := t.Context()

	alice := svc.client()
	aliceID := signUp(t, alice, "Alice", "alice@example.com").User.ID
	bob := svc.client()
	bobID := signUp(t, bob, "Bob", "bob@example.com").User.ID

	_, err := alice.GetUser(ctx, bobID)
	requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeForbidden)

	err = alice.DeleteUser(ctx, bobID)
	requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeForbidden)

	self, err := alice.GetUser(ctx, aliceID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", self.Email)

	require.NoError(t, bob.DeleteUser(ctx, bobID))
	require.False(t, bob.Signed(), "deleting yourself signs you out")

	_, err = svc.client().SignIn(ctx, "bob@example.com", testPassword)
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeAuthenticationFailed)
}

// TestTamperedSession verifies a modified session cookie is not accepted.
func TestTamperedSession(t *testing.T) {
	svc := setupAuthContainer(t)
	ctx := t.Context()

	c := svc.client()
	signUp(t, c, "Eve", "eve@example.com")

	ck, ok := c.SessionCookie()
	require.True(t, ok)

	forged := svc.client()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.BaseURL+"/v1/auth/session", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: authsdk.SessionCookieName, Value: ck.Value + "x"})

	resp, err := forged.HTTPClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
