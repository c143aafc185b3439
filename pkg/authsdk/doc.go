/*
Package authsdk provides a client SDK for the gatehouse authentication service.

# Overview

The service authenticates browsers with a signed session cookie. SDKClient
behaves like a browser: it owns a cookie jar, so after SignUp, SignIn or a
passkey sign-in every later call is made as that user.

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Create an account (also signs in)
	sess, err := client.SignUp(ctx, authsdk.SignUpRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "Secret1!",
	})

	// Calls now carry the session cookie
	me, err := client.GetMe(ctx)

Use one SDKClient per simulated user. Redirects are never followed, so
StartOAuth returns the provider URL instead of visiting it.

# Password Reset

Reset requests always succeed from the caller's point of view, whether or
not the account exists:

	err := client.RequestPasswordReset(ctx, "alice@example.com")
	// code arrives by email
	err = client.ConfirmPasswordReset(ctx, authsdk.PasswordResetConfirmRequest{
		Email:       "alice@example.com",
		Code:        "123456",
		NewPassword: "Secret2!",
	})

# Passkeys

Ceremony options and responses are passed through as raw JSON so the SDK
does not depend on a WebAuthn implementation:

	options, err := client.BeginPasskeyRegistration(ctx)
	// hand options to an authenticator, get credential back
	key, err := client.FinishPasskeyRegistration(ctx, credential)

# Error Handling

Every non-2xx response becomes an *APIError carrying the HTTP status, a
stable code and a user-facing message:

	_, err := client.SignIn(ctx, email, password)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeAuthenticationFailed {
		fmt.Println(apiErr.Message)
	}

Validation failures use ErrorCodeValidation and list per-field messages in
Details.

# Thread Safety

SDKClient is safe for concurrent use, but concurrent sign-ins through one
client share a single cookie jar.
*/
package authsdk
