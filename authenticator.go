package shareustc

import (
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

// Decision is the outcome of authenticating a single request.
//
// Err is non-nil only for rejected requests. An accepted request carries an
// Identity, or nil when it proceeds anonymously on a public path.
type Decision struct {
	Public   bool
	Identity *Identity
	Err      error
}

// Rejected reports whether the request must not reach any handler.
func (d Decision) Rejected() bool { return d.Err != nil }

// Authenticator classifies requests as anonymous, authenticated or rejected.
type Authenticator struct {
	codec  *TokenCodec
	policy *PathPolicy
}

// NewAuthenticator creates an Authenticator. A nil policy uses DefaultPathPolicy.
func NewAuthenticator(codec *TokenCodec, policy *PathPolicy) *Authenticator {
	if policy == nil {
		policy = DefaultPathPolicy()
	}
	return &Authenticator{codec: codec, policy: policy}
}

// Authenticate applies the path policy and, when a bearer token is present,
// verifies it as an access token. Failures on public paths drop the identity
// instead of rejecting.
func (a *Authenticator) Authenticate(path, method, authorization string) Decision {
	public := a.policy.IsPublic(path, method)

	if authorization == "" {
		if public {
			return Decision{Public: true}
		}
		return Decision{Err: newAuthError(AuthMissingCredentials, nil)}
	}

	token, ok := strings.CutPrefix(authorization, bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		if public {
			return Decision{Public: true}
		}
		return Decision{Err: newAuthError(AuthMalformedCredentials, errors.New("authorization header is not a bearer token"))}
	}

	id, err := a.identify(strings.TrimSpace(token))
	if err != nil {
		if public {
			return Decision{Public: true}
		}
		return Decision{Err: err}
	}

	return Decision{Public: public, Identity: &id}
}

func (a *Authenticator) identify(token string) (Identity, error) {
	claims, err := a.codec.Verify(token, TokenAccess)
	if err != nil {
		return Identity{}, err
	}
	return ExtractIdentity(claims)
}
