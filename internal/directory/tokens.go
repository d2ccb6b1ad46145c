package directory

import "context"

// StaticTokenSource supplies a fixed bearer token, for deployments where an
// external agent rotates the credential in the environment.
type StaticTokenSource string

func (s StaticTokenSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}
