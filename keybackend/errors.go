package keybackend

import "errors"

// ErrIncompleteKeyPair is returned when a credentials file lacks the id or the secret.
var ErrIncompleteKeyPair = errors.New("incomplete key pair")
