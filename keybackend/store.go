// Package keybackend resolves the object-storage key pair from configuration.
package keybackend

// KeysConfig holds the inline key pair and an optional credentials file.
type KeysConfig struct {
	Inline KeyPair
	File   string
}

// Resolve returns the key pair to sign with. A credentials file, when set,
// takes precedence over inline values. An inline pair is returned as is, even
// when empty, so missing keys surface when an operation needs them.
func Resolve(cfg KeysConfig) (KeyPair, error) {
	if cfg.File == "" {
		return cfg.Inline, nil
	}
	return LoadKeyPairFromFile(cfg.File)
}
