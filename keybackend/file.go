package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// KeyPair is a RAM access key id and its secret.
type KeyPair struct {
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id"`
	AccessKeySecret string `json:"access_key_secret" mapstructure:"access_key_secret"`
}

// Complete reports whether both halves of the pair are set.
func (p KeyPair) Complete() bool {
	return strings.TrimSpace(p.AccessKeyID) != "" && strings.TrimSpace(p.AccessKeySecret) != ""
}

// LoadKeyPairFromFile loads a key pair from a JSON file:
//
//	{"access_key_id": "LTAI5t...", "access_key_secret": "..."}
//
// The Aliyun CLI spelling ("AccessKeyId"/"AccessKeySecret") is accepted too.
func LoadKeyPairFromFile(path string) (KeyPair, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return KeyPair{}, fmt.Errorf("read credentials file: %w", err)
	}

	var raw struct {
		KeyPair
		CLIAccessKeyID     string `json:"AccessKeyId"`
		CLIAccessKeySecret string `json:"AccessKeySecret"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return KeyPair{}, fmt.Errorf("parse credentials file: %w", err)
	}

	pair := raw.KeyPair
	if pair.AccessKeyID == "" {
		pair.AccessKeyID = raw.CLIAccessKeyID
	}
	if pair.AccessKeySecret == "" {
		pair.AccessKeySecret = raw.CLIAccessKeySecret
	}

	if !pair.Complete() {
		return KeyPair{}, fmt.Errorf("credentials file %s: %w", path, ErrIncompleteKeyPair)
	}

	return KeyPair{
		AccessKeyID:     strings.TrimSpace(pair.AccessKeyID),
		AccessKeySecret: strings.TrimSpace(pair.AccessKeySecret),
	}, nil
}
