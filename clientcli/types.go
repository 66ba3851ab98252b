package clientcli

import (
	"encoding/json"
	"time"
)

// UploadCredential is the STS credential the server hands out, plus the
// bucket coordinates needed to use it.
type UploadCredential struct {
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
	Expiration      string `json:"expiration"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
}

// DeleteResult represents the result of deleting a single object.
type DeleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// AuditOptions configures an audit log query.
type AuditOptions struct {
	Limit  int
	Action string
	Cursor string
	All    bool // follow next cursors until exhausted
}

// PresignResult is a signed download URL.
type PresignResult struct {
	Key     string        `json:"key"`
	URL     string        `json:"url"`
	Expires time.Duration `json:"-"`
}

// envelope mirrors the server's success and error bodies.
type envelope struct {
	Code    int             `json:"code"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
