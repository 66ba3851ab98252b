package oss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shareustc/shareustc"
)

const (
	stsTimestampFormat = "2006-01-02T15:04:05Z"
	maxSTSBody         = 1 << 20
	maxErrorBodyEcho   = 512
)

var uploadActions = []string{
	"oss:PutObject",
	"oss:InitiateMultipartUpload",
	"oss:UploadPart",
	"oss:CompleteMultipartUpload",
	"oss:AbortMultipartUpload",
	"oss:ListParts",
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// BuildUploadPolicy returns the inline STS policy allowing uploads to
// {bucket}/{prefix}/* and nothing else.
func BuildUploadPolicy(bucket, prefix string) string {
	doc := policyDocument{
		Version: "1",
		Statement: []policyStatement{{
			Effect:   "Allow",
			Action:   uploadActions,
			Resource: []string{fmt.Sprintf("acs:oss:*:*:%s/%s/*", bucket, prefix)},
		}},
	}
	// A struct of strings always marshals.
	b, _ := json.Marshal(doc)
	return string(b)
}

type stsSuccessResponse struct {
	Credentials *struct {
		AccessKeyID     string `json:"AccessKeyId"`
		AccessKeySecret string `json:"AccessKeySecret"`
		SecurityToken   string `json:"SecurityToken"`
		Expiration      string `json:"Expiration"`
	} `json:"Credentials"`
}

type stsErrorResponse struct {
	Code      string `json:"Code"`
	Message   string `json:"Message"`
	RequestID string `json:"RequestId"`
}

// AssumeRole requests a temporary credential restricted to uploads under prefix.
// Configuration and prefix are checked before any network traffic.
func (c *Client) AssumeRole(ctx context.Context, prefix string) (shareustc.StsCredential, error) {
	if err := c.cfg.validateForSTS(); err != nil {
		return shareustc.StsCredential{}, fmt.Errorf("assume role: %w", err)
	}

	p, err := shareustc.ParseUploadPrefix(prefix)
	if err != nil {
		return shareustc.StsCredential{}, fmt.Errorf("assume role: %w", err)
	}

	reqURL := c.signedSTSURL(string(p))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return shareustc.StsCredential{}, fmt.Errorf("assume role: build request: %w: %w", shareustc.ErrRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shareustc.StsCredential{}, fmt.Errorf("assume role: %w: %w", shareustc.ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSTSBody))
	if err != nil {
		return shareustc.StsCredential{}, fmt.Errorf("assume role: read response: %w: %w", shareustc.ErrRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, message := strconv.Itoa(resp.StatusCode), "STS service returned an error"
		var se stsErrorResponse
		if json.Unmarshal(body, &se) == nil {
			if se.Code != "" {
				code = se.Code
			}
			if se.Message != "" {
				message = se.Message
			}
		}
		c.logger.WarnContext(ctx, "sts assume role rejected",
			"status", resp.StatusCode,
			"code", code,
			"request_id", se.RequestID,
		)
		return shareustc.StsCredential{}, fmt.Errorf("assume role: %w: %s: %s", shareustc.ErrService, code, message)
	}

	var ok stsSuccessResponse
	if err := json.Unmarshal(body, &ok); err != nil || ok.Credentials == nil {
		if err == nil {
			err = errors.New("missing Credentials")
		}
		return shareustc.StsCredential{}, fmt.Errorf("assume role: %w: parse response: %v, body: %s",
			shareustc.ErrService, err, truncate(body, maxErrorBodyEcho))
	}

	c.logger.DebugContext(ctx, "sts credential issued", "prefix", p, "expiration", ok.Credentials.Expiration)

	return shareustc.StsCredential{
		AccessKeyID:     ok.Credentials.AccessKeyID,
		AccessKeySecret: ok.Credentials.AccessKeySecret,
		SecurityToken:   ok.Credentials.SecurityToken,
		Expiration:      ok.Credentials.Expiration,
	}, nil
}

// signedSTSURL builds the full AssumeRole GET URL including its Signature.
func (c *Client) signedSTSURL(prefix string) string {
	nonce := uuid.NewString()

	params := map[string]string{
		"AccessKeyId":      c.cfg.AccessKeyID,
		"Action":           "AssumeRole",
		"Format":           "JSON",
		"Version":          "2015-04-01",
		"SignatureMethod":  "HMAC-SHA1",
		"Timestamp":        c.clock.Now().UTC().Format(stsTimestampFormat),
		"SignatureVersion": "1.0",
		"SignatureNonce":   nonce,
		"RoleArn":          c.cfg.STSRoleARN,
		"RoleSessionName":  "shareustc-" + prefix + "-" + nonce[:8],
		"DurationSeconds":  strconv.FormatUint(c.cfg.sessionDuration(), 10),
		"Policy":           BuildUploadPolicy(c.cfg.Bucket, prefix),
	}

	stringToSign := shareustc.StringToSignSTS(shareustc.CanonicalizeQuery(params))
	params["Signature"] = shareustc.HMACSHA1Base64(shareustc.STSSigningKey(c.cfg.AccessKeySecret), stringToSign)

	return strings.TrimRight(c.stsEndpoint, "/") + "/?" + shareustc.CanonicalizeQuery(params)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
