package oss

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shareustc/shareustc"
)

const deleteURLExpiry = 300

// PresignURL signs a URL granting method on key for expiresIn seconds from now.
// The result depends only on the configuration, the arguments and the clock.
func (c *Client) PresignURL(key string, expiresIn uint64, method string) (string, error) {
	if err := c.cfg.validateForSign(); err != nil {
		return "", fmt.Errorf("presign url: %w", err)
	}

	key = shareustc.NormalizeObjectKey(key)
	if key == "" {
		return "", fmt.Errorf("presign url: object key is empty: %w", shareustc.ErrValidation)
	}
	if expiresIn == 0 {
		return "", fmt.Errorf("presign url: expiry must be positive: %w", shareustc.ErrValidation)
	}

	method = strings.ToUpper(method)
	if method != http.MethodGet && method != http.MethodDelete {
		return "", fmt.Errorf("presign url: unsupported method %q: %w", method, shareustc.ErrValidation)
	}

	now := c.clock.Now().Unix()
	if expiresIn > uint64(math.MaxInt64-now) {
		return "", fmt.Errorf("presign url: expiry %d overflows the expiration time: %w", expiresIn, shareustc.ErrValidation)
	}

	expires := strconv.FormatInt(now+int64(expiresIn), 10)
	stringToSign := method + "\n\n\n" + expires + "\n/" + c.cfg.Bucket + "/" + key
	signature := shareustc.HMACSHA1Base64([]byte(c.cfg.AccessKeySecret), stringToSign)

	return c.cfg.BaseURL() + "/" + escapeKey(key) +
		"?OSSAccessKeyId=" + shareustc.PercentEncode(c.cfg.AccessKeyID) +
		"&Expires=" + shareustc.PercentEncode(expires) +
		"&Signature=" + shareustc.PercentEncode(signature), nil
}

// escapeKey escapes each path segment. The signature still covers the raw key.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// DeleteObject removes key from the bucket through a short-lived signed URL.
// A 404 from OSS counts as success.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	signed, err := c.PresignURL(key, deleteURLExpiry, http.MethodDelete)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, signed, nil)
	if err != nil {
		return fmt.Errorf("delete object: build request: %w: %w", shareustc.ErrRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete object: %w: %w", shareustc.ErrRequest, err)
	}
	defer resp.Body.Close()

	if (resp.StatusCode >= 200 && resp.StatusCode <= 299) || resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxSTSBody))
		c.logger.DebugContext(ctx, "oss object deleted", "key", shareustc.NormalizeObjectKey(key), "status", resp.StatusCode)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyEcho))
	return fmt.Errorf("delete object: %w: status=%s, body=%s", shareustc.ErrService, resp.Status, body)
}
