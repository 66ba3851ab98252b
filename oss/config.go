package oss

import (
	"fmt"
	"strings"

	"github.com/shareustc/shareustc"
)

const (
	DefaultRegion          = "oss-cn-shanghai"
	DefaultEndpoint        = "https://oss-cn-shanghai.aliyuncs.com"
	DefaultSTSEndpoint     = "https://sts.aliyuncs.com/"
	DefaultSessionDuration = 900

	MinSessionDuration = 900
	MaxSessionDuration = 3600
)

// Config is the static object-storage configuration. Missing values are only
// reported when an operation needs them.
type Config struct {
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
	Endpoint        string
	// PublicURL, when set, replaces https://{bucket}.{endpoint} in signed URLs.
	PublicURL          string
	STSRoleARN         string
	STSSessionDuration uint64
}

func (c Config) validateForSign() error {
	switch {
	case strings.TrimSpace(c.AccessKeyID) == "":
		return fmt.Errorf("oss access key id is not configured: %w", shareustc.ErrConfig)
	case strings.TrimSpace(c.AccessKeySecret) == "":
		return fmt.Errorf("oss access key secret is not configured: %w", shareustc.ErrConfig)
	case strings.TrimSpace(c.Bucket) == "":
		return fmt.Errorf("oss bucket is not configured: %w", shareustc.ErrConfig)
	}
	return nil
}

func (c Config) validateForSTS() error {
	if err := c.validateForSign(); err != nil {
		return err
	}
	if strings.TrimSpace(c.STSRoleARN) == "" {
		return fmt.Errorf("sts role arn is not configured: %w", shareustc.ErrConfig)
	}
	return nil
}

// sessionDuration clamps the configured duration to what STS accepts.
func (c Config) sessionDuration() uint64 {
	return min(max(c.STSSessionDuration, MinSessionDuration), MaxSessionDuration)
}

// BaseURL returns the origin used for signed object URLs, without a trailing slash.
func (c Config) BaseURL() string {
	if pub := strings.TrimSpace(c.PublicURL); pub != "" {
		return strings.TrimRight(pub, "/")
	}

	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimRight(endpoint, "/")
	return "https://" + c.Bucket + "." + endpoint
}
