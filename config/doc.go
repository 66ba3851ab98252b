// Package config provides configuration loading and validation for shareustc.
//
// The package handles YAML configuration files, a .env file, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables, including those exported from .env
//  4. CLI flags
//
// A .env file never overrides a variable that is already set.
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx = config.WithContext(ctx, cfg)
//
// # Environment Variables
//
// Every key maps to a SHAREUSTC_ variable:
//   - server.port → SHAREUSTC_SERVER_PORT
//   - auth.jwt_secret → SHAREUSTC_AUTH_JWT_SECRET
//   - oss.bucket → SHAREUSTC_OSS_BUCKET
//
// The unprefixed names used by earlier deployments are still read:
// JWT_SECRET, ALIYUN_ACCESS_KEY_ID, ALIYUN_ACCESS_KEY_SECRET, OSS_BUCKET,
// OSS_REGION, OSS_ENDPOINT, OSS_PUBLIC_URL, STS_ROLE_ARN, STS_SESSION_DURATION
// and DATABASE_URL (which sets database.dsn only; database.type must still
// say postgres).
//
// # Validation
//
// Only auth.jwt_secret is required. The oss section is checked lazily: a
// missing bucket or key surfaces as a configuration error from the operation
// that needs it, so a deployment without object storage can still issue and
// verify tokens.
package config
