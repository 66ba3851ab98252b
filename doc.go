// Package shareustc holds the trust boundary of the ShareUSTC resource-sharing
// platform: request authentication and object-storage credential signing.
//
// # Key Components
//
//   - TokenCodec: issues and verifies HS256 access and refresh tokens
//   - PathPolicy: decides which method/path pairs are reachable without credentials
//   - Authenticator: combines the two to classify a request as anonymous,
//     authenticated or rejected
//   - PercentEncode, CanonicalizeQuery, HMACSHA1Base64: the shared signing
//     primitives used by the oss package for STS calls and presigned URLs
//   - StorageService: issues upload credentials, presigned downloads and
//     deletes, writing each to an AuditRepo
//
// # Example Usage
//
//	codec, err := shareustc.NewTokenCodec(shareustc.TokenConfig{Secret: secret}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	auth := shareustc.NewAuthenticator(codec, shareustc.DefaultPathPolicy())
//	d := auth.Authenticate(r.URL.Path, r.Method, r.Header.Get("Authorization"))
//	if d.Rejected() {
//	    // 401
//	}
//
// See the http package for the REST API, the oss package for the Aliyun STS
// and OSS clients and the database package for audit storage backends.
package shareustc
