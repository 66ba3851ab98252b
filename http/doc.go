// Package http provides the REST API of the ShareUSTC trust boundary service.
//
// Every request passes through AuthMiddleware, which asks a
// shareustc.Authenticator whether the path is public and, when a bearer token
// is present, who the caller is. Rejected requests get a 401 JSON error and
// never reach a handler.
//
// # Routes
//
//	GET    /api/health             public
//	POST   /api/auth/refresh       public, exchanges a refresh token for a new pair
//	GET    /api/users/me           authenticated
//	POST   /api/oss/sts-token      authenticated, {"prefix": "resources"|"images"}
//	GET    /api/oss/presign        authenticated, ?key=&expires=
//	DELETE /api/oss/objects/*      admin
//	GET    /api/admin/audit-logs   admin, ?limit=&cursor=&action=
//
// # Responses
//
// Successful responses use the envelope {"code":200,"message":...,"data":...}.
// Errors are {"code":status,"error":machine_code,"message":text}; configuration
// and upstream failures only ever return a generic message.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Authenticator: shareustc.NewAuthenticator(codec, nil),
//	    Tokens:        codec,
//	    Bucket:        http.BucketInfo{Bucket: "shareustc", Region: "oss-cn-shanghai"},
//	}, service)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
package http
