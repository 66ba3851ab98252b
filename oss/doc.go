// Package oss talks to Aliyun STS and OSS.
//
// Client.AssumeRole exchanges the long-lived RAM key pair for a temporary
// credential whose inline policy only permits uploads under one prefix.
// Client.PresignURL and Client.DeleteObject sign object URLs with the
// query-string scheme, so private objects can be read or removed without
// exposing the key pair.
//
// The key pair never leaves the process and neither it nor any signature is
// logged.
package oss
