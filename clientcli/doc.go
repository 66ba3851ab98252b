// Package clientcli is a client library for a running shareustc server.
//
// It calls the REST API with a bearer token: identity lookup, token refresh,
// STS upload credentials, presigned downloads, object deletion and the
// admin audit log. Profiles let an operator keep tokens for several
// deployments in one YAML file.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint:    "https://api.shareustc.example",
//		AccessToken: token,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.AuditLogs(ctx, clientcli.AuditOptions{Action: "object_deleted"})
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatAuditPage(os.Stdout, page)
package clientcli
