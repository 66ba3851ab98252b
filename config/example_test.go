package config_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/shareustc/shareustc/config"
)

func ExampleLoad() {
	f, err := os.CreateTemp("", "shareustc-*.yaml")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	_, _ = f.WriteString("auth:\n  jwt_secret: example-secret\noss:\n  bucket: shareustc\n")
	_ = f.Close()

	cfg, err := config.Load([]string{f.Name()}, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, Bucket: %s, Region: %s\n", cfg.Server.Port, cfg.OSS.Bucket, cfg.OSS.Region)
	// Output: Port: 8080, Bucket: shareustc, Region: oss-cn-shanghai
}

func ExampleWithContext() {
	cfg := &config.Config{}
	cfg.Server.Port = 8080

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved port: %d\n", retrieved.Server.Port)
	// Output: Retrieved port: 8080
}
