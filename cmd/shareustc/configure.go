package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shareustc/shareustc/oss"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a config file interactively",
	Long: `Prompt for the server, token and object-storage settings and write them
to a YAML config file. A JWT secret is generated when left blank.

Secrets end up in the file; it is written with mode 0600.`,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runConfigure,
}

func init() {
	configureCmd.Flags().StringP("output", "o", "config.yaml", "file to write")

	rootCmd.AddCommand(configureCmd)
}

// fileConfig is the subset of config.Config the wizard writes.
type fileConfig struct {
	Server   fileServer   `yaml:"server"`
	Auth     fileAuth     `yaml:"auth"`
	OSS      fileOSS      `yaml:"oss"`
	Database fileDatabase `yaml:"database"`
	Log      fileLog      `yaml:"log"`
}

type fileServer struct {
	Port int `yaml:"port"`
}

type fileAuth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type fileOSS struct {
	AccessKeyID        string `yaml:"access_key_id,omitempty"`
	AccessKeySecret    string `yaml:"access_key_secret,omitempty"`
	CredentialsFile    string `yaml:"credentials_file,omitempty"`
	Bucket             string `yaml:"bucket"`
	Region             string `yaml:"region"`
	Endpoint           string `yaml:"endpoint"`
	PublicURL          string `yaml:"public_url,omitempty"`
	STSRoleARN         string `yaml:"sts_role_arn"`
	STSSessionDuration uint64 `yaml:"sts_session_duration"`
}

type fileDatabase struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

type fileLog struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(path); err == nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s exists. Overwrite", path),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	cfg, err := promptConfig()
	if err != nil {
		return handlePromptError(err)
	}

	if err := writeConfigFile(path, cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func promptConfig() (*fileConfig, error) {
	cfg := &fileConfig{
		Log: fileLog{Level: "info", Env: "prod"},
	}

	portStr, err := (&promptui.Prompt{
		Label:    "HTTP port",
		Default:  "8080",
		Validate: validatePort,
	}).Run()
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	secret, err := (&promptui.Prompt{
		Label: "JWT secret (blank to generate)",
		Mask:  '*',
	}).Run()
	if err != nil {
		return nil, err
	}
	if secret == "" {
		if secret, err = generateSecret(); err != nil {
			return nil, err
		}
	}
	cfg.Auth.JWTSecret = secret

	if cfg.OSS.Bucket, err = (&promptui.Prompt{Label: "OSS bucket", Validate: required("bucket")}).Run(); err != nil {
		return nil, err
	}
	if cfg.OSS.Region, err = (&promptui.Prompt{Label: "OSS region", Default: oss.DefaultRegion}).Run(); err != nil {
		return nil, err
	}
	if cfg.OSS.Endpoint, err = (&promptui.Prompt{
		Label:    "OSS endpoint",
		Default:  "https://" + cfg.OSS.Region + ".aliyuncs.com",
		Validate: validateURL,
	}).Run(); err != nil {
		return nil, err
	}

	_, source, err := (&promptui.Select{
		Label: "Access key source",
		Items: []string{"inline", "credentials file"},
	}).Run()
	if err != nil {
		return nil, err
	}
	if source == "inline" {
		if cfg.OSS.AccessKeyID, err = (&promptui.Prompt{Label: "Access key ID", Validate: required("access key id")}).Run(); err != nil {
			return nil, err
		}
		if cfg.OSS.AccessKeySecret, err = (&promptui.Prompt{Label: "Access key secret", Mask: '*', Validate: required("access key secret")}).Run(); err != nil {
			return nil, err
		}
	} else {
		if cfg.OSS.CredentialsFile, err = (&promptui.Prompt{Label: "Credentials file", Validate: required("credentials file")}).Run(); err != nil {
			return nil, err
		}
	}

	if cfg.OSS.STSRoleARN, err = (&promptui.Prompt{Label: "STS role ARN", Validate: required("role arn")}).Run(); err != nil {
		return nil, err
	}
	cfg.OSS.STSSessionDuration = oss.DefaultSessionDuration

	_, cfg.Database.Type, err = (&promptui.Select{
		Label: "Audit database",
		Items: []string{"sqlite", "postgres"},
	}).Run()
	if err != nil {
		return nil, err
	}
	defaultDSN := "shareustc.db"
	if cfg.Database.Type == "postgres" {
		defaultDSN = "postgres://shareustc@localhost:5432/shareustc?sslmode=disable"
	}
	if cfg.Database.DSN, err = (&promptui.Prompt{Label: "Database DSN", Default: defaultDSN}).Run(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func writeConfigFile(path string, cfg *fileConfig) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func required(name string) promptui.ValidateFunc {
	return func(input string) error {
		if input == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func validateURL(input string) error {
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
