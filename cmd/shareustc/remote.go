package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shareustc/shareustc/clientcli"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Call a running shareustc server with a bearer token",
	Long: `Commands under remote talk to a deployed server over its REST API
instead of opening the local config and database.

Endpoint and tokens resolve in this order, later wins:
  1. the profile in ~/.shareustc/client.yaml (--profile or SHAREUSTC_PROFILE)
  2. SHAREUSTC_ENDPOINT, SHAREUSTC_ACCESS_TOKEN, SHAREUSTC_REFRESH_TOKEN
  3. --endpoint, --token, --refresh-token`,
	Annotations: map[string]string{skipConfig: "true"},
}

var remoteLoginCmd = &cobra.Command{
	Use:   "login <profile>",
	Short: "Save an endpoint and tokens as a named profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteLogin,
}

var remoteProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List saved profiles; the default is starred",
	Args:  cobra.NoArgs,
	RunE:  runRemoteProfiles,
}

var remoteMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the identity behind the access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, f, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		id, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		return f.FormatIdentity(cmd.OutOrStdout(), id)
	},
}

var remoteRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new pair",
	Long: `Exchange the refresh token for a new token pair. When the tokens came
from a profile, the profile is updated in place.`,
	Args: cobra.NoArgs,
	RunE: runRemoteRefresh,
}

var remoteStsCmd = &cobra.Command{
	Use:       "sts <resources|images>",
	Short:     "Request STS upload credentials for a prefix",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"resources", "images"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, f, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		cred, err := client.UploadCredentials(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return f.FormatCredential(cmd.OutOrStdout(), cred)
	},
}

var remotePresignCmd = &cobra.Command{
	Use:   "presign <key>",
	Short: "Ask the server for a presigned download URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, f, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		expires, _ := cmd.Flags().GetDuration("expires")
		res, err := client.Presign(cmd.Context(), args[0], expires)
		if err != nil {
			return err
		}
		return f.FormatPresign(cmd.OutOrStdout(), res)
	},
}

var remoteRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Delete objects through the server (admin token required)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, f, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		results, err := client.Delete(cmd.Context(), args...)
		if err != nil {
			return err
		}
		if err := f.FormatDelete(cmd.OutOrStdout(), results); err != nil {
			return err
		}
		if clientcli.HasDeleteErrors(results) {
			return errors.New("some objects were not deleted")
		}
		return nil
	},
}

var remoteAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the server's audit log (admin token required)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, f, err := remoteClient(cmd)
		if err != nil {
			return err
		}

		opts := clientcli.AuditOptions{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Action, _ = cmd.Flags().GetString("action")
		opts.Cursor, _ = cmd.Flags().GetString("cursor")
		opts.All, _ = cmd.Flags().GetBool("all")

		page, err := client.AuditLogs(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return f.FormatAuditPage(cmd.OutOrStdout(), page)
	},
}

func init() {
	pf := remoteCmd.PersistentFlags()
	pf.String("endpoint", "", "server URL (env: SHAREUSTC_ENDPOINT)")
	pf.String("token", "", "access token (env: SHAREUSTC_ACCESS_TOKEN)")
	pf.String("refresh-token", "", "refresh token (env: SHAREUSTC_REFRESH_TOKEN)")
	pf.String("profile", "", "profile name (env: SHAREUSTC_PROFILE)")
	pf.String("client-config", "", "profile file (default: ~/.shareustc/client.yaml)")
	pf.Bool("json", false, "print JSON")
	pf.BoolP("quiet", "q", false, "print less")

	remoteLoginCmd.Flags().Bool("default", false, "make this the default profile")
	remotePresignCmd.Flags().Duration("expires", 0, "URL lifetime (default: server default)")
	remoteAuditCmd.Flags().Int("limit", 0, "entries per page")
	remoteAuditCmd.Flags().String("action", "", "only this action")
	remoteAuditCmd.Flags().String("cursor", "", "continue from a previous page")
	remoteAuditCmd.Flags().Bool("all", false, "follow every page")

	remoteCmd.AddCommand(remoteLoginCmd, remoteProfilesCmd, remoteMeCmd, remoteRefreshCmd,
		remoteStsCmd, remotePresignCmd, remoteRmCmd, remoteAuditCmd)
	rootCmd.AddCommand(remoteCmd)
}

func clientConfigPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("client-config"); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// loadProfile returns the selected profile, or nil when no profile file
// exists and none was asked for by name.
func loadProfile(cmd *cobra.Command) (*clientcli.ConfigFile, *clientcli.Profile, error) {
	name, _ := cmd.Flags().GetString("profile")
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	cf, err := clientcli.LoadConfigFile(clientConfigPath(cmd))
	if err != nil {
		if name == "" && errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	p, err := cf.GetProfile(name)
	if err != nil {
		if name == "" && errors.Is(err, clientcli.ErrNoProfiles) {
			return cf, nil, nil
		}
		return nil, nil, err
	}
	return cf, p, nil
}

func flagConfig(cmd *cobra.Command) *clientcli.Config {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	token, _ := cmd.Flags().GetString("token")
	refresh, _ := cmd.Flags().GetString("refresh-token")
	return &clientcli.Config{Endpoint: endpoint, AccessToken: token, RefreshToken: refresh}
}

func formatter(cmd *cobra.Command) clientcli.Formatter {
	jsonOut, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return clientcli.NewFormatter(jsonOut, quiet)
}

func remoteClient(cmd *cobra.Command) (*clientcli.Client, clientcli.Formatter, error) {
	_, profile, err := loadProfile(cmd)
	if err != nil {
		return nil, nil, err
	}

	cfg := clientcli.MergeConfig(clientcli.ConfigFromProfile(profile), clientcli.ConfigFromEnv(), flagConfig(cmd))
	client, err := clientcli.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, formatter(cmd), nil
}

func runRemoteLogin(cmd *cobra.Command, args []string) error {
	path := clientConfigPath(cmd)
	if path == "" {
		return errors.New("no home directory; pass --client-config")
	}

	cf, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cf = &clientcli.ConfigFile{}
	}

	cfg := clientcli.MergeConfig(clientcli.ConfigFromEnv(), flagConfig(cmd))
	p := clientcli.Profile{
		Name:         args[0],
		Endpoint:     cfg.WithDefaults().Endpoint,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
	}

	cf.Put(p)

	if makeDefault, _ := cmd.Flags().GetBool("default"); makeDefault {
		if err := cf.SetDefault(p.Name); err != nil {
			return err
		}
	}

	if err := cf.Save(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved profile %s to %s\n", p.Name, path)
	return nil
}

func runRemoteProfiles(cmd *cobra.Command, _ []string) error {
	cf, err := clientcli.LoadConfigFile(clientConfigPath(cmd))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return clientcli.ErrNoProfiles
		}
		return err
	}
	for _, p := range cf.Profiles {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), clientcli.ProfileLine(p))
	}
	return nil
}

func runRemoteRefresh(cmd *cobra.Command, _ []string) error {
	cf, profile, err := loadProfile(cmd)
	if err != nil {
		return err
	}

	cfg := clientcli.MergeConfig(clientcli.ConfigFromProfile(profile), clientcli.ConfigFromEnv(), flagConfig(cmd))
	client, err := clientcli.New(cfg)
	if err != nil {
		return err
	}

	pair, err := client.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if profile != nil {
		profile.AccessToken = pair.AccessToken
		profile.RefreshToken = pair.RefreshToken
		if err := cf.Save(clientConfigPath(cmd)); err != nil {
			return fmt.Errorf("save refreshed tokens: %w", err)
		}
	}

	return formatter(cmd).FormatTokenPair(cmd.OutOrStdout(), pair)
}
