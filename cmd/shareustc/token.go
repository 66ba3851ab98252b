package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a token for a user",
	Long: `Mint an access token, a refresh token, or both for the given user.
Intended for development and operations; tokens are signed with auth.jwt_secret.`,
	Example: `  shareustc token --username alice --role admin
  shareustc token --user-id 0b9a... --type refresh`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("user-id", "", "user id (default: random)")
	tokenCmd.Flags().String("username", "", "username (required)")
	tokenCmd.Flags().String("role", string(shareustc.RoleUser), "role: guest, user, verified, admin")
	tokenCmd.Flags().Bool("verified", false, "mark the user as verified")
	tokenCmd.Flags().String("type", "access", "token type: access, refresh, pair")
	_ = tokenCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	id, err := identityFromFlags(cmd)
	if err != nil {
		return err
	}

	codec, err := shareustc.NewTokenCodec(cfg.Auth.TokenConfig(), shareustc.SystemClock{})
	if err != nil {
		return fmt.Errorf("create token codec: %w", err)
	}

	typ, _ := cmd.Flags().GetString("type")
	out := cmd.OutOrStdout()

	switch typ {
	case "pair":
		pair, err := codec.IssuePair(id)
		if err != nil {
			return fmt.Errorf("issue pair: %w", err)
		}
		_, _ = fmt.Fprintf(out, "access_token:  %s\nrefresh_token: %s\nexpires_in:    %ds\n",
			pair.AccessToken, pair.RefreshToken, pair.ExpiresIn)
		return nil
	case "access", "refresh":
		tokenType, err := shareustc.ParseTokenType(typ)
		if err != nil {
			return err
		}
		token, exp, err := codec.Issue(id, tokenType)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		_, _ = fmt.Fprintln(out, token)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", exp.Format("2006-01-02 15:04:05 MST"))
		return nil
	default:
		return fmt.Errorf("unknown token type %q: use access, refresh or pair", typ)
	}
}

func identityFromFlags(cmd *cobra.Command) (shareustc.Identity, error) {
	rawID, _ := cmd.Flags().GetString("user-id")
	username, _ := cmd.Flags().GetString("username")
	role, _ := cmd.Flags().GetString("role")
	verified, _ := cmd.Flags().GetBool("verified")

	id := uuid.New()
	if rawID != "" {
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return shareustc.Identity{}, fmt.Errorf("invalid --user-id: %w", err)
		}
		id = parsed
	}

	return shareustc.Identity{
		ID:         id,
		Username:   username,
		Role:       shareustc.ParseRole(role),
		IsVerified: verified,
	}, nil
}
