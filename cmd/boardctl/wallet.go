package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/client"
	"github.com/jmerrifield20/linkboard/pkg/keystore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ── keygen ───────────────────────────────────────────────────────────────────

var (
	keygenOut   string
	keygenForce bool
	keygenSeal  bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new keypair file",
	Long: `keygen writes a fresh Ed25519 keypair to --out (default: the --keypair
path). With --seal the secret is encrypted under LINKBOARD_PASSPHRASE.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := keygenOut
		if path == "" {
			path = keypairPath
		}
		if _, err := os.Stat(path); err == nil && !keygenForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		passphrase := ""
		if keygenSeal {
			passphrase = viper.GetString("passphrase")
			if passphrase == "" {
				return errors.New("--seal requires LINKBOARD_PASSPHRASE")
			}
		}

		k, err := address.NewKeypair()
		if err != nil {
			return err
		}
		if err := keystore.Save(path, k, passphrase); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nAddress: %s\n", path, k.Address())
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "output path (default: --keypair)")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "overwrite an existing file")
	keygenCmd.Flags().BoolVar(&keygenSeal, "seal", false, "encrypt the secret with LINKBOARD_PASSPHRASE")
}

// ── address ──────────────────────────────────────────────────────────────────

var addressCmd = &cobra.Command{
	Use:   "address [keypair-file]",
	Short: "Print the address of a keypair file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := keypairPath
		if len(args) == 1 {
			path = args[0]
		}
		k, err := loadKeypair(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), k.Address())
		return nil
	},
}

// ── balance ──────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Print the lamport balance of an address (default: your keypair)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(firstArg(args))
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		bal, err := c.Balance(context.Background(), addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d lamports\n", bal)
		return nil
	},
}

// ── admin-token ──────────────────────────────────────────────────────────────

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Exchange LINKBOARD_ADMIN_SECRET for an admin bearer token",
	Long: `admin-token prints a short-lived admin token. Export it as
LINKBOARD_ADMIN_TOKEN to authorise later airdrop commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := viper.GetString("admin_secret")
		if secret == "" {
			return errors.New("LINKBOARD_ADMIN_SECRET is not set")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		token, ttl, err := c.AdminToken(context.Background(), secret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires in %s\n", ttl)
		return nil
	},
}

// ── airdrop ──────────────────────────────────────────────────────────────────

var airdropCmd = &cobra.Command{
	Use:   "airdrop <lamports> [address]",
	Short: "Credit lamports from the node's faucet (admin only)",
	Long: `airdrop asks the node's faucet to credit lamports to an address
(default: your keypair). It uses LINKBOARD_ADMIN_TOKEN when set, otherwise it
exchanges LINKBOARD_ADMIN_SECRET for a token first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lamports, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || lamports == 0 {
			return fmt.Errorf("invalid lamport amount %q", args[0])
		}
		addr, err := resolveAddress(firstArg(args[1:]))
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		if viper.GetString("admin_token") == "" {
			secret := viper.GetString("admin_secret")
			if secret == "" {
				return errors.New("set LINKBOARD_ADMIN_TOKEN or LINKBOARD_ADMIN_SECRET")
			}
			if _, _, err := c.AdminToken(ctx, secret); err != nil {
				return err
			}
		}

		res, err := c.Airdrop(ctx, addr, lamports)
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("faucet refused the admin token: %w", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Airdropped %d lamports to %s\nBalance:   %d\nSignature: %s\n",
			lamports, addr, res.Balance, res.Signature)
		return nil
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
