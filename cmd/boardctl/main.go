package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/client"
	"github.com/jmerrifield20/linkboard/pkg/keystore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

const defaultNodeURL = "http://localhost:8899"

var (
	nodeURL     string
	cfgFile     string
	keypairPath string
	timeout     time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "linkboard CLI",
	Long: `boardctl is the command-line interface for a linkboard node.

It manages keypairs, creates boards, appends links and reads boards back.
Settings are read from ~/.linkboard/config.yaml and LINKBOARD_* environment
variables; flags override both.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".linkboard"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("linkboard")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if nodeURL == "" {
			nodeURL = viper.GetString("url")
		}
		if nodeURL == "" {
			nodeURL = defaultNodeURL
		}
		if keypairPath == "" {
			keypairPath = viper.GetString("keypair")
		}
		if keypairPath == "" {
			keypairPath, _ = keystore.DefaultPath()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.linkboard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&nodeURL, "url", "", "node URL (default "+defaultNodeURL+")")
	rootCmd.PersistentFlags().StringVar(&keypairPath, "keypair", "", "keypair file (default ~/.linkboard/id.json)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(keygenCmd, addressCmd, balanceCmd, airdropCmd, adminTokenCmd)
	rootCmd.AddCommand(initCmd, appendCmd, showCmd, rentCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the boardctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "boardctl %s\n", version)
	},
}

// ── helpers ──────────────────────────────────────────────────────────────────

func newClient() (*client.Client, error) {
	opts := []client.Option{client.WithTimeout(timeout)}
	if token := viper.GetString("admin_token"); token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.New(nodeURL, opts...)
}

// loadKeypair opens the keypair at path, using LINKBOARD_PASSPHRASE for
// sealed files.
func loadKeypair(path string) (*address.Keypair, error) {
	k, err := keystore.Load(path, viper.GetString("passphrase"))
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return k, nil
}

// resolveAddress parses arg as an address, or falls back to the address of
// the configured keypair when arg is empty.
func resolveAddress(arg string) (address.Address, error) {
	if arg != "" {
		return address.Parse(arg)
	}
	k, err := loadKeypair(keypairPath)
	if err != nil {
		return address.Zero, err
	}
	return k.Address(), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
