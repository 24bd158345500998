package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/board"
	"github.com/jmerrifield20/linkboard/pkg/keystore"
	"github.com/spf13/cobra"
)

// ── init ─────────────────────────────────────────────────────────────────────

var initBoardKeypair string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new board funded by your keypair",
	Long: `init creates an empty board account. The board's own keypair is read
from --board-keypair, or generated and saved next to your keypair under
boards/<address>.json. Your keypair pays the board's rent-exempt balance.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, err := loadKeypair(keypairPath)
		if err != nil {
			return err
		}

		var boardKey *address.Keypair
		if initBoardKeypair != "" {
			if boardKey, err = loadKeypair(initBoardKeypair); err != nil {
				return err
			}
		} else {
			if boardKey, err = address.NewKeypair(); err != nil {
				return err
			}
			path := filepath.Join(filepath.Dir(keypairPath), "boards", boardKey.Address().String()+".json")
			if err := keystore.Save(path, boardKey, ""); err != nil {
				return fmt.Errorf("save board keypair: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved board keypair to %s\n", path)
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		receipt, err := c.Initialize(context.Background(), payer, boardKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Board:     %s\nSignature: %s\nSlot:      %d\n",
			boardKey.Address(), receipt.Signature, receipt.Slot)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initBoardKeypair, "board-keypair", "", "keypair file for the board account (default: generate one)")
}

// ── append ───────────────────────────────────────────────────────────────────

var appendCmd = &cobra.Command{
	Use:   "append <board> <link>",
	Short: "Append a link to a board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardAddr, err := address.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid board address: %w", err)
		}
		submitter, err := loadKeypair(keypairPath)
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		receipt, err := c.Append(context.Background(), boardAddr, submitter, args[1])
		if errors.Is(err, board.ErrCapacityExceeded) {
			return fmt.Errorf("board %s is full", boardAddr)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Appended\nSignature: %s\nSlot:      %d\n", receipt.Signature, receipt.Slot)
		return nil
	},
}

// ── show ─────────────────────────────────────────────────────────────────────

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show <board>",
	Short: "Print a board's entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardAddr, err := address.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid board address: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		b, err := c.GetBoard(context.Background(), boardAddr)
		if err != nil {
			return err
		}

		if showFormat == "json" {
			return printJSON(cmd, b)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Board %s: %d entries\n", b.Address, b.TotalEntries)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSUBMITTER\tLINK")
		for i, e := range b.Entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, e.Submitter, e.Link)
		}
		return w.Flush()
	},
}

func init() {
	showCmd.Flags().StringVar(&showFormat, "format", "text", "Output format: text or json")
}

// ── rent ─────────────────────────────────────────────────────────────────────

var rentCmd = &cobra.Command{
	Use:   "rent [space]",
	Short: "Print the rent-exempt minimum balance for an account size",
	Long: `rent asks the node for the minimum balance of an account of the given
data size in bytes (default: the size of a board account).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		space := uint64(board.Space)
		if len(args) == 1 {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid space %q", args[0])
			}
			space = n
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		lamports, err := c.MinimumBalance(context.Background(), space)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d lamports for %d bytes\n", lamports, space)
		return nil
	},
}
