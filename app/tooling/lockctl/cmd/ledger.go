package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type stats struct {
	TotalBlocks  uint32 `json:"total_blocks"`
	Capacity     uint32 `json:"capacity"`
	LatestHash   string `json:"latest_hash"`
	LatestID     uint32 `json:"latest_id"`
	Transactions uint32 `json:"transactions"`
	Pending      int    `json:"pending"`
}

type tx struct {
	Timestamp uint32 `json:"timestamp"`
	Kind      string `json:"kind"`
	ActorID   string `json:"actor_id"`
	Payload   string `json:"payload"`
}

var confirm string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the ledger statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var st stats
		if err := call(http.MethodGet, "/v1/ledger/stats", nil, &st); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Blocks:       %d / %d\n", st.TotalBlocks, st.Capacity)
		fmt.Fprintf(out, "Latest:       %d %s\n", st.LatestID, st.LatestHash)
		fmt.Fprintf(out, "Transactions: %d (%d pending)\n", st.Transactions, st.Pending)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "Print the ledger history of a user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var trans []tx
		if err := call(http.MethodGet, "/v1/ledger/history/"+args[0], nil, &trans); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(trans) == 0 {
			fmt.Fprintf(out, "No history for %s\n", args[0])
			return nil
		}

		for _, t := range trans {
			fmt.Fprintf(out, "%10d %-20s %-15s %s\n", t.Timestamp, t.Kind, t.ActorID, t.Payload)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the ledger.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call(http.MethodPost, "/v1/ledger/validate", nil, nil); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "ledger valid")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset --confirm RESET",
	Short: "Delete the ledger and start over from genesis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if confirm != "RESET" {
			return errors.New("reset requires --confirm RESET")
		}

		var res result
		if err := call(http.MethodPost, "/v1/ledger/reset", map[string]string{"confirm": confirm}, &res); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, historyCmd, validateCmd, resetCmd)

	resetCmd.Flags().StringVar(&confirm, "confirm", "", "Confirmation token, must be RESET.")
}
