package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	user    string
	reading uint16
	reason  string
)

var passcodeCmd = &cobra.Command{
	Use:   "passcode",
	Short: "Generate a passcode for a user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var res result
		if err := call(http.MethodPost, "/v1/passcode/generate", map[string]string{"user": user}, &res); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Passcode for %s: %s\n", res.User, res.Code)
		return nil
	},
}

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Simulate a presence sensor reading.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var res result
		if err := call(http.MethodPost, "/v1/presence", map[string]uint16{"reading": reading}, &res); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Status)
		return nil
	},
}

var enterCmd = &cobra.Command{
	Use:   "enter <code>",
	Short: "Enter a passcode for a user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var res result
		if err := call(http.MethodPost, "/v1/passcode/verify", map[string]string{"user": user, "code": args[0]}, &res); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Status)
		return nil
	},
}

var tamperCmd = &cobra.Command{
	Use:   "tamper",
	Short: "Trigger the tamper shutdown. This cannot be undone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var res result
		if err := call(http.MethodPost, "/v1/tamper", map[string]string{"reason": reason}, &res); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Status)
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:       "lock open|close",
	Short:     "Open or close the lock.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"open", "close"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var res result
		if err := call(http.MethodPost, "/v1/lock/"+args[0], nil, &res); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passcodeCmd, presenceCmd, enterCmd, tamperCmd, lockCmd)

	passcodeCmd.Flags().StringVarP(&user, "user", "n", "PC_CLIENT", "Name of the user.")
	enterCmd.Flags().StringVarP(&user, "user", "n", "PC_CLIENT", "Name of the user.")
	presenceCmd.Flags().Uint16VarP(&reading, "reading", "r", 600, "VOC reading in PPB.")
	tamperCmd.Flags().StringVarP(&reason, "reason", "r", "console tamper trigger", "Reason recorded in the ledger.")
}
