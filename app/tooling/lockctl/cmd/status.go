package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type status struct {
	Phase          string `json:"phase"`
	ActiveUser     string `json:"active_user"`
	FailedAttempts uint8  `json:"failed_attempts"`
	Locked         bool   `json:"locked"`
	Tamper         bool   `json:"tamper"`
	Shutdown       bool   `json:"shutdown"`
	LockOpen       bool   `json:"lock_open"`
	Passcodes      int    `json:"passcodes"`
	Username       string `json:"username"`
	Halted         bool   `json:"halted"`
	Reason         string `json:"reason"`
	Sensor         struct {
		Current   uint16 `json:"current"`
		Threshold uint16 `json:"threshold"`
	} `json:"sensor"`
	Peers []struct {
		ID       string `json:"id"`
		Identity string `json:"identity"`
	} `json:"peers"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the brain.",
	RunE:  statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) error {
	var st status
	if err := call(http.MethodGet, "/v1/status", nil, &st); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Phase:     %s\n", st.Phase)
	fmt.Fprintf(out, "User:      %s (active %s)\n", st.Username, st.ActiveUser)
	fmt.Fprintf(out, "Failures:  %d\n", st.FailedAttempts)
	fmt.Fprintf(out, "Lock:      %s\n", openClosed(st.LockOpen))
	fmt.Fprintf(out, "Locked:    %v\n", st.Locked)
	fmt.Fprintf(out, "Tamper:    %v\n", st.Tamper)
	fmt.Fprintf(out, "Passcodes: %d\n", st.Passcodes)
	fmt.Fprintf(out, "Sensor:    %d / %d PPB\n", st.Sensor.Current, st.Sensor.Threshold)
	fmt.Fprintf(out, "Peers:     %d\n", len(st.Peers))
	for _, p := range st.Peers {
		fmt.Fprintf(out, "  %s %s\n", p.ID, p.Identity)
	}
	if st.Halted {
		fmt.Fprintf(out, "HALTED:    %s\n", st.Reason)
	}

	return nil
}

func openClosed(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}
