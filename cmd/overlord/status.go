package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/aretw0/overlord/pkg/supervisor"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the commands of a running overlord",
	Long:  `Queries the control server of a running overlord (started with --listen) and prints its SupervisionSet.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		st, err := fetchStatus(ctx, addr)
		if err != nil {
			return err
		}
		renderStatus(termenv.NewOutput(cmd.OutOrStdout()), st)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("addr", "127.0.0.1:9090", "Address of the control server")
	statusCmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")
}

func fetchStatus(ctx context.Context, addr string) (supervisor.Status, error) {
	var st supervisor.Status

	url := addr
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(url, "/")+"/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("control server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return st, fmt.Errorf("control server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("invalid status response: %w", err)
	}
	return st, nil
}

func renderStatus(out *termenv.Output, st supervisor.Status) {
	fmt.Fprintf(out, "shutdown: %s\n\n", out.String(st.Shutdown).Bold())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPID\tSTATE\tRESTARTS\tLAST EXIT\tCOMMAND")
	for _, p := range st.Processes {
		pid := "-"
		if p.Pid > 0 {
			pid = fmt.Sprint(p.Pid)
		}
		last := "-"
		if p.LastExit != nil {
			last = p.LastExit.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, pid, stateLabel(out, p.State), p.Restarts, last, p.Command)
	}
	_ = tw.Flush()
}

func stateLabel(out *termenv.Output, s domain.ProcessState) termenv.Style {
	style := out.String(string(s))
	switch s {
	case domain.ProcessRunning:
		return style.Foreground(out.Color("2"))
	case domain.ProcessDraining, domain.ProcessStarting:
		return style.Foreground(out.Color("3"))
	case domain.ProcessExited, domain.ProcessRemoved:
		return style.Foreground(out.Color("1"))
	}
	return style
}
