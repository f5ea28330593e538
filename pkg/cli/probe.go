package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/perfbreak/go-pagetiming/pkg/breakdown"
	"github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/probe"
	"github.com/perfbreak/go-pagetiming/pkg/render"
)

var (
	probeFormat   string
	probeDelay    time.Duration
	probeTimeout  time.Duration
	probeProtocol string
	probeInsecure bool
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Probe a URL and print its load-phase breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		timeout := probeTimeout
		if timeout <= 0 {
			timeout = cfg.ProbeTimeout
		}
		protocol := probeProtocol
		if protocol == "" {
			protocol = cfg.Protocol
		}

		// The delay comes before the capture so the target has time to
		// reach later milestones before it is measured.
		if probeDelay > 0 {
			timer := time.NewTimer(probeDelay)
			defer timer.Stop()
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-timer.C:
			}
		}

		src, err := probe.Fetch(cmd.Context(), args[0], probe.Options{
			Timeout:     timeout,
			Protocol:    protocol,
			InsecureTLS: probeInsecure || cfg.InsecureTLS,
		})
		if err != nil {
			return err
		}

		report, err := breakdown.Compute(src)
		if err != nil {
			if errors.IsUnsupported(err) {
				fmt.Fprintln(os.Stdout, render.NotSupportedNotice)
				return nil
			}
			return err
		}
		report.ApplyPhaseColors(cfg.PhaseColors)

		switch probeFormat {
		case "text":
			return render.NewTextRenderer(os.Stdout).Render(report)
		case "html":
			r := render.NewHTMLRenderer(os.Stdout)
			r.Title = args[0]
			return r.Render(report)
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		default:
			return errors.NewValidationError("unknown format: " + probeFormat)
		}
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeFormat, "format", "text", "output format: text, html or json")
	probeCmd.Flags().DurationVar(&probeDelay, "delay", 0, "wait before capturing and computing the breakdown")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 0, "probe timeout (overrides config)")
	probeCmd.Flags().StringVar(&probeProtocol, "protocol", "", "http/1.1 or http/2 (overrides config)")
	probeCmd.Flags().BoolVar(&probeInsecure, "insecure", false, "skip TLS certificate verification")
}
