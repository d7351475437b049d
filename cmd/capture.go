package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"sharkpipe/internal/config"
	"sharkpipe/internal/log"
)

var captureProfile config.Profile
var captureConfigFile string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run tshark and stream decoded packets as JSON lines",
	Long: `Run tshark against a capture file, interface or named pipe and print
each decoded packet as one JSON object on stdout.

Examples:
  sharkpipe capture -r /tmp/my.pcap
  sharkpipe capture -i eth0 --live -f "port 53"
  sharkpipe capture -r /tmp/my.pcap -Y "udp.port == 53" --count 10
  sharkpipe capture -c profile.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		profile := &captureProfile
		if captureConfigFile != "" {
			loaded, err := config.Load(captureConfigFile)
			if err != nil {
				exitWithError("loading profile", err)
			}
			mergeFlags(cmd, loaded, profile)
			profile = loaded
		}
		if err := profile.Validate(); err != nil {
			exitWithError("invalid profile", err)
		}
		if err := log.Init(profile.Log); err != nil {
			exitWithError("configuring logging", err)
		}
		runCapture(profile)
	},
}

func init() {
	flags := captureCmd.Flags()
	flags.StringSliceVarP(&captureProfile.Input, "input", "r", nil,
		"input source: capture file, or interface/pipe with --live (repeatable)")
	flags.BoolVar(&captureProfile.Live, "live", false,
		"treat inputs as live sources (interface or named pipe)")
	flags.StringVarP(&captureProfile.CaptureFilter, "capture-filter", "f", "",
		"libpcap capture filter (live only)")
	flags.StringVarP(&captureProfile.DisplayFilter, "display-filter", "Y", "",
		"display filter applied to decoded packets")
	flags.StringSliceVar(&captureProfile.MetadataBlacklist, "blacklist", nil,
		"field names to drop from decoded packets (repeatable)")
	flags.StringSliceVarP(&captureProfile.MetadataWhitelist, "whitelist", "e", nil,
		"restrict the report to these field names (repeatable)")
	flags.StringSliceVarP(&captureProfile.DecodeAs, "decode-as", "d", nil,
		"decode-as expression, e.g. tcp.port==8080,http2 (repeatable)")
	flags.StringSliceVarP(&captureProfile.Options, "option", "o", nil,
		"protocol option, e.g. ip.defragment:false (repeatable)")
	flags.StringSliceVar(&captureProfile.DisabledProtocols, "disable-protocol", nil,
		"protocol to disable (repeatable)")
	flags.StringSliceVar(&captureProfile.EnabledProtocols, "enable-protocol", nil,
		"protocol to enable (repeatable)")
	flags.StringVar(&captureProfile.KeylogFile, "keylog-file", "",
		"TLS key log file enabling TLS decryption")
	flags.StringVarP(&captureProfile.OutputPath, "output", "w", "",
		"also write raw packets to this capture file")
	flags.StringVar(&captureProfile.EnvPath, "env-path", "",
		"PATH override used to locate the tshark executable")
	flags.IntVar(&captureProfile.Count, "count", 0,
		"stop after this many packets (0 = until end of stream)")
	flags.StringVarP(&captureConfigFile, "config", "c", "",
		"capture profile file; explicit flags override its values")
	rootCmd.AddCommand(captureCmd)
}

// mergeFlags overlays flags the user set explicitly onto a loaded profile.
func mergeFlags(cmd *cobra.Command, dst, flagValues *config.Profile) {
	if cmd.Flags().Changed("input") {
		dst.Input = flagValues.Input
	}
	if cmd.Flags().Changed("live") {
		dst.Live = flagValues.Live
	}
	if cmd.Flags().Changed("capture-filter") {
		dst.CaptureFilter = flagValues.CaptureFilter
	}
	if cmd.Flags().Changed("display-filter") {
		dst.DisplayFilter = flagValues.DisplayFilter
	}
	if cmd.Flags().Changed("blacklist") {
		dst.MetadataBlacklist = flagValues.MetadataBlacklist
	}
	if cmd.Flags().Changed("whitelist") {
		dst.MetadataWhitelist = flagValues.MetadataWhitelist
	}
	if cmd.Flags().Changed("decode-as") {
		dst.DecodeAs = flagValues.DecodeAs
	}
	if cmd.Flags().Changed("option") {
		dst.Options = flagValues.Options
	}
	if cmd.Flags().Changed("disable-protocol") {
		dst.DisabledProtocols = flagValues.DisabledProtocols
	}
	if cmd.Flags().Changed("enable-protocol") {
		dst.EnabledProtocols = flagValues.EnabledProtocols
	}
	if cmd.Flags().Changed("keylog-file") {
		dst.KeylogFile = flagValues.KeylogFile
	}
	if cmd.Flags().Changed("output") {
		dst.OutputPath = flagValues.OutputPath
	}
	if cmd.Flags().Changed("env-path") {
		dst.EnvPath = flagValues.EnvPath
	}
	if cmd.Flags().Changed("count") {
		dst.Count = flagValues.Count
	}
}

func runCapture(profile *config.Profile) {
	logger := log.GetLogger()

	session, err := profile.Builder().Spawn()
	if err != nil {
		exitWithError("starting tshark", err)
	}
	defer session.Close()

	if pid, ok := session.Pid(); ok {
		logger.WithField("pid", pid).Debug("tshark started")
	}

	// A signal stops the run by killing tshark; the read loop then drains
	// and exits cleanly instead of reporting the broken pipe as an error.
	var stopping atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		stopping.Store(true)
		session.Kill()
	}()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	read := 0
	for profile.Count == 0 || read < profile.Count {
		packet, err := session.Read()
		if errors.Is(err, io.EOF) {
			// On a live source EOF can mean "no packet right now".
			if _, running := session.Pid(); running && !stopping.Load() {
				continue
			}
			break
		}
		if err != nil {
			if stopping.Load() {
				break
			}
			exitWithError("reading packets", err)
		}
		if err := enc.Encode(packet); err != nil {
			exitWithError("writing packet", err)
		}
		read++
	}
	logger.WithField("packets", read).Info("capture finished")
}
