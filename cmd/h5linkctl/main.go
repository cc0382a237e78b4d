package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/nordic-semi/h5link/internal/buildinfo"
	fx "github.com/nordic-semi/h5link/pkg/framework"
	"github.com/nordic-semi/h5link/pkg/serialio"
	"github.com/nordic-semi/h5link/pkg/transport"
)

var (
	configPath string
	portName   string
	baudRate   int
	evalOnly   bool
)

var rootCmd = &cobra.Command{
	Use:     "h5linkctl",
	Short:   "Bluetooth Three-Wire (H5) UART link controller",
	Version: buildinfo.String(),
	Long: `h5linkctl brings up a Three-Wire UART (H5) link over a serial port and
exposes an interactive shell for sending reliable vendor-specific packets
and watching the link state machine negotiate sync and configuration with
the peer.`,
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "serial port device (overrides config file)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "baud rate (overrides config file)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&evalOnly, "eval", "e", false, "run one command and exit instead of starting the interactive shell")

	// glog registers its own flags on the standard flag package; fold them
	// into the flag set cobra's help already prints.
	flag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Exit(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if portName != "" {
		cfg.Port = portName
	}
	if baudRate != 0 {
		cfg.Baud = baudRate
	}
	if cfg.Port == "" {
		return fmt.Errorf("no serial port given (use --port or a config file)")
	}
	if cfg.RetransmissionTimeout == 0 {
		cfg.RetransmissionTimeout = 250 * time.Millisecond
	}

	lower := serialio.New(serialio.Config{PortName: cfg.Port, BaudRate: cfg.Baud})
	link := transport.New(lower, cfg.RetransmissionTimeout)

	s := newShell(link)

	glog.Infof("opening %s @ %d baud", cfg.Port, cfg.Baud)
	if err := link.Open(s.onStatus, s.onData, s.onLog); err != nil {
		return fmt.Errorf("open link: %w", err)
	}
	glog.Info("link active")
	defer link.Close()

	runner := fx.NewRunner().HandleSignals()
	go func() {
		<-runner.Context.Done()
		glog.Info("shutting down")
		link.Close()
	}()

	runner.Go(fx.NamedRun("shell", fx.RunnableFunc(func(context.Context) error {
		s.run(evalOnly, args)
		return nil
	})))
	return runner.Wait()
}
