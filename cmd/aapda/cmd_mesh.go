package main

import (
	"AapdaMitra/pkg/mesh"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	demoDelay     time.Duration
	demoNoGateway bool
)

var meshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Offline mesh SOS simulation",
}

var meshDemoCmd = &cobra.Command{
	Use:   "demo [message]",
	Short: "Run one simulated SOS relay and print the activity log",
	Long: `Enables a simulation session, waits for peer discovery and relays the
message through up to two offline peers to the online gateway.

Example:
  aapda mesh demo "Trapped on the roof, two people" --delay 200ms
  aapda mesh demo "Need water" --no-gateway`,
	Args: cobra.ExactArgs(1),
	RunE: runMeshDemo,
}

func init() {
	meshDemoCmd.Flags().DurationVar(&demoDelay, "delay", 0, "Delay between relay steps (default MESH_DELAY_UNIT)")
	meshDemoCmd.Flags().BoolVar(&demoNoGateway, "no-gateway", false, "Simulate a neighbourhood without an online gateway")
}

func runMeshDemo(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	delay := cfg.MeshDelayUnit
	if demoDelay > 0 {
		delay = demoDelay
	}
	peers := mesh.DefaultPeers()
	if demoNoGateway {
		peers = withoutGateway(peers)
	}

	sim := mesh.New(mesh.Config{
		DelayUnit:      delay,
		DiscoveryDelay: delay,
		Peers:          peers,
	})
	defer sim.Close()

	ready := make(chan struct{})
	var once sync.Once
	unsubscribe := sim.OnChange(logPrinter(cmd.OutOrStdout(), func(s mesh.Snapshot) {
		if s.State == mesh.StateReady {
			once.Do(func() { close(ready) })
		}
	}))
	defer unsubscribe()

	sim.Enable()
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	d, err := sim.Send(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "delivered via %s in %s (%d hops)\n", d.Gateway.Name, d.Elapsed.Round(time.Millisecond), len(d.Hops))
	return nil
}

// logPrinter prints log lines as they are appended to the session log.
func logPrinter(w io.Writer, next func(mesh.Snapshot)) func(mesh.Snapshot) {
	printed := 0
	return func(s mesh.Snapshot) {
		if len(s.Log) < printed {
			printed = 0
		}
		for ; printed < len(s.Log); printed++ {
			fmt.Fprintln(w, s.Log[printed])
		}
		next(s)
	}
}

func withoutGateway(peers []mesh.Peer) []mesh.Peer {
	out := peers[:0]
	for _, p := range peers {
		if !p.IsGateway() {
			out = append(out, p)
		}
	}
	return out
}
