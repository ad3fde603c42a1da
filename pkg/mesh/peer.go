package mesh

import (
	"context"
	"math/rand"
	"time"
)

type PeerStatus string

const (
	StatusOffline PeerStatus = "offline"
	StatusGateway PeerStatus = "online-gateway"
)

// Peer is a simulated nearby device.
type Peer struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status PeerStatus `json:"status"`
	Signal int        `json:"signal"`
}

func (p Peer) IsGateway() bool { return p.Status == StatusGateway }

// DefaultPeers returns the mock neighbourhood found by discovery:
// three offline devices and one gateway.
func DefaultPeers() []Peer {
	return []Peer{
		{ID: "peer-a", Name: "Device 7C:B8", Status: StatusOffline, Signal: 85},
		{ID: "peer-b", Name: "Device A1:4F", Status: StatusOffline, Signal: 92},
		{ID: "peer-c", Name: "Device 3D:E2", Status: StatusGateway, Signal: 60},
		{ID: "peer-d", Name: "Device B9:11", Status: StatusOffline, Signal: 75},
	}
}

// Sleeper suspends a simulation step. Sleep must return early with
// ctx.Err() once ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Shuffler reorders the offline candidates in place before hops are picked.
type Shuffler func(peers []Peer)

func randomShuffle(peers []Peer) {
	rand.Shuffle(len(peers), func(i, j int) { peers[i], peers[j] = peers[j], peers[i] })
}
