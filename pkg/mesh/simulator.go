package mesh

import (
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/logger"
	"AapdaMitra/pkg/metrics"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxRelayHops is the number of offline peers a message crosses before the gateway.
	MaxRelayHops = 2

	DefaultDelayUnit      = 1500 * time.Millisecond
	DefaultDiscoveryDelay = 2000 * time.Millisecond
)

const (
	LineActivated   = "Offline mode activated. Searching for nearby peers..."
	LineNoGateway   = "ERROR: No online gateway found nearby. Cannot send message."
	LineRelaying    = "Relaying SOS to emergency services..."
	LineDelivered   = "SUCCESS: SOS message delivered to authorities!"
	emergencyTarget = "Emergency Services"
)

type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateReady       State = "ready"
	StateSending     State = "sending"
)

// Outcome of the last finished send in the current session.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
)

var (
	ErrNotReady       = errors.WithCode(errors.CodeConflict, "mesh simulation is not ready")
	ErrAlreadySending = errors.WithCode(errors.CodeConflict, "an SOS message is already being sent")
	ErrCancelled      = errors.WithCode(errors.CodeConflict, "mesh simulation was turned off")
)

// NoGatewayError reports that no peer in range can reach the outside network.
func NoGatewayError() error {
	return errors.WithCode(errors.CodeNoGateway, "no online gateway found nearby")
}

type Config struct {
	DelayUnit      time.Duration
	DiscoveryDelay time.Duration
	// Peers found by discovery. Defaults to DefaultPeers.
	Peers    []Peer
	Sleeper  Sleeper
	Shuffler Shuffler
}

func (c *Config) defaults() {
	if c.DelayUnit <= 0 {
		c.DelayUnit = DefaultDelayUnit
	}
	if c.DiscoveryDelay <= 0 {
		c.DiscoveryDelay = DefaultDiscoveryDelay
	}
	if c.Peers == nil {
		c.Peers = DefaultPeers()
	}
	if c.Sleeper == nil {
		c.Sleeper = timerSleeper{}
	}
	if c.Shuffler == nil {
		c.Shuffler = randomShuffle
	}
}

// Snapshot is a copy of the simulator's observable state.
type Snapshot struct {
	Session string   `json:"session,omitempty"`
	State   State    `json:"state"`
	Enabled bool     `json:"enabled"`
	Peers   []Peer   `json:"peers"`
	Log     []string `json:"log"`
	Message string   `json:"message"`
	Sending bool     `json:"sending"`
	Outcome Outcome  `json:"outcome,omitempty"`
}

// Delivery describes a message that reached emergency services.
type Delivery struct {
	Session string        `json:"session"`
	Hops    []Peer        `json:"hops"`
	Gateway Peer          `json:"gateway"`
	Path    string        `json:"path"`
	Elapsed time.Duration `json:"elapsed"`
}

// Simulator scripts the relay of an SOS text through nearby offline peers
// to an online gateway. Every session started by Enable ends with Disable;
// work scheduled by a session never touches the state of a later one.
type Simulator struct {
	cfg Config

	mu      sync.Mutex
	gen     uint64
	session string
	ctx     context.Context
	cancel  context.CancelFunc
	state   State
	peers   []Peer
	log     []string
	message string
	sending bool
	outcome Outcome

	notifyMu  sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int

	wg sync.WaitGroup
}

func New(cfg Config) *Simulator {
	cfg.defaults()
	cfg.Peers = append([]Peer(nil), cfg.Peers...)
	return &Simulator{
		cfg:       cfg,
		state:     StateIdle,
		observers: map[int]func(Snapshot){},
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs synchronously and must not call back into the Simulator.
func (s *Simulator) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	s.notifyMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.notifyMu.Unlock()
	return func() {
		s.notifyMu.Lock()
		delete(s.observers, id)
		s.notifyMu.Unlock()
	}
}

// commit releases s.mu and fans the snapshot out to observers in commit order.
// Callers hold s.mu.
func (s *Simulator) commit() {
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range s.observers {
		fn(snap)
	}
}

func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() Snapshot {
	return Snapshot{
		Session: s.session,
		State:   s.state,
		Enabled: s.state != StateIdle,
		Peers:   append([]Peer{}, s.peers...),
		Log:     append([]string{}, s.log...),
		Message: s.message,
		Sending: s.sending,
		Outcome: s.outcome,
	}
}

// Enable starts a session and schedules peer discovery. It is a no-op
// while a session is already running.
func (s *Simulator) Enable() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.enableLocked()
}

// enableLocked requires s.mu held and an idle simulator. It releases s.mu.
func (s *Simulator) enableLocked() {
	s.gen++
	gen := s.gen
	s.session = uuid.NewString()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.state = StateDiscovering
	s.log = []string{LineActivated}
	s.outcome = OutcomeNone
	ctx := s.ctx
	session := s.session

	s.wg.Add(1)
	go s.discover(ctx, gen)
	s.commit()
	logger.Info("mesh simulation enabled", zap.String("session", session))
}

func (s *Simulator) discover(ctx context.Context, gen uint64) {
	defer s.wg.Done()
	if err := s.cfg.Sleeper.Sleep(ctx, s.cfg.DiscoveryDelay); err != nil {
		return
	}
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.peers = append([]Peer(nil), s.cfg.Peers...)
	s.log = append(s.log, fmt.Sprintf("Found %d peers.", len(s.cfg.Peers)))
	s.state = StateReady
	s.commit()
}

// Disable ends the session. Peers, log, message and the sending flag are
// cleared and every pending step of the session is dropped.
func (s *Simulator) Disable() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.disableLocked()
}

// disableLocked requires s.mu held and a running session. It releases s.mu.
func (s *Simulator) disableLocked() {
	session := s.session
	s.gen++
	s.cancel()
	s.ctx, s.cancel = nil, nil
	s.session = ""
	s.state = StateIdle
	s.peers = nil
	s.log = nil
	s.message = ""
	s.sending = false
	s.outcome = OutcomeNone
	s.commit()
	logger.Info("mesh simulation disabled", zap.String("session", session))
}

// Toggle flips the simulation on or off and reports whether it is now enabled.
func (s *Simulator) Toggle() bool {
	s.mu.Lock()
	if s.state == StateIdle {
		s.enableLocked()
		return true
	}
	s.disableLocked()
	return false
}

// Close disables the simulator and waits for its goroutines.
func (s *Simulator) Close() {
	s.Disable()
	s.wg.Wait()
}

// SetMessage stores the draft SOS text.
func (s *Simulator) SetMessage(text string) {
	s.mu.Lock()
	s.message = text
	s.commit()
}

// SetPeers replaces the current peer set of a running session.
func (s *Simulator) SetPeers(peers []Peer) error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.peers = append([]Peer{}, peers...)
	s.commit()
	return nil
}

// RemovePeer drops the peer with the given id and reports whether it was present.
func (s *Simulator) RemovePeer(id string) bool {
	s.mu.Lock()
	for i, p := range s.peers {
		if p.ID == id {
			s.peers = append(s.peers[:i:i], s.peers[i+1:]...)
			s.commit()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

type run struct {
	sim     *Simulator
	gen     uint64
	session string
	sessCtx context.Context
	message string
	peers   []Peer
	elapsed time.Duration
}

func (s *Simulator) begin(message string) (*run, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, errors.Validation("SOS message is required")
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrAlreadySending
	}
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.sending = true
	s.state = StateSending
	s.message = msg
	s.outcome = OutcomeNone
	s.log = append(s.log, `Sending SOS: "`+msg+`"`)
	r := &run{
		sim:     s,
		gen:     s.gen,
		session: s.session,
		sessCtx: s.ctx,
		message: msg,
		peers:   append([]Peer(nil), s.peers...),
	}
	s.commit()
	return r, nil
}

// Send relays message and blocks until it is delivered or fails.
// It returns ErrCancelled when the session is disabled or ctx ends midway.
func (s *Simulator) Send(ctx context.Context, message string) (*Delivery, error) {
	r, err := s.begin(message)
	if err != nil {
		return nil, err
	}
	return r.exec(ctx)
}

// Dispatch starts relaying message in the background and returns once the
// send has been accepted. Progress is visible through Snapshot and OnChange.
func (s *Simulator) Dispatch(message string) error {
	r, err := s.begin(message)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := r.exec(context.Background()); err != nil {
			logger.Warn("mesh sos not delivered", zap.String("session", r.session), zap.Error(err))
		}
	}()
	return nil
}

func (r *run) exec(parent context.Context) (*Delivery, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(r.sessCtx, cancel)
	defer stop()

	var gateway *Peer
	offline := make([]Peer, 0, len(r.peers))
	for i := range r.peers {
		switch {
		case r.peers[i].IsGateway():
			if gateway == nil {
				gateway = &r.peers[i]
			}
		default:
			offline = append(offline, r.peers[i])
		}
	}

	if gateway == nil {
		if err := r.sleep(ctx); err != nil {
			return nil, r.abort()
		}
		if !r.step(func(s *Simulator) {
			s.log = append(s.log, LineNoGateway)
			s.finish(OutcomeFailed)
		}) {
			return nil, r.abort()
		}
		metrics.ObserveMeshSend("no_gateway")
		return nil, NoGatewayError()
	}

	r.sim.cfg.Shuffler(offline)
	hops := offline
	if len(hops) > MaxRelayHops {
		hops = hops[:MaxRelayHops]
	}

	names := make([]string, 0, len(hops)+1)
	for _, hop := range hops {
		if err := r.sleep(ctx); err != nil {
			return nil, r.abort()
		}
		line := fmt.Sprintf("Message relayed to %s (Offline). Finding next hop...", hop.Name)
		if !r.appendLine(line) {
			return nil, r.abort()
		}
		names = append(names, hop.Name)
	}
	names = append(names, gateway.Name)
	path := "You -> " + strings.Join(names, " -> ") + " -> " + emergencyTarget

	if err := r.sleep(ctx); err != nil {
		return nil, r.abort()
	}
	if !r.appendLine(fmt.Sprintf("Message reached %s (Online Gateway)!", gateway.Name)) {
		return nil, r.abort()
	}
	if err := r.sleep(ctx); err != nil {
		return nil, r.abort()
	}
	if !r.appendLine(LineRelaying) {
		return nil, r.abort()
	}
	if err := r.sleep(ctx); err != nil {
		return nil, r.abort()
	}
	if !r.step(func(s *Simulator) {
		s.log = append(s.log, LineDelivered, "Path: "+path)
		s.finish(OutcomeDelivered)
	}) {
		return nil, r.abort()
	}

	metrics.ObserveMeshSend("delivered")
	logger.Info("mesh sos delivered",
		zap.String("session", r.session),
		zap.String("path", path),
		zap.Duration("elapsed", r.elapsed))
	return &Delivery{
		Session: r.session,
		Hops:    append([]Peer(nil), hops...),
		Gateway: *gateway,
		Path:    path,
		Elapsed: r.elapsed,
	}, nil
}

func (r *run) sleep(ctx context.Context) error {
	if err := r.sim.cfg.Sleeper.Sleep(ctx, r.sim.cfg.DelayUnit); err != nil {
		return err
	}
	r.elapsed += r.sim.cfg.DelayUnit
	return nil
}

// step applies fn if the run's session is still current.
func (r *run) step(fn func(s *Simulator)) bool {
	s := r.sim
	s.mu.Lock()
	if s.gen != r.gen {
		s.mu.Unlock()
		return false
	}
	fn(s)
	s.commit()
	return true
}

func (r *run) appendLine(line string) bool {
	return r.step(func(s *Simulator) { s.log = append(s.log, line) })
}

// abort ends a run whose context ended. A still-current session gets its
// sending flag cleared; a disabled one is left untouched.
func (r *run) abort() error {
	r.step(func(s *Simulator) { s.finish(OutcomeFailed) })
	metrics.ObserveMeshSend("cancelled")
	return ErrCancelled
}

// finish ends the send in progress. Callers hold s.mu.
func (s *Simulator) finish(o Outcome) {
	s.sending = false
	s.state = StateReady
	s.outcome = o
}
