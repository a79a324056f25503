// Package node is the chat server core. One Node is one serverId in the
// federation: it owns the TCP listener that carries both client and peer
// sessions, the UDP discovery endpoint, the message router with ACK
// correlation, the group registry and the reminder scheduler.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/config"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/group"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/metrics"
	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/reminder"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/translate"
)

// knownServer is one row in the discovery table.
type knownServer struct {
	addr     string // host:port of the announced TCP listener
	features []proto.Feature
	seen     time.Time
}

// pendingAck remembers where a routed message came from so the eventual
// MESSAGE_ACK can travel back. Entries are one-shot and expire after AckTTL.
type pendingAck struct {
	userID   string
	serverID string
	to       proto.User // recipient, for the synthesized timeout status
	expires  time.Time
}

// Node runs the chat server.
type Node struct {
	cfg    config.Config
	logger logging.Logger
	m      *metrics.Metrics
	events events.Publisher

	translator     translate.Backend
	translatorName string
	groups         *group.Registry
	reminders      *reminder.Scheduler

	tcpLn net.Listener
	udp   *net.UDPConn

	clientsMu sync.Mutex
	clients   map[string]*clientSession // userId -> session

	peersMu sync.Mutex
	peers   map[string]*peerSession // serverId -> session
	dialing map[string]bool         // serverIds with a dial in flight

	knownMu sync.Mutex
	known   map[string]knownServer // serverId -> last announce

	acksMu sync.Mutex
	acks   map[uint64]pendingAck // snowflake -> source

	started time.Time
	ready   chan struct{}
	wg      sync.WaitGroup
}

// New assembles a node from its collaborators. Pass nil for pub to discard
// events and translate.Backend(nil) to disable the translation service.
func New(cfg config.Config, logger logging.Logger, m *metrics.Metrics, translator translate.Backend, pub events.Publisher) *Node {
	if logger == nil {
		logger = logging.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	n := &Node{
		cfg:        cfg,
		logger:     logger,
		m:          m,
		events:     pub,
		translator: translator,
		clients:    make(map[string]*clientSession),
		peers:      make(map[string]*peerSession),
		dialing:    make(map[string]bool),
		known:      make(map[string]knownServer),
		acks:       make(map[uint64]pendingAck),
		ready:      make(chan struct{}),
	}
	if translator != nil {
		n.translatorName = cfg.TranslateProvider
		if n.translatorName == "" {
			n.translatorName = "static"
		}
	}
	n.groups = group.NewRegistry(logger, m.GroupsActive)
	n.reminders = reminder.NewScheduler(logger, m.RemindersQueued, n.deliverReminder)
	return n
}

// Run binds the TCP and UDP endpoints and serves until ctx is cancelled.
// On return every session has been hung up and every loop has exited.
func (n *Node) Run(ctx context.Context) error {
	if err := n.bind(); err != nil {
		return err
	}
	n.started = time.Now()
	close(n.ready)
	n.logger.WithFields(logging.Fields{
		"server_id": n.cfg.ServerID,
		"tcp_addr":  n.tcpLn.Addr().String(),
		"udp_addr":  n.udp.LocalAddr().String(),
	}).Info("Chat node listening")
	n.publish("node_started", events.ChannelSystem, map[string]interface{}{
		"tcp_addr": n.tcpLn.Addr().String(),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.acceptLoop(ctx) })
	g.Go(func() error { return n.discoveryLoop(ctx) })
	g.Go(func() error { n.reminders.Run(ctx); return nil })
	g.Go(func() error { return n.sweepClients(ctx) })
	g.Go(func() error { return n.sweepPeers(ctx) })
	g.Go(func() error { return n.sweepAcks(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		n.tcpLn.Close()
		n.udp.Close()
		return nil
	})

	err := g.Wait()
	n.hangUpAll()
	n.wg.Wait()
	n.publish("node_stopped", events.ChannelSystem, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (n *Node) bind() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", n.cfg.TCPPort))
	if err != nil {
		return fmt.Errorf("bind tcp :%d: %w", n.cfg.TCPPort, err)
	}
	udp, err := net.ListenUDP("udp", &net.UDPAddr{Port: n.cfg.UDPPort})
	if err != nil {
		ln.Close()
		return fmt.Errorf("bind udp :%d: %w", n.cfg.UDPPort, err)
	}
	n.tcpLn = ln
	n.udp = udp
	return nil
}

func (n *Node) acceptLoop(ctx context.Context) error {
	for {
		conn, err := n.tcpLn.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("tcp accept: %w", err)
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.serveConn(conn)
		}()
	}
}

// hangUpAll closes every live session with an EXIT hang-up.
func (n *Node) hangUpAll() {
	n.clientsMu.Lock()
	clients := make([]*clientSession, 0, len(n.clients))
	for _, cs := range n.clients {
		clients = append(clients, cs)
	}
	n.clients = make(map[string]*clientSession)
	n.clientsMu.Unlock()

	n.peersMu.Lock()
	peers := make([]*peerSession, 0, len(n.peers))
	for _, ps := range n.peers {
		peers = append(peers, ps)
	}
	n.peers = make(map[string]*peerSession)
	n.peersMu.Unlock()

	hangup := &proto.HangUp{Reason: proto.ReasonExit}
	for _, cs := range clients {
		cs.sendPayload(hangup)
		cs.close()
	}
	for _, ps := range peers {
		ps.sendPayload(hangup)
		ps.close()
	}
	n.m.Sessions.WithLabelValues("client").Set(0)
	n.m.Sessions.WithLabelValues("peer").Set(0)
}

func (n *Node) publish(eventType, channel string, data map[string]interface{}) {
	n.events.Publish(eventType, channel, data)
}

// ServerID returns this node's federation identity.
func (n *Node) ServerID() string { return n.cfg.ServerID }

// Ready is closed once Run has bound both listeners. Addresses reported by
// TCPAddr and UDPAddr are stable after that.
func (n *Node) Ready() <-chan struct{} { return n.ready }

// TCPAddr is the bound mesh/client listener address, valid after Run started.
func (n *Node) TCPAddr() net.Addr {
	if n.tcpLn == nil {
		return nil
	}
	return n.tcpLn.Addr()
}

// UDPAddr is the bound discovery address, valid after Run started.
func (n *Node) UDPAddr() net.Addr {
	if n.udp == nil {
		return nil
	}
	return n.udp.LocalAddr()
}

func (n *Node) tcpPort() uint32 {
	if addr, ok := n.TCPAddr().(*net.TCPAddr); ok {
		return uint32(addr.Port)
	}
	return uint32(n.cfg.TCPPort)
}

// features is what this node advertises in SERVER_ANNOUNCE.
func (n *Node) features() []proto.Feature {
	port := n.tcpPort()
	fs := []proto.Feature{{Name: proto.FeatureMessages, Port: port}}
	if n.reminders != nil {
		fs = append(fs, proto.Feature{Name: proto.FeatureReminder, Port: port})
	}
	if n.translator != nil {
		fs = append(fs, proto.Feature{Name: proto.FeatureTranslation, Port: port})
	}
	return fs
}

func (n *Node) featureNames() []string {
	fs := n.features()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// PeerStats reports connected peer sessions and known servers, for health.
func (n *Node) PeerStats() (connected, known int) {
	n.peersMu.Lock()
	connected = len(n.peers)
	n.peersMu.Unlock()
	n.knownMu.Lock()
	known = len(n.known)
	n.knownMu.Unlock()
	return connected, known
}

// ClientCount is the number of live client sessions.
func (n *Node) ClientCount() int {
	n.clientsMu.Lock()
	defer n.clientsMu.Unlock()
	return len(n.clients)
}

// GroupCount is the number of locally owned groups.
func (n *Node) GroupCount() int { return n.groups.Count() }

// ReminderCount is the number of reminders waiting to fire.
func (n *Node) ReminderCount() int { return n.reminders.Len() }

// PendingAckCount is the number of message forwards awaiting an ACK.
func (n *Node) PendingAckCount() int {
	n.acksMu.Lock()
	defer n.acksMu.Unlock()
	return len(n.acks)
}

// Status is the ops-surface snapshot of a running node.
type Status struct {
	ServerID  string            `json:"server_id"`
	Uptime    string            `json:"uptime"`
	Clients   []string          `json:"clients"`
	Peers     []string          `json:"peers"`
	Known     map[string]string `json:"known_servers"`
	Features  []proto.Feature   `json:"features"`
	Groups    int               `json:"groups"`
	Reminders int               `json:"reminders_queued"`
	Acks      int               `json:"acks_pending"`
}

// Snapshot collects the current Status.
func (n *Node) Snapshot() Status {
	st := Status{
		ServerID:  n.cfg.ServerID,
		Features:  n.features(),
		Groups:    n.GroupCount(),
		Reminders: n.ReminderCount(),
		Acks:      n.PendingAckCount(),
		Known:     make(map[string]string),
	}
	if !n.started.IsZero() {
		st.Uptime = time.Since(n.started).Round(time.Second).String()
	}
	n.clientsMu.Lock()
	for id := range n.clients {
		st.Clients = append(st.Clients, id)
	}
	n.clientsMu.Unlock()
	n.peersMu.Lock()
	for id := range n.peers {
		st.Peers = append(st.Peers, id)
	}
	n.peersMu.Unlock()
	n.knownMu.Lock()
	for id, ks := range n.known {
		st.Known[id] = ks.addr
	}
	n.knownMu.Unlock()
	return st
}

// ScheduleReminder queues an event for a target, which is either a bare
// userId or userId@serverId for cross-server delivery.
func (n *Node) ScheduleReminder(target, event string, countdown time.Duration) {
	n.reminders.Schedule(target, event, countdown)
}
