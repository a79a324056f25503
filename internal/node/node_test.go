package node

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/config"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/client"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/translate"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// testConfig binds to ephemeral ports and shortens every delay. PeerPorts
// stays empty so nodes never broadcast; tests introduce nodes to each other
// with a direct announce instead.
func testConfig(id string) config.Config {
	return config.Config{
		ServerID:          id,
		TCPPort:           0,
		UDPPort:           0,
		BroadcastAddr:     "127.0.0.1",
		HeartbeatInterval: 50 * time.Millisecond,
		HeartbeatTimeout:  5 * time.Second,
		DialBackoffMin:    time.Millisecond,
		DialBackoffMax:    5 * time.Millisecond,
		ConnectTimeout:    2 * time.Second,
		MaxPayloadBytes:   wire.DefaultMaxPayload,
		AckTTL:            time.Minute,
	}
}

func startNode(t *testing.T, cfg config.Config, translator translate.Backend) *Node {
	t.Helper()
	n := New(cfg, nil, nil, translator, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("node %s: %v", cfg.ServerID, err)
			}
		case <-time.After(3 * time.Second):
			t.Errorf("node %s did not stop on cancel", cfg.ServerID)
		}
	})
	select {
	case <-n.Ready():
	case err := <-done:
		t.Fatalf("node %s exited before binding: %v", cfg.ServerID, err)
	case <-time.After(3 * time.Second):
		t.Fatalf("node %s did not bind within 3s", cfg.ServerID)
	}
	return n
}

func dialClient(t *testing.T, n *Node, userID string) *client.Client {
	t.Helper()
	c, err := client.Dial(client.Config{
		Addr:           n.TCPAddr().String(),
		User:           proto.User{UserID: userID},
		ConnectTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("dial as %s: %v", userID, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func await(t *testing.T, c *client.Client, purpose proto.Purpose, within time.Duration) proto.Payload {
	t.Helper()
	pl, err := c.Expect(purpose, within)
	if err != nil {
		t.Fatalf("await %s: %v", purpose, err)
	}
	return pl
}

// announceTo hands dst an announce describing src, standing in for the UDP
// broadcast a multi-host mesh would use.
func announceTo(t *testing.T, dst, src *Node) {
	t.Helper()
	ann := proto.ServerAnnounce{ServerID: src.ServerID(), Features: src.features()}
	frame := wire.Encode(string(proto.PurposeServerAnnounce), ann.Marshal())
	port := dst.UDPAddr().(*net.UDPAddr).Port
	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Fatalf("dial discovery port: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("send announce: %v", err)
	}
}

// connectMesh links two nodes and waits until both ends report the peer
// session. The announce is repeated because the UDP handoff and the dial
// race the first checks.
func connectMesh(t *testing.T, a, b *Node) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		announceTo(t, a, b)
		time.Sleep(10 * time.Millisecond)
		ca, _ := a.PeerStats()
		cb, _ := b.PeerStats()
		if ca == 1 && cb == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("mesh did not form: a has %d peers, b has %d", ca, cb)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s did not happen within 3s", what)
}

// rawSession opens a client session without the client package so tests can
// write bytes a well-behaved client never produces.
func rawSession(t *testing.T, n *Node, userID string) (net.Conn, *wire.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", n.TCPAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	hello := proto.ConnectClient{User: &proto.User{UserID: userID}}
	if err := wire.WriteFrame(conn, string(proto.PurposeConnectClient), hello.Marshal()); err != nil {
		t.Fatalf("send CONNECT_CLIENT: %v", err)
	}
	rd := wire.NewReader(conn, wire.DefaultMaxPayload)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := rd.Next()
	if err != nil {
		t.Fatalf("read handshake reply: %v", err)
	}
	conn.SetReadDeadline(time.Time{})
	if proto.Purpose(f.Purpose) != proto.PurposeConnected {
		t.Fatalf("handshake reply %s, want CONNECTED", f.Purpose)
	}
	return conn, rd
}

// awaitHangUp reads frames until a HANGUP arrives, skipping heartbeat PINGs
// without answering them.
func awaitHangUp(t *testing.T, conn net.Conn, rd *wire.Reader) proto.HangUpReason {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		f, err := rd.Next()
		if err != nil {
			t.Fatalf("awaiting HANGUP: %v", err)
		}
		switch proto.Purpose(f.Purpose) {
		case proto.PurposePing:
		case proto.PurposeHangUp:
			var h proto.HangUp
			if err := h.Unmarshal(f.Payload); err != nil {
				t.Fatalf("decode HANGUP: %v", err)
			}
			return h.Reason
		default:
			t.Fatalf("got %s frame while awaiting HANGUP", f.Purpose)
		}
	}
}

func TestClientHandshakeAndDuplicate(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)

	first := dialClient(t, n, "dora")
	if got := n.ClientCount(); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}

	if _, err := client.Dial(client.Config{
		Addr:           n.TCPAddr().String(),
		User:           proto.User{UserID: "dora"},
		ConnectTimeout: 2 * time.Second,
	}); !errors.Is(err, client.ErrAlreadyConnected) {
		t.Fatalf("second dora session: err = %v, want ErrAlreadyConnected", err)
	}

	// The refusal must not have touched the first session.
	if err := first.Send(&proto.ChatMessage{
		Snowflake: 41,
		Author:    &proto.User{UserID: "dora", ServerID: "S1"},
		ToUser:    &proto.User{UserID: "dora"},
		Text:      "still here",
	}); err != nil {
		t.Fatalf("send on first session: %v", err)
	}
	msg := await(t, first, proto.PurposeMessage, 2*time.Second).(*proto.ChatMessage)
	if msg.Text != "still here" || msg.Snowflake != 41 {
		t.Fatalf("echo = %+v", msg)
	}

	dialClient(t, n, "dana")
	if got := n.ClientCount(); got != 2 {
		t.Fatalf("client count = %d, want 2", got)
	}
}

func TestHangUpOnMalformedStream(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	conn, rd := rawSession(t, n, "mallory")

	if _, err := conn.Write([]byte("this is not a frame\n")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if reason := awaitHangUp(t, conn, rd); reason != proto.ReasonMalformed {
		t.Fatalf("hang-up reason = %s, want MESSAGE_MALFORMED", reason)
	}
	waitFor(t, "session removal", func() bool { return n.ClientCount() == 0 })
}

func TestHangUpOnOversizedPayload(t *testing.T) {
	t.Parallel()
	cfg := testConfig("S1")
	cfg.MaxPayloadBytes = 1024
	n := startNode(t, cfg, nil)
	conn, rd := rawSession(t, n, "pat")

	// A header announcing more than the node accepts is fatal on its own;
	// no payload bytes need to follow.
	if _, err := conn.Write([]byte("MESSAGE 4096 ")); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if reason := awaitHangUp(t, conn, rd); reason != proto.ReasonPayloadLimit {
		t.Fatalf("hang-up reason = %s, want PAYLOAD_LIMIT_EXCEEDED", reason)
	}
	waitFor(t, "session removal", func() bool { return n.ClientCount() == 0 })
}

func TestHeartbeatTimeoutEvictsSilentClient(t *testing.T) {
	t.Parallel()
	cfg := testConfig("S1")
	cfg.HeartbeatInterval = 30 * time.Millisecond
	cfg.HeartbeatTimeout = 100 * time.Millisecond
	n := startNode(t, cfg, nil)
	conn, rd := rawSession(t, n, "sleepy")

	// Never answer the PINGs; the sweeper must hang us up.
	if reason := awaitHangUp(t, conn, rd); reason != proto.ReasonTimeout {
		t.Fatalf("hang-up reason = %s, want TIMEOUT", reason)
	}
	waitFor(t, "session removal", func() bool { return n.ClientCount() == 0 })
}

func TestHeartbeatPongKeepsSessionAlive(t *testing.T) {
	t.Parallel()
	cfg := testConfig("S1")
	cfg.HeartbeatInterval = 30 * time.Millisecond
	cfg.HeartbeatTimeout = 100 * time.Millisecond
	n := startNode(t, cfg, nil)
	c := dialClient(t, n, "wakeful")

	// Answer pings for several timeout periods; the session must survive.
	deadline := time.Now().Add(350 * time.Millisecond)
	for time.Now().Before(deadline) {
		f, err := c.Recv(200 * time.Millisecond)
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if proto.Purpose(f.Purpose) == proto.PurposePing {
			if err := c.SendFrame(proto.PurposePong, nil); err != nil {
				t.Fatalf("pong: %v", err)
			}
		}
	}
	if got := n.ClientCount(); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}
}

func TestDiscoveryProbeAnswered(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)

	probe, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer probe.Close()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: n.UDPAddr().(*net.UDPAddr).Port}
	if _, err := probe.WriteToUDP(wire.Encode(string(proto.PurposeDiscoverServer), nil), dst); err != nil {
		t.Fatalf("send probe: %v", err)
	}

	buf := make([]byte, 64<<10)
	probe.SetReadDeadline(time.Now().Add(2 * time.Second))
	nb, _, err := probe.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read announce: %v", err)
	}
	f, err := wire.Unmarshal(buf[:nb])
	if err != nil {
		t.Fatalf("parse announce: %v", err)
	}
	if proto.Purpose(f.Purpose) != proto.PurposeServerAnnounce {
		t.Fatalf("reply purpose = %s, want SERVER_ANNOUNCE", f.Purpose)
	}
	var ann proto.ServerAnnounce
	if err := ann.Unmarshal(f.Payload); err != nil {
		t.Fatalf("decode announce: %v", err)
	}
	if ann.ServerID != "S1" {
		t.Fatalf("announced server = %q, want S1", ann.ServerID)
	}
	if got := meshPort(ann.Features); got != int(n.tcpPort()) {
		t.Fatalf("announced port = %d, want %d", got, n.tcpPort())
	}
}

func TestMeshFormsAndSuppressesDuplicates(t *testing.T) {
	t.Parallel()
	a := startNode(t, testConfig("S1"), nil)
	b := startNode(t, testConfig("S2"), nil)

	// Announce in both directions so both ends race to dial; the losing
	// handshake must be refused and the mesh must settle at exactly one
	// session per side.
	announceTo(t, a, b)
	announceTo(t, b, a)
	deadline := time.Now().Add(5 * time.Second)
	stable := 0
	for stable < 5 {
		ca, _ := a.PeerStats()
		cb, _ := b.PeerStats()
		if ca == 1 && cb == 1 {
			stable++
		} else {
			stable = 0
			announceTo(t, a, b)
			announceTo(t, b, a)
		}
		if time.Now().After(deadline) {
			t.Fatalf("mesh never settled, peers %d/%d", ca, cb)
		}
		time.Sleep(20 * time.Millisecond)
	}

	_, ka := a.PeerStats()
	_, kb := b.PeerStats()
	if ka != 1 || kb != 1 {
		t.Fatalf("known servers = %d/%d, want 1/1", ka, kb)
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	dialClient(t, n, "zoe")

	st := n.Snapshot()
	if st.ServerID != "S1" {
		t.Fatalf("server id = %q", st.ServerID)
	}
	if len(st.Clients) != 1 || st.Clients[0] != "zoe" {
		t.Fatalf("clients = %v", st.Clients)
	}
	if len(st.Features) == 0 || st.Features[0].Name != proto.FeatureMessages {
		t.Fatalf("features = %+v", st.Features)
	}
	if st.Uptime == "" {
		t.Fatal("uptime missing")
	}
}
