package node

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// dialPeer connects to a discovered server's mesh listener. A randomized
// wait before dialing breaks the symmetry when two servers discover each
// other at once: whichever handshake lands first wins and the other side
// is refused as a duplicate.
func (n *Node) dialPeer(ctx context.Context, serverID, addr string) {
	n.peersMu.Lock()
	if n.peers[serverID] != nil || n.dialing[serverID] {
		n.peersMu.Unlock()
		return
	}
	n.dialing[serverID] = true
	n.peersMu.Unlock()
	defer func() {
		n.peersMu.Lock()
		delete(n.dialing, serverID)
		n.peersMu.Unlock()
	}()

	backoff := time.NewTimer(n.dialBackoff())
	select {
	case <-ctx.Done():
		backoff.Stop()
		return
	case <-backoff.C:
	}

	n.peersMu.Lock()
	connected := n.peers[serverID] != nil
	n.peersMu.Unlock()
	if connected {
		return
	}

	conn, err := net.DialTimeout("tcp", addr, n.cfg.ConnectTimeout)
	if err != nil {
		n.logger.WithFields(logging.Fields{"server_id": serverID, "addr": addr, "error": err.Error()}).
			Debug("Peer dial failed")
		return
	}

	hello := proto.ConnectServer{ServerID: n.cfg.ServerID, Features: n.featureNames()}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := wire.WriteFrame(conn, string(proto.PurposeConnectServer), hello.Marshal()); err != nil {
		conn.Close()
		n.logger.WithFields(logging.Fields{"server_id": serverID, "error": err.Error()}).
			Debug("Peer handshake write failed")
		return
	}
	conn.SetWriteDeadline(time.Time{})
	n.m.FramesTotal.WithLabelValues("out", string(proto.PurposeConnectServer)).Inc()

	rd := wire.NewReader(conn, n.cfg.MaxPayloadBytes)
	conn.SetReadDeadline(time.Now().Add(n.cfg.ConnectTimeout))
	f, err := rd.Next()
	if err != nil {
		conn.Close()
		n.logger.WithFields(logging.Fields{"server_id": serverID, "error": err.Error()}).
			Debug("Peer handshake read failed")
		return
	}
	conn.SetReadDeadline(time.Time{})
	n.m.FramesTotal.WithLabelValues("in", f.Purpose).Inc()

	var resp proto.ConnectResponse
	if proto.Purpose(f.Purpose) != proto.PurposeConnected || resp.Unmarshal(f.Payload) != nil {
		conn.Close()
		n.logger.WithFields(logging.Fields{"server_id": serverID, "purpose": f.Purpose}).
			Debug("Unexpected peer handshake reply")
		return
	}
	if resp.Result != proto.ConnectOK {
		conn.Close()
		n.logger.WithFields(logging.Fields{"server_id": serverID, "result": resp.Result.String()}).
			Debug("Peer refused session")
		return
	}

	ps, ok := n.installPeer(serverID, conn, n.knownFeatureNames(serverID))
	if !ok {
		// Lost the race to an inbound handshake from the same server.
		conn.Close()
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.peerReadLoop(ps, rd)
	}()
}

func (n *Node) dialBackoff() time.Duration {
	lo, hi := n.cfg.DialBackoffMin, n.cfg.DialBackoffMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

func (n *Node) knownFeatureNames(serverID string) []string {
	n.knownMu.Lock()
	defer n.knownMu.Unlock()
	ks, ok := n.known[serverID]
	if !ok {
		return nil
	}
	names := make([]string, len(ks.features))
	for i, f := range ks.features {
		names[i] = f.Name
	}
	return names
}

// handleInboundPeer completes a CONNECT_SERVER handshake on an accepted
// connection, then serves its frames. Runs on the connection's goroutine.
func (n *Node) handleInboundPeer(conn net.Conn, rd *wire.Reader, hello *proto.ConnectServer) {
	if hello.ServerID == "" {
		n.logger.WithFields(logging.Fields{"remote": conn.RemoteAddr().String()}).
			Debug("CONNECT_SERVER without a server id")
		conn.Close()
		return
	}
	if hello.ServerID == n.cfg.ServerID {
		n.refuse(conn, proto.ConnectAlreadyConnected)
		return
	}

	ps, ok := n.installPeer(hello.ServerID, conn, hello.Features)
	if !ok {
		n.logger.WithFields(logging.Fields{"server_id": hello.ServerID}).
			Debug("Refused duplicate peer session")
		n.refuse(conn, proto.ConnectAlreadyConnected)
		return
	}
	if err := ps.sendPayload(&proto.ConnectResponse{Result: proto.ConnectOK}); err != nil {
		n.removePeer(ps, "handshake reply failed")
		return
	}
	n.peerReadLoop(ps, rd)
}

// installPeer registers a session under its serverId; exactly one session
// per peer may exist.
func (n *Node) installPeer(serverID string, conn net.Conn, features []string) (*peerSession, bool) {
	ps := &peerSession{
		link:       link{nc: conn, onWrite: n.countOut},
		serverID:   serverID,
		features:   features,
		lastActive: time.Now(),
	}
	n.peersMu.Lock()
	if n.peers[serverID] != nil {
		n.peersMu.Unlock()
		return nil, false
	}
	n.peers[serverID] = ps
	count := len(n.peers)
	n.peersMu.Unlock()

	n.m.Sessions.WithLabelValues("peer").Set(float64(count))
	n.logger.WithFields(logging.Fields{"server_id": serverID, "remote": ps.remote()}).
		Info("Peer connected")
	n.publish("peer_connected", events.ChannelMesh, map[string]interface{}{
		"server_id": serverID,
		"remote":    ps.remote(),
	})
	return ps, true
}

func (n *Node) peerReadLoop(ps *peerSession, rd *wire.Reader) {
	for {
		f, err := rd.Next()
		if err != nil {
			n.dropPeer(ps, err)
			return
		}
		n.m.FramesTotal.WithLabelValues("in", f.Purpose).Inc()
		n.peersMu.Lock()
		ps.lastActive = time.Now()
		n.peersMu.Unlock()
		n.dispatch(origin{peer: ps}, f)
	}
}

// dropPeer hangs up (when the failure is a protocol violation) and removes
// the session.
func (n *Node) dropPeer(ps *peerSession, err error) {
	if reason, ok := hangUpReason(err); ok {
		ps.sendPayload(&proto.HangUp{Reason: reason})
		n.m.HangUps.WithLabelValues(reason.String()).Inc()
	}
	n.removePeer(ps, err.Error())
}

func (n *Node) removePeer(ps *peerSession, cause string) {
	n.peersMu.Lock()
	if n.peers[ps.serverID] != ps {
		n.peersMu.Unlock()
		ps.close()
		return
	}
	delete(n.peers, ps.serverID)
	count := len(n.peers)
	n.peersMu.Unlock()

	ps.close()
	n.m.Sessions.WithLabelValues("peer").Set(float64(count))
	fields := logging.Fields{"server_id": ps.serverID}
	if cause != "" {
		fields["cause"] = cause
	}
	n.logger.WithFields(fields).Info("Peer disconnected")
	n.publish("peer_disconnected", events.ChannelMesh, map[string]interface{}{
		"server_id": ps.serverID,
	})
}

func (n *Node) peerByID(serverID string) *peerSession {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	return n.peers[serverID]
}

func (n *Node) peerList() []*peerSession {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	out := make([]*peerSession, 0, len(n.peers))
	for _, ps := range n.peers {
		out = append(out, ps)
	}
	return out
}

// refuse answers a handshake with result and closes the socket.
func (n *Node) refuse(conn net.Conn, result proto.ConnectResult) {
	resp := proto.ConnectResponse{Result: result}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if wire.WriteFrame(conn, string(proto.PurposeConnected), resp.Marshal()) == nil {
		n.m.FramesTotal.WithLabelValues("out", string(proto.PurposeConnected)).Inc()
	}
	conn.Close()
}

func (n *Node) countOut(purpose string) {
	n.m.FramesTotal.WithLabelValues("out", purpose).Inc()
}

// hangUpReason maps a read-loop error to the HANGUP to send before closing.
// Plain I/O errors mean the remote is gone and get no hang-up.
func hangUpReason(err error) (proto.HangUpReason, bool) {
	switch {
	case errors.Is(err, wire.ErrPayloadTooLarge):
		return proto.ReasonPayloadLimit, true
	case errors.Is(err, wire.ErrMalformedFrame):
		return proto.ReasonMalformed, true
	default:
		return proto.ReasonUnknown, false
	}
}
