package node

import (
	"net"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// serveConn owns an accepted connection until its first frame names it:
// CONNECT_CLIENT starts a client session, CONNECT_SERVER a peer session,
// anything else closes the socket.
func (n *Node) serveConn(conn net.Conn) {
	rd := wire.NewReader(conn, n.cfg.MaxPayloadBytes)
	conn.SetReadDeadline(time.Now().Add(n.cfg.ConnectTimeout))
	f, err := rd.Next()
	if err != nil {
		if reason, ok := hangUpReason(err); ok {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			hang := proto.HangUp{Reason: reason}
			wire.WriteFrame(conn, string(proto.PurposeHangUp), hang.Marshal())
			n.m.HangUps.WithLabelValues(reason.String()).Inc()
		}
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})
	n.m.FramesTotal.WithLabelValues("in", f.Purpose).Inc()

	switch proto.Purpose(f.Purpose) {
	case proto.PurposeConnectClient:
		var hello proto.ConnectClient
		if err := hello.Unmarshal(f.Payload); err != nil {
			n.logger.WithFields(logging.Fields{"remote": conn.RemoteAddr().String(), "error": err.Error()}).
				Debug("Undecodable CONNECT_CLIENT")
			conn.Close()
			return
		}
		n.handleInboundClient(conn, rd, &hello)
	case proto.PurposeConnectServer:
		var hello proto.ConnectServer
		if err := hello.Unmarshal(f.Payload); err != nil {
			n.logger.WithFields(logging.Fields{"remote": conn.RemoteAddr().String(), "error": err.Error()}).
				Debug("Undecodable CONNECT_SERVER")
			conn.Close()
			return
		}
		n.handleInboundPeer(conn, rd, &hello)
	default:
		n.logger.WithFields(logging.Fields{"remote": conn.RemoteAddr().String(), "purpose": f.Purpose}).
			Debug("Closing connection with unexpected first frame")
		conn.Close()
	}
}

func (n *Node) handleInboundClient(conn net.Conn, rd *wire.Reader, hello *proto.ConnectClient) {
	if hello.User == nil || hello.User.UserID == "" {
		n.logger.WithFields(logging.Fields{"remote": conn.RemoteAddr().String()}).
			Debug("CONNECT_CLIENT without a user")
		conn.Close()
		return
	}
	user := *hello.User
	if user.ServerID == "" {
		user.ServerID = n.cfg.ServerID
	}

	cs, ok := n.installClient(user, conn)
	if !ok {
		n.logger.WithFields(logging.Fields{"user_id": user.UserID, "remote": conn.RemoteAddr().String()}).
			Info("Refused duplicate client session")
		n.publish("client_rejected", events.ChannelSessions, map[string]interface{}{
			"user_id": user.UserID,
		})
		n.refuse(conn, proto.ConnectAlreadyConnected)
		return
	}
	if err := cs.sendPayload(&proto.ConnectResponse{Result: proto.ConnectOK}); err != nil {
		n.removeClient(cs, "handshake reply failed")
		return
	}
	n.clientReadLoop(cs, rd)
}

// installClient registers a session under its userId; a second session for
// a live identity is refused.
func (n *Node) installClient(user proto.User, conn net.Conn) (*clientSession, bool) {
	cs := &clientSession{
		link:       link{nc: conn, onWrite: n.countOut},
		user:       user,
		lastActive: time.Now(),
	}
	n.clientsMu.Lock()
	if n.clients[user.UserID] != nil {
		n.clientsMu.Unlock()
		return nil, false
	}
	n.clients[user.UserID] = cs
	count := len(n.clients)
	n.clientsMu.Unlock()

	n.m.Sessions.WithLabelValues("client").Set(float64(count))
	n.logger.WithFields(logging.Fields{"user_id": user.UserID, "remote": cs.remote()}).
		Info("Client connected")
	n.publish("client_connected", events.ChannelSessions, map[string]interface{}{
		"user_id": user.UserID,
	})
	return cs, true
}

func (n *Node) clientReadLoop(cs *clientSession, rd *wire.Reader) {
	for {
		f, err := rd.Next()
		if err != nil {
			n.dropClient(cs, err)
			return
		}
		n.m.FramesTotal.WithLabelValues("in", f.Purpose).Inc()
		n.clientsMu.Lock()
		cs.lastActive = time.Now()
		n.clientsMu.Unlock()
		n.dispatch(origin{client: cs}, f)
	}
}

func (n *Node) dropClient(cs *clientSession, err error) {
	if reason, ok := hangUpReason(err); ok {
		cs.sendPayload(&proto.HangUp{Reason: reason})
		n.m.HangUps.WithLabelValues(reason.String()).Inc()
	}
	n.removeClient(cs, err.Error())
}

func (n *Node) removeClient(cs *clientSession, cause string) {
	n.clientsMu.Lock()
	if n.clients[cs.user.UserID] != cs {
		n.clientsMu.Unlock()
		cs.close()
		return
	}
	delete(n.clients, cs.user.UserID)
	count := len(n.clients)
	n.clientsMu.Unlock()

	cs.close()
	n.m.Sessions.WithLabelValues("client").Set(float64(count))
	fields := logging.Fields{"user_id": cs.user.UserID}
	if cause != "" {
		fields["cause"] = cause
	}
	n.logger.WithFields(fields).Info("Client disconnected")
	n.publish("client_disconnected", events.ChannelSessions, map[string]interface{}{
		"user_id": cs.user.UserID,
	})
}

func (n *Node) clientByID(userID string) *clientSession {
	n.clientsMu.Lock()
	defer n.clientsMu.Unlock()
	return n.clients[userID]
}

func (n *Node) clientList() []*clientSession {
	n.clientsMu.Lock()
	defer n.clientsMu.Unlock()
	out := make([]*clientSession, 0, len(n.clients))
	for _, cs := range n.clients {
		out = append(out, cs)
	}
	return out
}
