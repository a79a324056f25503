package node

import (
	"context"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
)

// sweepClients pings idle client sessions every heartbeat interval and
// evicts the ones silent past the timeout. Eviction sends a best-effort
// TIMEOUT hang-up first.
func (n *Node) sweepClients(ctx context.Context) error {
	ticker := time.NewTicker(n.heartbeatInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := time.Now()
		var idle, dead []*clientSession
		n.clientsMu.Lock()
		for _, cs := range n.clients {
			if now.Sub(cs.lastActive) > n.cfg.HeartbeatTimeout {
				dead = append(dead, cs)
			} else {
				idle = append(idle, cs)
			}
		}
		n.clientsMu.Unlock()

		for _, cs := range dead {
			cs.sendPayload(&proto.HangUp{Reason: proto.ReasonTimeout})
			n.m.HangUps.WithLabelValues(proto.ReasonTimeout.String()).Inc()
			n.publish("client_timeout", events.ChannelSessions, map[string]interface{}{
				"user_id": cs.user.UserID,
			})
			n.removeClient(cs, "heartbeat timeout")
		}
		for _, cs := range idle {
			if cs.send(proto.PurposePing, nil) != nil {
				n.removeClient(cs, "ping write failed")
			}
		}
	}
}

// sweepPeers mirrors sweepClients for the server mesh.
func (n *Node) sweepPeers(ctx context.Context) error {
	ticker := time.NewTicker(n.heartbeatInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := time.Now()
		var idle, dead []*peerSession
		n.peersMu.Lock()
		for _, ps := range n.peers {
			if now.Sub(ps.lastActive) > n.cfg.HeartbeatTimeout {
				dead = append(dead, ps)
			} else {
				idle = append(idle, ps)
			}
		}
		n.peersMu.Unlock()

		for _, ps := range dead {
			ps.sendPayload(&proto.HangUp{Reason: proto.ReasonTimeout})
			n.m.HangUps.WithLabelValues(proto.ReasonTimeout.String()).Inc()
			n.publish("peer_timeout", events.ChannelMesh, map[string]interface{}{
				"server_id": ps.serverID,
			})
			n.removePeer(ps, "heartbeat timeout")
		}
		for _, ps := range idle {
			if ps.send(proto.PurposePing, nil) != nil {
				n.removePeer(ps, "ping write failed")
			}
		}
	}
}

func (n *Node) heartbeatInterval() time.Duration {
	if n.cfg.HeartbeatInterval > 0 {
		return n.cfg.HeartbeatInterval
	}
	return 10 * time.Second
}
