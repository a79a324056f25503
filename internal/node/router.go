package node

import (
	"context"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
)

// routeMessage implements the MESSAGE delivery rules: a local session wins,
// then the peer matching the recipient's serverId, then a best-effort
// broadcast to every peer. Messages arriving from a peer are never
// re-broadcast and never travel back on the link they came in on, which
// keeps the fan-out loop-free.
func (n *Node) routeMessage(src origin, payload []byte) {
	var msg proto.ChatMessage
	if err := msg.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeMessage, err)
		return
	}

	// Fill pending translation content before the message travels further.
	if tr := msg.Translation; tr != nil && tr.OriginalText != "" && tr.TranslatedText == "" {
		tr.TranslatedText = n.translateText(tr.OriginalText, tr.TargetLanguage)
		payload = msg.Marshal()
	}

	author := msg.Author
	if author == nil && src.client != nil {
		u := src.client.user
		author = &u
	}

	switch {
	case msg.ToUser != nil:
		n.routeToUser(src, &msg, *msg.ToUser, author, payload)
	case msg.ToUserOfGroup != nil:
		n.routeToUser(src, &msg, msg.ToUserOfGroup.User, author, payload)
	case msg.ToGroup != nil:
		n.routeToGroup(src, &msg, *msg.ToGroup, author, payload)
	default:
		n.logger.WithFields(logging.Fields{"snowflake": msg.Snowflake, "from": src.String()}).
			Debug("Dropping message without a recipient")
	}
}

func (n *Node) routeToUser(src origin, msg *proto.ChatMessage, to proto.User, author *proto.User, payload []byte) {
	n.recordAck(msg.Snowflake, author, to)

	if cs := n.clientByID(to.UserID); cs != nil {
		if err := cs.send(proto.PurposeMessage, payload); err != nil {
			n.removeClient(cs, "write failed")
			n.m.MessagesRouted.WithLabelValues("local", "error").Inc()
			return
		}
		n.m.MessagesRouted.WithLabelValues("local", "delivered").Inc()
		n.publish("message_delivered", events.ChannelRouting, map[string]interface{}{
			"snowflake": msg.Snowflake,
			"user_id":   to.UserID,
		})
		return
	}

	if to.ServerID != "" && to.ServerID != n.cfg.ServerID {
		if ps := n.peerByID(to.ServerID); ps != nil && ps != src.peer {
			if err := ps.send(proto.PurposeMessage, payload); err == nil {
				n.m.MessagesRouted.WithLabelValues("peer", "forwarded").Inc()
				n.publish("message_forwarded", events.ChannelRouting, map[string]interface{}{
					"snowflake": msg.Snowflake,
					"server_id": to.ServerID,
				})
				return
			}
		}
	}

	if src.peer != nil {
		// A forwarded message with no local target stops here.
		n.m.MessagesRouted.WithLabelValues("peer", "dropped").Inc()
		n.logger.WithFields(logging.Fields{"snowflake": msg.Snowflake, "user": to.String()}).
			Info("Dropping forwarded message for unknown user")
		return
	}

	peers := n.peerList()
	if len(peers) == 0 {
		n.m.MessagesRouted.WithLabelValues("broadcast", "dropped").Inc()
		n.logger.WithFields(logging.Fields{"snowflake": msg.Snowflake, "user": to.String()}).
			Info("Dropping message, no route to user")
		return
	}
	for _, ps := range peers {
		ps.send(proto.PurposeMessage, payload)
	}
	n.m.MessagesRouted.WithLabelValues("broadcast", "forwarded").Inc()
	n.publish("message_broadcast", events.ChannelRouting, map[string]interface{}{
		"snowflake": msg.Snowflake,
		"user":      to.String(),
		"peers":     len(peers),
	})
}

// routeToGroup fans a message out to a locally owned group: members with a
// local session get the frame unchanged, remote members get a copy
// re-addressed to them individually and sent via their home peer. The
// author never receives their own message back.
func (n *Node) routeToGroup(src origin, msg *proto.ChatMessage, g proto.Group, author *proto.User, payload []byte) {
	members, ok := n.groups.Members(g.GroupID)
	if !ok || (g.ServerID != "" && g.ServerID != n.cfg.ServerID) {
		n.m.MessagesRouted.WithLabelValues("group", "dropped").Inc()
		n.logger.WithFields(logging.Fields{"snowflake": msg.Snowflake, "group": g.String()}).
			Info("Dropping message to unknown group")
		return
	}

	n.recordAck(msg.Snowflake, author, proto.User{})
	authorID := ""
	if author != nil {
		authorID = author.UserID
	}

	delivered := 0
	for _, member := range members {
		if member.UserID == authorID {
			continue
		}
		if cs := n.clientByID(member.UserID); cs != nil {
			if cs.send(proto.PurposeMessage, payload) == nil {
				delivered++
			}
			continue
		}
		if member.ServerID == "" || member.ServerID == n.cfg.ServerID {
			continue
		}
		ps := n.peerByID(member.ServerID)
		if ps == nil {
			continue
		}
		fwd := *msg
		fwd.ToUser = nil
		fwd.ToGroup = nil
		fwd.ToUserOfGroup = &proto.UserOfGroup{
			User:  member,
			Group: proto.Group{GroupID: g.GroupID, ServerID: n.cfg.ServerID},
		}
		if ps.sendPayload(&fwd) == nil {
			delivered++
		}
	}
	n.m.MessagesRouted.WithLabelValues("group", "delivered").Inc()
	n.publish("message_fanout", events.ChannelRouting, map[string]interface{}{
		"snowflake": msg.Snowflake,
		"group_id":  g.GroupID,
		"reached":   delivered,
	})
}

// recordAck remembers where a message came from, and for whom it was, so
// the matching MESSAGE_ACK can travel back. Messages without an author
// cannot be acknowledged and get no entry.
func (n *Node) recordAck(snowflake uint64, author *proto.User, to proto.User) {
	if snowflake == 0 || author == nil || author.UserID == "" {
		return
	}
	serverID := author.ServerID
	if serverID == "" {
		serverID = n.cfg.ServerID
	}
	ttl := n.cfg.AckTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	n.acksMu.Lock()
	n.acks[snowflake] = pendingAck{
		userID:   author.UserID,
		serverID: serverID,
		to:       to,
		expires:  time.Now().Add(ttl),
	}
	n.m.AcksPending.Set(float64(len(n.acks)))
	n.acksMu.Unlock()
}

// routeAck walks a MESSAGE_ACK back toward the message source using the
// pending table. Entries are one-shot: consumed on the first matching ACK.
func (n *Node) routeAck(src origin, payload []byte) {
	var ack proto.ChatMessageResponse
	if err := ack.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeMessageAck, err)
		return
	}

	n.acksMu.Lock()
	source, ok := n.acks[ack.Snowflake]
	if ok {
		delete(n.acks, ack.Snowflake)
		n.m.AcksPending.Set(float64(len(n.acks)))
	}
	n.acksMu.Unlock()
	if !ok {
		n.logger.WithFields(logging.Fields{"snowflake": ack.Snowflake, "from": src.String()}).
			Debug("Dropping ACK with no pending message")
		return
	}

	if cs := n.clientByID(source.userID); cs != nil {
		cs.send(proto.PurposeMessageAck, payload)
		n.publish("ack_returned", events.ChannelRouting, map[string]interface{}{
			"snowflake": ack.Snowflake,
			"user_id":   source.userID,
		})
		return
	}
	if source.serverID != "" && source.serverID != n.cfg.ServerID {
		if ps := n.peerByID(source.serverID); ps != nil {
			ps.send(proto.PurposeMessageAck, payload)
			return
		}
	}
	n.logger.WithFields(logging.Fields{"snowflake": ack.Snowflake, "source": source.userID}).
		Info("Dropping ACK, source unreachable")
}

// sweepAcks evicts pending entries past their deadline so the table stays
// bounded even when a destination never answers.
func (n *Node) sweepAcks(ctx context.Context) error {
	interval := n.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.expireAcks(time.Now())
		}
	}
}

// expireAcks removes entries whose deadline passed and fails them back to
// a locally connected source as OTHER_SERVER_TIMEOUT.
func (n *Node) expireAcks(now time.Time) {
	n.acksMu.Lock()
	var expired map[uint64]pendingAck
	for sf, pa := range n.acks {
		if now.After(pa.expires) {
			if expired == nil {
				expired = make(map[uint64]pendingAck)
			}
			expired[sf] = pa
			delete(n.acks, sf)
		}
	}
	if expired != nil {
		n.m.AcksPending.Set(float64(len(n.acks)))
	}
	n.acksMu.Unlock()

	for sf, pa := range expired {
		n.logger.WithFields(logging.Fields{"snowflake": sf, "source": pa.userID}).
			Info("Expiring unanswered message")
		if pa.serverID != n.cfg.ServerID {
			continue
		}
		cs := n.clientByID(pa.userID)
		if cs == nil {
			continue
		}
		cs.sendPayload(&proto.ChatMessageResponse{
			Snowflake: sf,
			Statuses:  []proto.DeliveryStatus{{User: pa.to, Status: proto.StatusPeerTimeout}},
		})
	}
}
