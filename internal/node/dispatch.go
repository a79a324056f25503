package node

import (
	"context"
	"strings"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

const translateTimeout = 10 * time.Second

// origin is the session a frame arrived on; exactly one field is set.
// Client and peer read loops feed the same dispatcher, so handlers that
// behave differently per origin check it themselves.
type origin struct {
	client *clientSession
	peer   *peerSession
}

func (o origin) send(p proto.Purpose, payload []byte) error {
	if o.client != nil {
		return o.client.send(p, payload)
	}
	return o.peer.send(p, payload)
}

func (o origin) sendPayload(pl proto.Payload) error {
	if o.client != nil {
		return o.client.sendPayload(pl)
	}
	return o.peer.sendPayload(pl)
}

func (o origin) String() string {
	if o.client != nil {
		return "client " + o.client.user.UserID
	}
	if o.peer != nil {
		return "peer " + o.peer.serverID
	}
	return "unknown"
}

// dispatch routes one inbound frame to its handler.
func (n *Node) dispatch(src origin, f wire.Frame) {
	purpose := proto.Purpose(f.Purpose)
	switch purpose {
	case proto.PurposePing:
		src.send(proto.PurposePong, nil)
	case proto.PurposePong:
		// lastActive was refreshed by the read loop, nothing else to do
	case proto.PurposeHangUp:
		n.handleHangUp(src, f.Payload)
	case proto.PurposeMessage:
		n.routeMessage(src, f.Payload)
	case proto.PurposeMessageAck:
		n.routeAck(src, f.Payload)
	case proto.PurposeSearchUsers:
		n.handleSearch(src, f.Payload)
	case proto.PurposeSearchUsersResp:
		n.handleSearchResp(src, f)
	case proto.PurposeModifyGroup:
		n.handleModifyGroup(src, f.Payload)
	case proto.PurposeInviteGroup:
		n.handleInvite(src, f.Payload)
	case proto.PurposeJoinGroup:
		n.handleJoin(src, f.Payload)
	case proto.PurposeLeaveGroup:
		n.handleLeave(src, f.Payload)
	case proto.PurposeQueryGroupMembers:
		n.handleQueryMembers(src, f.Payload)
	case proto.PurposeGroupMembers:
		n.handleGroupMembers(src, f)
	case proto.PurposeSetReminder:
		n.handleSetReminder(src, f.Payload)
	case proto.PurposeReminder:
		n.handleReminderFrame(src, f)
	case proto.PurposeTranslate:
		n.handleTranslate(src, f.Payload)
	case proto.PurposeLiveLocation, proto.PurposeLiveLocations:
		n.relayLocation(src, purpose, f.Payload)
	default:
		if !proto.Known(purpose) {
			n.logger.WithFields(logging.Fields{"purpose": f.Purpose, "from": src.String()}).
				Debug("Ignoring unknown purpose")
			return
		}
		n.unsupported(src, purpose)
	}
}

// unsupported tells a client the node recognised but will not serve a
// message; peers only get a log line.
func (n *Node) unsupported(src origin, p proto.Purpose) {
	n.logger.WithFields(logging.Fields{"purpose": string(p), "from": src.String()}).
		Debug("Unhandled purpose for this origin")
	if src.client != nil {
		src.client.sendPayload(&proto.UnsupportedMessageNotification{MessageName: string(p)})
	}
}

func (n *Node) logDecodeError(src origin, p proto.Purpose, err error) {
	n.logger.WithFields(logging.Fields{"purpose": string(p), "from": src.String(), "error": err.Error()}).
		Debug("Dropping undecodable payload")
}

func (n *Node) handleHangUp(src origin, payload []byte) {
	reason := proto.ReasonUnknown
	var h proto.HangUp
	if h.Unmarshal(payload) == nil {
		reason = h.Reason
	}
	if src.client != nil {
		n.removeClient(src.client, "hang-up "+reason.String())
		return
	}
	n.removePeer(src.peer, "hang-up "+reason.String())
}

// handleTranslate serves the standalone translation service.
func (n *Node) handleTranslate(src origin, payload []byte) {
	var req proto.Translate
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeTranslate, err)
		return
	}
	src.sendPayload(&proto.Translated{
		TargetLanguage: req.TargetLanguage,
		OriginalText:   req.OriginalText,
		TranslatedText: n.translateText(req.OriginalText, req.TargetLanguage),
	})
}

// translateText runs the configured backend. On failure the original text
// passes through so routing never stalls on translation.
func (n *Node) translateText(text string, lang proto.Language) string {
	if n.translator == nil || text == "" {
		return text
	}
	ctx, cancel := context.WithTimeout(context.Background(), translateTimeout)
	defer cancel()
	start := time.Now()
	out, err := n.translator.Translate(ctx, text, lang)
	n.m.TranslateDuration.WithLabelValues(n.translatorName).Observe(time.Since(start).Seconds())
	if err != nil {
		n.m.TranslateRequests.WithLabelValues("error").Inc()
		n.logger.WithFields(logging.Fields{"lang": lang.String(), "error": err.Error()}).
			Warn("Translation failed, passing original text through")
		return text
	}
	n.m.TranslateRequests.WithLabelValues("ok").Inc()
	return out
}

// handleSetReminder schedules a reminder for the requesting client. The
// target must be the session user; reminders on behalf of others are
// refused.
func (n *Node) handleSetReminder(src origin, payload []byte) {
	if src.client == nil {
		n.logger.WithFields(logging.Fields{"from": src.String()}).
			Debug("SET_REMINDER from a peer ignored")
		return
	}
	cs := src.client
	var req proto.SetReminder
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeSetReminder, err)
		return
	}
	if req.User == nil || req.User.UserID != cs.user.UserID {
		n.logger.WithFields(logging.Fields{"user_id": cs.user.UserID}).
			Info("Refused reminder for another user")
		cs.sendPayload(&proto.UnsupportedMessageNotification{MessageName: string(proto.PurposeSetReminder)})
		return
	}
	target := req.User.UserID
	if req.User.ServerID != "" && req.User.ServerID != n.cfg.ServerID {
		target = req.User.UserID + "@" + req.User.ServerID
	}
	n.reminders.Schedule(target, req.Event, time.Duration(req.CountdownSeconds)*time.Second)
	n.publish("reminder_set", events.ChannelReminders, map[string]interface{}{
		"target":      target,
		"countdown_s": req.CountdownSeconds,
	})
}

// handleReminderFrame accepts a fired reminder forwarded by the scheduling
// server; we are the target's home server.
func (n *Node) handleReminderFrame(src origin, f wire.Frame) {
	if src.peer == nil {
		n.unsupported(src, proto.PurposeReminder)
		return
	}
	var rem proto.Reminder
	if err := rem.Unmarshal(f.Payload); err != nil {
		n.logDecodeError(src, proto.PurposeReminder, err)
		return
	}
	if rem.User == nil || rem.User.UserID == "" {
		return
	}
	if cs := n.clientByID(rem.User.UserID); cs != nil {
		cs.send(proto.PurposeReminder, f.Payload)
		n.publish("reminder_delivered", events.ChannelReminders, map[string]interface{}{
			"user_id": rem.User.UserID,
			"from":    src.peer.serverID,
		})
		return
	}
	n.logger.WithFields(logging.Fields{"user_id": rem.User.UserID, "from": src.peer.serverID}).
		Info("Dropping forwarded reminder, user not connected")
}

// deliverReminder is the scheduler's delivery callback. target is either a
// bare userId or userId@serverId for a user homed on another server.
func (n *Node) deliverReminder(target, event string) {
	if cs := n.clientByID(target); cs != nil {
		cs.sendPayload(&proto.Reminder{
			User:    &proto.User{UserID: target, ServerID: n.cfg.ServerID},
			Content: event,
		})
		n.publish("reminder_fired", events.ChannelReminders, map[string]interface{}{
			"user_id": target,
		})
		return
	}
	if userID, serverID, ok := splitTarget(target); ok {
		if ps := n.peerByID(serverID); ps != nil {
			ps.sendPayload(&proto.Reminder{
				User:    &proto.User{UserID: userID, ServerID: serverID},
				Content: event,
			})
			n.publish("reminder_forwarded", events.ChannelReminders, map[string]interface{}{
				"user_id":   userID,
				"server_id": serverID,
			})
			return
		}
	}
	n.logger.WithFields(logging.Fields{"target": target}).
		Info("Dropping fired reminder, target unreachable")
}

func splitTarget(target string) (userID, serverID string, ok bool) {
	i := strings.Index(target, "@")
	if i < 0 {
		return target, "", false
	}
	return target[:i], target[i+1:], true
}

// relayLocation passes live-location frames to the users they name. The
// node treats the samples as opaque.
func (n *Node) relayLocation(src origin, purpose proto.Purpose, payload []byte) {
	var targets []string
	switch purpose {
	case proto.PurposeLiveLocation:
		var loc proto.LiveLocation
		if err := loc.Unmarshal(payload); err != nil {
			n.logDecodeError(src, purpose, err)
			return
		}
		if loc.User != nil {
			targets = append(targets, loc.User.UserID)
		}
	case proto.PurposeLiveLocations:
		var batch proto.LiveLocations
		if err := batch.Unmarshal(payload); err != nil {
			n.logDecodeError(src, purpose, err)
			return
		}
		seen := make(map[string]bool)
		for _, el := range batch.Locations {
			if el.Location.User != nil && !seen[el.Location.User.UserID] {
				seen[el.Location.User.UserID] = true
				targets = append(targets, el.Location.User.UserID)
			}
		}
	}
	for _, id := range targets {
		if cs := n.clientByID(id); cs != nil {
			cs.send(purpose, payload)
		}
	}
}

func (n *Node) handleModifyGroup(src origin, payload []byte) {
	var req proto.ModifyGroup
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeModifyGroup, err)
		return
	}
	actor := ""
	if src.client != nil {
		actor = src.client.user.UserID
	} else if len(req.Admins) > 0 {
		// forwarded modification; the author travels as the first admin
		actor = req.Admins[0].UserID
	}
	result := n.groups.Modify(actor, req.GroupID, req.DisplayName, req.Delete, req.Admins)
	src.sendPayload(&proto.ModifyGroupResponse{Handle: req.Handle, Result: result})
	n.publish("group_modified", events.ChannelGroups, map[string]interface{}{
		"group_id": req.GroupID,
		"actor":    actor,
		"deleted":  req.Delete,
		"result":   result.String(),
	})
}

func (n *Node) handleInvite(src origin, payload []byte) {
	var req proto.InviteToGroup
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeInviteGroup, err)
		return
	}
	if req.User == nil || req.User.UserID == "" {
		n.logger.WithFields(logging.Fields{"group_id": req.GroupID, "from": src.String()}).
			Debug("INVITE_GROUP without an invitee")
		return
	}

	if src.peer != nil {
		// The owning server vetted the inviter; we are the invitee's home
		// server and just deliver the notification.
		if cs := n.clientByID(req.User.UserID); cs != nil {
			cs.sendPayload(&proto.NotifyGroupInvite{
				Handle: req.Handle,
				Group:  &proto.Group{GroupID: req.GroupID, ServerID: src.peer.serverID},
			})
		} else {
			n.logger.WithFields(logging.Fields{"group_id": req.GroupID, "user_id": req.User.UserID}).
				Info("Dropping invite, invitee not connected")
		}
		return
	}

	inviter := src.client.user.UserID
	if !n.groups.Exists(req.GroupID) {
		n.logger.WithFields(logging.Fields{"group_id": req.GroupID, "user_id": inviter}).
			Info("Dropping invite to unknown group")
		return
	}
	if !n.groups.IsAdmin(req.GroupID, inviter) {
		n.logger.WithFields(logging.Fields{"group_id": req.GroupID, "user_id": inviter}).
			Info("Dropping invite from non-admin")
		return
	}

	if cs := n.clientByID(req.User.UserID); cs != nil {
		cs.sendPayload(&proto.NotifyGroupInvite{
			Handle: req.Handle,
			Group:  &proto.Group{GroupID: req.GroupID, ServerID: n.cfg.ServerID},
		})
	} else if req.User.ServerID != "" && req.User.ServerID != n.cfg.ServerID {
		if ps := n.peerByID(req.User.ServerID); ps != nil {
			ps.send(proto.PurposeInviteGroup, payload)
		} else {
			n.logger.WithFields(logging.Fields{"group_id": req.GroupID, "user_id": req.User.UserID}).
				Info("Dropping invite, invitee home server not connected")
		}
	} else {
		n.logger.WithFields(logging.Fields{"group_id": req.GroupID, "user_id": req.User.UserID}).
			Info("Dropping invite, invitee not connected")
	}
	n.publish("invite_sent", events.ChannelGroups, map[string]interface{}{
		"group_id": req.GroupID,
		"inviter":  inviter,
		"invitee":  req.User.UserID,
	})
}

func (n *Node) handleJoin(src origin, payload []byte) {
	var req proto.JoinGroup
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeJoinGroup, err)
		return
	}
	if req.Group == nil || req.User == nil || req.User.UserID == "" {
		n.logger.WithFields(logging.Fields{"from": src.String()}).
			Debug("JOIN_GROUP without group or user")
		return
	}

	// Joins act on the owning server; forward when that is not us.
	if req.Group.ServerID != "" && req.Group.ServerID != n.cfg.ServerID {
		if src.client == nil {
			n.logger.WithFields(logging.Fields{"group": req.Group.String(), "from": src.String()}).
				Debug("Dropping misrouted JOIN_GROUP")
			return
		}
		user := *req.User
		if user.ServerID == "" {
			user.ServerID = n.cfg.ServerID
		}
		if ps := n.peerByID(req.Group.ServerID); ps != nil {
			ps.sendPayload(&proto.JoinGroup{Handle: req.Handle, Group: req.Group, User: &user})
		} else {
			n.logger.WithFields(logging.Fields{"group": req.Group.String()}).
				Info("Dropping join, owning server not connected")
		}
		return
	}

	user := *req.User
	if user.ServerID == "" {
		if src.client != nil {
			user.ServerID = n.cfg.ServerID
		} else {
			user.ServerID = src.peer.serverID
		}
	}
	members, ok := n.groups.Join(req.Group.GroupID, user)
	if !ok {
		n.logger.WithFields(logging.Fields{"group_id": req.Group.GroupID, "user_id": user.UserID}).
			Info("Dropping join to unknown group")
		return
	}
	n.publish("member_joined", events.ChannelGroups, map[string]interface{}{
		"group_id": req.Group.GroupID,
		"user_id":  user.UserID,
	})
	n.pushMembers(req.Group.GroupID, members)
}

func (n *Node) handleLeave(src origin, payload []byte) {
	var req proto.LeaveGroup
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeLeaveGroup, err)
		return
	}
	if req.Group == nil || req.User == nil || req.User.UserID == "" {
		n.logger.WithFields(logging.Fields{"from": src.String()}).
			Debug("LEAVE_GROUP without group or user")
		return
	}

	if req.Group.ServerID != "" && req.Group.ServerID != n.cfg.ServerID {
		if src.client == nil {
			n.logger.WithFields(logging.Fields{"group": req.Group.String(), "from": src.String()}).
				Debug("Dropping misrouted LEAVE_GROUP")
			return
		}
		if ps := n.peerByID(req.Group.ServerID); ps != nil {
			ps.send(proto.PurposeLeaveGroup, payload)
		} else {
			n.logger.WithFields(logging.Fields{"group": req.Group.String()}).
				Info("Dropping leave, owning server not connected")
		}
		return
	}

	remaining, deleted, found := n.groups.Leave(req.Group.GroupID, req.User.UserID)
	if !found {
		n.logger.WithFields(logging.Fields{"group_id": req.Group.GroupID, "user_id": req.User.UserID}).
			Debug("Leave for unknown group or member")
		return
	}
	if deleted {
		n.publish("group_deleted", events.ChannelGroups, map[string]interface{}{
			"group_id": req.Group.GroupID,
		})
		return
	}
	n.publish("member_left", events.ChannelGroups, map[string]interface{}{
		"group_id": req.Group.GroupID,
		"user_id":  req.User.UserID,
	})
	n.pushMembers(req.Group.GroupID, remaining)
}

func (n *Node) handleQueryMembers(src origin, payload []byte) {
	var req proto.ListGroupMembers
	if err := req.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeQueryGroupMembers, err)
		return
	}
	groupID := ""
	if req.Group != nil {
		groupID = req.Group.GroupID
	}
	resp := proto.GroupMembers{
		Group:  &proto.Group{GroupID: groupID, ServerID: n.cfg.ServerID},
		Result: proto.MembersSuccess,
	}
	if members, ok := n.groups.Members(groupID); ok {
		resp.Members = members
	} else {
		resp.Result = proto.MembersNotFound
	}
	src.sendPayload(&resp)
}

// handleGroupMembers delivers a membership push from a group's owning
// server to the members who live here.
func (n *Node) handleGroupMembers(src origin, f wire.Frame) {
	if src.peer == nil {
		n.unsupported(src, proto.PurposeGroupMembers)
		return
	}
	var pl proto.GroupMembers
	if err := pl.Unmarshal(f.Payload); err != nil {
		n.logDecodeError(src, proto.PurposeGroupMembers, err)
		return
	}
	for _, m := range pl.Members {
		if cs := n.clientByID(m.UserID); cs != nil {
			cs.send(proto.PurposeGroupMembers, f.Payload)
		}
	}
}

// pushMembers announces a group's member list to every member it can
// reach: local sessions directly, remote members via their home peer.
func (n *Node) pushMembers(groupID string, members []proto.User) {
	pl := proto.GroupMembers{
		Group:   &proto.Group{GroupID: groupID, ServerID: n.cfg.ServerID},
		Result:  proto.MembersSuccess,
		Members: members,
	}
	raw := pl.Marshal()
	peersSent := make(map[string]bool)
	for _, m := range members {
		if cs := n.clientByID(m.UserID); cs != nil {
			cs.send(proto.PurposeGroupMembers, raw)
			continue
		}
		if m.ServerID == "" || m.ServerID == n.cfg.ServerID || peersSent[m.ServerID] {
			continue
		}
		peersSent[m.ServerID] = true
		if ps := n.peerByID(m.ServerID); ps != nil {
			ps.send(proto.PurposeGroupMembers, raw)
		}
	}
}
