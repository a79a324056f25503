// Package proto defines the closed set of message purposes spoken in the
// federation and the typed payloads that travel inside wire frames. The
// purpose token is the frame header on the wire; payloads are protobuf
// binary, maintained by hand in codec.go.
package proto

import "fmt"

// Purpose identifies a message type; its string form goes on the wire.
type Purpose string

const (
	PurposeDiscoverServer     Purpose = "DISCOVER_SERVER"
	PurposeServerAnnounce     Purpose = "SERVER_ANNOUNCE"
	PurposeConnectClient      Purpose = "CONNECT_CLIENT"
	PurposeConnectServer      Purpose = "CONNECT_SERVER"
	PurposeConnected          Purpose = "CONNECTED"
	PurposePing               Purpose = "PING"
	PurposePong               Purpose = "PONG"
	PurposeHangUp             Purpose = "HANGUP"
	PurposeMessage            Purpose = "MESSAGE"
	PurposeMessageAck         Purpose = "MESSAGE_ACK"
	PurposeSearchUsers        Purpose = "SEARCH_USERS"
	PurposeSearchUsersResp    Purpose = "SEARCH_USERS_RESP"
	PurposeModifyGroup        Purpose = "MODIFY_GROUP"
	PurposeModifyGroupResp    Purpose = "MODIFY_GROUP_RESP"
	PurposeInviteGroup        Purpose = "INVITE_GROUP"
	PurposeNotifyGroupInvite  Purpose = "NOTIFY_GROUP_INVITE"
	PurposeJoinGroup          Purpose = "JOIN_GROUP"
	PurposeLeaveGroup         Purpose = "LEAVE_GROUP"
	PurposeQueryGroupMembers  Purpose = "QUERY_GROUP_MEMBERS"
	PurposeGroupMembers       Purpose = "GROUP_MEMBERS"
	PurposeSetReminder        Purpose = "SET_REMINDER"
	PurposeReminder           Purpose = "REMINDER"
	PurposeTranslate          Purpose = "TRANSLATE"
	PurposeTranslated         Purpose = "TRANSLATED"
	PurposeLiveLocation       Purpose = "LIVE_LOCATION"
	PurposeLiveLocations      Purpose = "LIVE_LOCATIONS"
	PurposeUnsupportedMessage Purpose = "UNSUPPORTED_MESSAGE_NOTIFICATION"
)

// Feature names a node announces over discovery.
const (
	FeatureMessages    = "MESSAGES"
	FeatureReminder    = "REMINDER"
	FeatureTranslation = "TRANSLATION"
)

// Payload is implemented by every message that travels inside a frame.
type Payload interface {
	Purpose() Purpose
	Marshal() []byte
	Unmarshal(data []byte) error
}

func (a *ServerAnnounce) Purpose() Purpose                 { return PurposeServerAnnounce }
func (c *ConnectClient) Purpose() Purpose                  { return PurposeConnectClient }
func (c *ConnectServer) Purpose() Purpose                  { return PurposeConnectServer }
func (c *ConnectResponse) Purpose() Purpose                { return PurposeConnected }
func (h *HangUp) Purpose() Purpose                         { return PurposeHangUp }
func (m *ChatMessage) Purpose() Purpose                    { return PurposeMessage }
func (r *ChatMessageResponse) Purpose() Purpose            { return PurposeMessageAck }
func (q *QueryUsers) Purpose() Purpose                     { return PurposeSearchUsers }
func (q *QueryUsersResponse) Purpose() Purpose             { return PurposeSearchUsersResp }
func (g *ModifyGroup) Purpose() Purpose                    { return PurposeModifyGroup }
func (r *ModifyGroupResponse) Purpose() Purpose            { return PurposeModifyGroupResp }
func (i *InviteToGroup) Purpose() Purpose                  { return PurposeInviteGroup }
func (i *NotifyGroupInvite) Purpose() Purpose              { return PurposeNotifyGroupInvite }
func (j *JoinGroup) Purpose() Purpose                      { return PurposeJoinGroup }
func (l *LeaveGroup) Purpose() Purpose                     { return PurposeLeaveGroup }
func (l *ListGroupMembers) Purpose() Purpose               { return PurposeQueryGroupMembers }
func (g *GroupMembers) Purpose() Purpose                   { return PurposeGroupMembers }
func (s *SetReminder) Purpose() Purpose                    { return PurposeSetReminder }
func (r *Reminder) Purpose() Purpose                       { return PurposeReminder }
func (t *Translate) Purpose() Purpose                      { return PurposeTranslate }
func (t *Translated) Purpose() Purpose                     { return PurposeTranslated }
func (l *LiveLocation) Purpose() Purpose                   { return PurposeLiveLocation }
func (l *LiveLocations) Purpose() Purpose                  { return PurposeLiveLocations }
func (u *UnsupportedMessageNotification) Purpose() Purpose { return PurposeUnsupportedMessage }

var payloadFactories = map[Purpose]func() Payload{
	PurposeServerAnnounce:     func() Payload { return new(ServerAnnounce) },
	PurposeConnectClient:      func() Payload { return new(ConnectClient) },
	PurposeConnectServer:      func() Payload { return new(ConnectServer) },
	PurposeConnected:          func() Payload { return new(ConnectResponse) },
	PurposeHangUp:             func() Payload { return new(HangUp) },
	PurposeMessage:            func() Payload { return new(ChatMessage) },
	PurposeMessageAck:         func() Payload { return new(ChatMessageResponse) },
	PurposeSearchUsers:        func() Payload { return new(QueryUsers) },
	PurposeSearchUsersResp:    func() Payload { return new(QueryUsersResponse) },
	PurposeModifyGroup:        func() Payload { return new(ModifyGroup) },
	PurposeModifyGroupResp:    func() Payload { return new(ModifyGroupResponse) },
	PurposeInviteGroup:        func() Payload { return new(InviteToGroup) },
	PurposeNotifyGroupInvite:  func() Payload { return new(NotifyGroupInvite) },
	PurposeJoinGroup:          func() Payload { return new(JoinGroup) },
	PurposeLeaveGroup:         func() Payload { return new(LeaveGroup) },
	PurposeQueryGroupMembers:  func() Payload { return new(ListGroupMembers) },
	PurposeGroupMembers:       func() Payload { return new(GroupMembers) },
	PurposeSetReminder:        func() Payload { return new(SetReminder) },
	PurposeReminder:           func() Payload { return new(Reminder) },
	PurposeTranslate:          func() Payload { return new(Translate) },
	PurposeTranslated:         func() Payload { return new(Translated) },
	PurposeLiveLocation:       func() Payload { return new(LiveLocation) },
	PurposeLiveLocations:      func() Payload { return new(LiveLocations) },
	PurposeUnsupportedMessage: func() Payload { return new(UnsupportedMessageNotification) },
}

// Purposes whose payload is always empty.
var emptyPurposes = map[Purpose]bool{
	PurposeDiscoverServer: true,
	PurposePing:           true,
	PurposePong:           true,
}

// Known reports whether p belongs to the protocol's closed purpose set.
func Known(p Purpose) bool {
	return emptyPurposes[p] || payloadFactories[p] != nil
}

// New returns an empty payload value for p. ok is false for unknown purposes
// and for purposes that carry no payload.
func New(p Purpose) (Payload, bool) {
	f, ok := payloadFactories[p]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Decode instantiates and unmarshals the payload for p.
func Decode(p Purpose, data []byte) (Payload, error) {
	pl, ok := New(p)
	if !ok {
		return nil, fmt.Errorf("proto: purpose %q carries no decodable payload", p)
	}
	if err := pl.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("proto: decode %s: %w", p, err)
	}
	return pl, nil
}
