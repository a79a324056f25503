package proto

// User identifies a user across the federation. UserID alone is unique only
// within its home server.
type User struct {
	UserID   string
	ServerID string
}

func (u User) String() string {
	if u.ServerID == "" {
		return u.UserID
	}
	return u.UserID + "@" + u.ServerID
}

// Group identifies a group; ServerID names the owning server, the only place
// the group's state lives.
type Group struct {
	GroupID  string
	ServerID string
}

func (g Group) String() string {
	if g.ServerID == "" {
		return g.GroupID
	}
	return g.GroupID + "@" + g.ServerID
}

// UserOfGroup addresses one member in the context of a group.
type UserOfGroup struct {
	User  User
	Group Group
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// LiveLocation is a user's position sample at Timestamp (unix seconds).
type LiveLocation struct {
	User      *User
	Timestamp int64
	Location  *Coordinates
}

// ExtendedLiveLocation pairs a location sample with the instant it stops
// being valid.
type ExtendedLiveLocation struct {
	Location  LiveLocation
	ExpiresAt int64
}

// LiveLocations carries a batch of location samples between clients.
type LiveLocations struct {
	Locations []ExtendedLiveLocation
}

// Language selects a translation target.
type Language int32

const (
	LanguageDE Language = 0
	LanguageEN Language = 1
	LanguageZH Language = 2
	LanguageTR Language = 3
)

func (l Language) String() string {
	switch l {
	case LanguageDE:
		return "DE"
	case LanguageEN:
		return "EN"
	case LanguageZH:
		return "ZH"
	case LanguageTR:
		return "TR"
	default:
		return "UNKNOWN"
	}
}

// Translation is the translated-text message content: the sender fills
// OriginalText, a translating server fills TranslatedText.
type Translation struct {
	TargetLanguage Language
	OriginalText   string
	TranslatedText string
}

// ChatMessage is a routed chat message. Exactly one recipient branch and at
// most one content branch is set.
type ChatMessage struct {
	Snowflake uint64
	Author    *User

	// recipient oneof
	ToUser        *User
	ToGroup       *Group
	ToUserOfGroup *UserOfGroup

	// content oneof; Text is the plain-text branch
	Text        string
	Location    *LiveLocation
	Translation *Translation
}

// DeliveryResult reports what happened to a message for one recipient.
type DeliveryResult int32

const (
	StatusUnknown      DeliveryResult = 0
	StatusDelivered    DeliveryResult = 2
	StatusOtherError   DeliveryResult = 3
	StatusUserAway     DeliveryResult = 4
	StatusUserNotFound DeliveryResult = 5
	StatusPeerTimeout  DeliveryResult = 6
	StatusPeerNotFound DeliveryResult = 7
	StatusUserBlocked  DeliveryResult = 8
)

func (s DeliveryResult) String() string {
	switch s {
	case StatusDelivered:
		return "DELIVERED"
	case StatusOtherError:
		return "OTHER_ERROR"
	case StatusUserAway:
		return "USER_AWAY"
	case StatusUserNotFound:
		return "USER_NOT_FOUND"
	case StatusPeerTimeout:
		return "OTHER_SERVER_TIMEOUT"
	case StatusPeerNotFound:
		return "OTHER_SERVER_NOT_FOUND"
	case StatusUserBlocked:
		return "USER_BLOCKED"
	default:
		return "UNKNOWN_STATUS"
	}
}

// DeliveryStatus is one per-recipient entry in a ChatMessageResponse.
type DeliveryStatus struct {
	User   User
	Status DeliveryResult
}

// ChatMessageResponse acknowledges a ChatMessage, correlated by snowflake.
type ChatMessageResponse struct {
	Snowflake uint64
	Statuses  []DeliveryStatus
}

// ConnectClient opens a client session; the first frame on a client stream.
type ConnectClient struct {
	User *User
}

// ConnectServer opens a peer session; the first frame on an outbound peer
// stream.
type ConnectServer struct {
	ServerID string
	Features []string
}

// ConnectResult answers a connect attempt.
type ConnectResult int32

const (
	ConnectUnknownError     ConnectResult = 0
	ConnectOK               ConnectResult = 1
	ConnectAlreadyConnected ConnectResult = 2
)

func (r ConnectResult) String() string {
	switch r {
	case ConnectOK:
		return "CONNECTED"
	case ConnectAlreadyConnected:
		return "IS_ALREADY_CONNECTED_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// ConnectResponse answers ConnectClient and ConnectServer.
type ConnectResponse struct {
	Result ConnectResult
}

// HangUpReason says why a connection is being closed.
type HangUpReason int32

const (
	ReasonUnknown      HangUpReason = 0
	ReasonExit         HangUpReason = 1
	ReasonTimeout      HangUpReason = 2
	ReasonPayloadLimit HangUpReason = 3
	ReasonMalformed    HangUpReason = 4
)

func (r HangUpReason) String() string {
	switch r {
	case ReasonExit:
		return "EXIT"
	case ReasonTimeout:
		return "TIMEOUT"
	case ReasonPayloadLimit:
		return "PAYLOAD_LIMIT_EXCEEDED"
	case ReasonMalformed:
		return "MESSAGE_MALFORMED"
	default:
		return "UNKNOWN_REASON"
	}
}

// HangUp is sent best-effort before a deliberate close.
type HangUp struct {
	Reason HangUpReason
}

// Feature advertises one service a node offers and the TCP port serving it.
type Feature struct {
	Name string
	Port uint32
}

// ServerAnnounce is the discovery reply/broadcast describing a node.
type ServerAnnounce struct {
	ServerID string
	Features []Feature
}

// QueryUsers asks for users whose id matches Query; Handle correlates the
// replies.
type QueryUsers struct {
	Query  string
	Handle uint64
}

// QueryUsersResponse carries one responder's matches for Handle. A requester
// receives one response per reachable server and unions them.
type QueryUsersResponse struct {
	Handle uint64
	Users  []User
}

// GroupOpResult answers group modification requests.
type GroupOpResult int32

const (
	GroupOpUnknownError GroupOpResult = 0
	GroupOpSuccess      GroupOpResult = 1
	GroupOpNotPermitted GroupOpResult = 2
	GroupOpNotFound     GroupOpResult = 3
)

func (r GroupOpResult) String() string {
	switch r {
	case GroupOpSuccess:
		return "SUCCESS"
	case GroupOpNotPermitted:
		return "NOT_PERMITTED"
	case GroupOpNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN_ERROR"
	}
}

// ModifyGroup creates, updates, or (with Delete) removes a group.
type ModifyGroup struct {
	Handle      uint64
	GroupID     string
	DisplayName string
	Delete      bool
	Admins      []User
}

// ModifyGroupResponse answers ModifyGroup, correlated by Handle.
type ModifyGroupResponse struct {
	Handle uint64
	Result GroupOpResult
}

// InviteToGroup asks the group's server to notify the invitee.
type InviteToGroup struct {
	Handle  uint64
	GroupID string
	User    *User
}

// NotifyGroupInvite tells a client it has been invited to Group.
type NotifyGroupInvite struct {
	Handle uint64
	Group  *Group
}

// JoinGroup adds User to Group's member set.
type JoinGroup struct {
	Handle uint64
	Group  *Group
	User   *User
}

// LeaveGroup removes User from Group's admin and member sets.
type LeaveGroup struct {
	Group *Group
	User  *User
}

// ListGroupMembers asks the owning server for a group's member list.
type ListGroupMembers struct {
	Group *Group
}

// MembersResult answers membership queries.
type MembersResult int32

const (
	MembersUnknownError MembersResult = 0
	MembersSuccess      MembersResult = 1
	MembersNotFound     MembersResult = 2
)

func (r MembersResult) String() string {
	switch r {
	case MembersSuccess:
		return "SUCCESS"
	case MembersNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN_ERROR"
	}
}

// GroupMembers carries a group's member list; also pushed unsolicited to
// local members after every membership change.
type GroupMembers struct {
	Group   *Group
	Result  MembersResult
	Members []User
}

// SetReminder schedules Event to be delivered back to User after
// CountdownSeconds.
type SetReminder struct {
	User             *User
	Event            string
	CountdownSeconds uint64
}

// Reminder delivers a fired reminder to User.
type Reminder struct {
	User    *User
	Content string
}

// Translate asks the node's translation service for a translation.
type Translate struct {
	TargetLanguage Language
	OriginalText   string
	TranslatedText string
}

// Translated answers Translate.
type Translated struct {
	TargetLanguage Language
	OriginalText   string
	TranslatedText string
}

// UnsupportedMessageNotification tells a client the node recognised but
// cannot serve the named message.
type UnsupportedMessageNotification struct {
	MessageName string
}
