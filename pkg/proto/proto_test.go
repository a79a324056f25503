package proto

import (
	"bytes"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestChatMessageRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  ChatMessage
	}{
		{
			name: "text to user",
			msg: ChatMessage{
				Snowflake: 7,
				Author:    &User{UserID: "a", ServerID: "S1"},
				ToUser:    &User{UserID: "b", ServerID: "S2"},
				Text:      "hey",
			},
		},
		{
			name: "text to group",
			msg: ChatMessage{
				Snowflake: 8,
				Author:    &User{UserID: "a", ServerID: "S1"},
				ToGroup:   &Group{GroupID: "g1", ServerID: "S1"},
				Text:      "all hands",
			},
		},
		{
			name: "translation to user of group",
			msg: ChatMessage{
				Snowflake: 9,
				Author:    &User{UserID: "a", ServerID: "S1"},
				ToUserOfGroup: &UserOfGroup{
					User:  User{UserID: "b", ServerID: "S2"},
					Group: Group{GroupID: "g1", ServerID: "S1"},
				},
				Translation: &Translation{TargetLanguage: LanguageTR, OriginalText: "hello"},
			},
		},
		{
			name: "live location content",
			msg: ChatMessage{
				Snowflake: 10,
				Author:    &User{UserID: "a", ServerID: "S1"},
				ToUser:    &User{UserID: "b", ServerID: "S1"},
				Location: &LiveLocation{
					User:      &User{UserID: "a", ServerID: "S1"},
					Timestamp: 1723600000,
					Location:  &Coordinates{Latitude: 48.1374, Longitude: 11.5755},
				},
			},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got ChatMessage
			if err := got.Unmarshal(tc.msg.Marshal()); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tc.msg) {
				t.Fatalf("round trip\n got %+v\nwant %+v", got, tc.msg)
			}
		})
	}
}

func TestChatMessageOneofLastWins(t *testing.T) {
	t.Parallel()

	// A payload carrying both recipient branches must decode to only the
	// later one.
	first := ChatMessage{ToUser: &User{UserID: "b"}}
	second := ChatMessage{ToGroup: &Group{GroupID: "g1"}}
	raw := append(first.Marshal(), second.Marshal()...)

	var got ChatMessage
	if err := got.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.ToUser != nil {
		t.Fatalf("ToUser = %v, want nil after later group branch", got.ToUser)
	}
	if got.ToGroup == nil || got.ToGroup.GroupID != "g1" {
		t.Fatalf("ToGroup = %v, want g1", got.ToGroup)
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	t.Parallel()

	raw := (&SetReminder{
		User:             &User{UserID: "a", ServerID: "S1"},
		Event:            "lunch",
		CountdownSeconds: 2,
	}).Marshal()

	// A future schema may add fields; today's decoder must step over them.
	raw = protowire.AppendTag(raw, 99, protowire.BytesType)
	raw = protowire.AppendString(raw, "future")
	raw = protowire.AppendTag(raw, 98, protowire.VarintType)
	raw = protowire.AppendVarint(raw, 12345)

	var got SetReminder
	if err := got.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal with unknown fields: %v", err)
	}
	if got.Event != "lunch" || got.CountdownSeconds != 2 || got.User == nil || got.User.UserID != "a" {
		t.Fatalf("decoded %+v", got)
	}
}

func TestTruncatedPayload(t *testing.T) {
	t.Parallel()

	raw := (&ServerAnnounce{
		ServerID: "S1",
		Features: []Feature{{Name: FeatureMessages, Port: 65432}},
	}).Marshal()

	var a ServerAnnounce
	if err := a.Unmarshal(raw[:len(raw)-3]); err == nil {
		t.Fatal("truncated payload decoded without error")
	}
}

func TestConnectResponseWireForm(t *testing.T) {
	t.Parallel()

	// Field 1, varint 2: the already-connected rejection every other node in
	// the federation must recognise byte for byte.
	raw := (&ConnectResponse{Result: ConnectAlreadyConnected}).Marshal()
	if !bytes.Equal(raw, []byte{0x08, 0x02}) {
		t.Fatalf("wire form = %x, want 0802", raw)
	}

	// The zero result encodes to an empty payload and back.
	raw = (&ConnectResponse{Result: ConnectUnknownError}).Marshal()
	if len(raw) != 0 {
		t.Fatalf("zero result wire form = %x, want empty", raw)
	}
}

func TestModifyGroupRoundTrip(t *testing.T) {
	t.Parallel()

	msg := ModifyGroup{
		Handle:      11,
		GroupID:     "g1",
		DisplayName: "Raid Planning",
		Admins:      []User{{UserID: "a", ServerID: "S1"}, {UserID: "c", ServerID: "S2"}},
	}
	var got ModifyGroup
	if err := got.Unmarshal(msg.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip\n got %+v\nwant %+v", got, msg)
	}

	del := ModifyGroup{Handle: 12, GroupID: "g1", Delete: true}
	var gotDel ModifyGroup
	if err := gotDel.Unmarshal(del.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !gotDel.Delete {
		t.Fatal("Delete flag lost in round trip")
	}
}

func TestChatMessageResponseRoundTrip(t *testing.T) {
	t.Parallel()

	msg := ChatMessageResponse{
		Snowflake: 7,
		Statuses: []DeliveryStatus{
			{User: User{UserID: "b", ServerID: "S2"}, Status: StatusDelivered},
			{User: User{UserID: "c", ServerID: "S1"}, Status: StatusUserNotFound},
		},
	}
	var got ChatMessageResponse
	if err := got.Unmarshal(msg.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip\n got %+v\nwant %+v", got, msg)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	for p := range payloadFactories {
		pl, ok := New(p)
		if !ok {
			t.Fatalf("New(%s) not ok", p)
		}
		if pl.Purpose() != p {
			t.Fatalf("New(%s).Purpose() = %s", p, pl.Purpose())
		}
		if !Known(p) {
			t.Fatalf("Known(%s) = false", p)
		}
	}

	for _, p := range []Purpose{PurposePing, PurposePong, PurposeDiscoverServer} {
		if !Known(p) {
			t.Fatalf("Known(%s) = false", p)
		}
		if _, ok := New(p); ok {
			t.Fatalf("New(%s) returned a payload for an empty purpose", p)
		}
	}

	if Known("GIBBERISH") {
		t.Fatal("Known(GIBBERISH) = true")
	}
	if _, err := Decode("GIBBERISH", nil); err == nil {
		t.Fatal("Decode of unknown purpose succeeded")
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	raw := (&QueryUsers{Query: "ali", Handle: 42}).Marshal()
	pl, err := Decode(PurposeSearchUsers, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	q, ok := pl.(*QueryUsers)
	if !ok {
		t.Fatalf("Decode returned %T", pl)
	}
	if q.Query != "ali" || q.Handle != 42 {
		t.Fatalf("decoded %+v", q)
	}
}
