package node

import (
	"testing"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/client"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/translate"
)

func TestGroupLifecycle(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	alice := dialClient(t, n, "alice")
	bob := dialClient(t, n, "bob")

	if err := alice.Send(&proto.ModifyGroup{
		Handle:      11,
		GroupID:     "g1",
		DisplayName: "lunch crew",
		Admins:      []proto.User{{UserID: "alice", ServerID: "S1"}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	resp := await(t, alice, proto.PurposeModifyGroupResp, 2*time.Second).(*proto.ModifyGroupResponse)
	if resp.Handle != 11 || resp.Result != proto.GroupOpSuccess {
		t.Fatalf("create resp = %+v", resp)
	}
	if got := n.GroupCount(); got != 1 {
		t.Fatalf("group count = %d, want 1", got)
	}

	// Invite bob; he is local, so the notification is direct.
	if err := alice.Send(&proto.InviteToGroup{Handle: 12, GroupID: "g1", User: &proto.User{UserID: "bob", ServerID: "S1"}}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	inv := await(t, bob, proto.PurposeNotifyGroupInvite, 2*time.Second).(*proto.NotifyGroupInvite)
	if inv.Handle != 12 || inv.Group == nil || inv.Group.GroupID != "g1" || inv.Group.ServerID != "S1" {
		t.Fatalf("invite = %+v", inv)
	}

	// Membership before joining.
	if err := bob.Send(&proto.ListGroupMembers{Group: &proto.Group{GroupID: "g1", ServerID: "S1"}}); err != nil {
		t.Fatalf("query: %v", err)
	}
	members := await(t, bob, proto.PurposeGroupMembers, 2*time.Second).(*proto.GroupMembers)
	if members.Result != proto.MembersSuccess || len(members.Members) != 1 || members.Members[0].UserID != "alice" {
		t.Fatalf("members = %+v", members)
	}

	// Joining pushes the new list to every local member.
	if err := bob.Send(&proto.JoinGroup{Handle: 13, Group: &proto.Group{GroupID: "g1", ServerID: "S1"}, User: &proto.User{UserID: "bob", ServerID: "S1"}}); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, c := range []*client.Client{alice, bob} {
		push := await(t, c, proto.PurposeGroupMembers, 2*time.Second).(*proto.GroupMembers)
		if len(push.Members) != 2 || push.Members[0].UserID != "alice" || push.Members[1].UserID != "bob" {
			t.Fatalf("push after join = %+v", push)
		}
	}

	// Fan-out skips the author.
	if err := bob.Send(&proto.ChatMessage{
		Snowflake: 14,
		Author:    &proto.User{UserID: "bob", ServerID: "S1"},
		ToGroup:   &proto.Group{GroupID: "g1", ServerID: "S1"},
		Text:      "lunch?",
	}); err != nil {
		t.Fatalf("group message: %v", err)
	}
	msg := await(t, alice, proto.PurposeMessage, 2*time.Second).(*proto.ChatMessage)
	if msg.Text != "lunch?" || msg.ToGroup == nil || msg.ToGroup.GroupID != "g1" {
		t.Fatalf("fan-out = %+v", msg)
	}

	// Leaving prunes the member and pushes the shrunken list.
	if err := bob.Send(&proto.LeaveGroup{Group: &proto.Group{GroupID: "g1", ServerID: "S1"}, User: &proto.User{UserID: "bob", ServerID: "S1"}}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	push := await(t, alice, proto.PurposeGroupMembers, 2*time.Second).(*proto.GroupMembers)
	if len(push.Members) != 1 || push.Members[0].UserID != "alice" {
		t.Fatalf("push after leave = %+v", push)
	}
}

func TestModifyGroupAuthority(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	alice := dialClient(t, n, "alice")
	bob := dialClient(t, n, "bob")

	if err := alice.Send(&proto.ModifyGroup{Handle: 15, GroupID: "ops", Admins: []proto.User{{UserID: "alice", ServerID: "S1"}}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp := await(t, alice, proto.PurposeModifyGroupResp, 2*time.Second).(*proto.ModifyGroupResponse); resp.Result != proto.GroupOpSuccess {
		t.Fatalf("create = %+v", resp)
	}

	// bob is not an admin; the rename must be refused.
	if err := bob.Send(&proto.ModifyGroup{Handle: 16, GroupID: "ops", DisplayName: "bob's ops"}); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if resp := await(t, bob, proto.PurposeModifyGroupResp, 2*time.Second).(*proto.ModifyGroupResponse); resp.Result != proto.GroupOpNotPermitted {
		t.Fatalf("modify by non-admin = %v, want NOT_PERMITTED", resp.Result)
	}

	// Deleting an unknown group reports NOT_FOUND.
	if err := bob.Send(&proto.ModifyGroup{Handle: 17, GroupID: "nope", Delete: true}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp := await(t, bob, proto.PurposeModifyGroupResp, 2*time.Second).(*proto.ModifyGroupResponse); resp.Result != proto.GroupOpNotFound {
		t.Fatalf("delete unknown = %v, want NOT_FOUND", resp.Result)
	}
}

func TestGroupFederation(t *testing.T) {
	t.Parallel()
	s1 := startNode(t, testConfig("S1"), nil)
	s2 := startNode(t, testConfig("S2"), nil)
	connectMesh(t, s1, s2)

	alice := dialClient(t, s1, "alice")
	ben := dialClient(t, s2, "ben")

	if err := alice.Send(&proto.ModifyGroup{Handle: 21, GroupID: "g2", Admins: []proto.User{{UserID: "alice", ServerID: "S1"}}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp := await(t, alice, proto.PurposeModifyGroupResp, 2*time.Second).(*proto.ModifyGroupResponse); resp.Result != proto.GroupOpSuccess {
		t.Fatalf("create = %+v", resp)
	}

	// The group's state lives on S1 only; S2 answers for itself.
	if err := ben.Send(&proto.ListGroupMembers{Group: &proto.Group{GroupID: "g2", ServerID: "S1"}}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if got := await(t, ben, proto.PurposeGroupMembers, 2*time.Second).(*proto.GroupMembers); got.Result != proto.MembersNotFound {
		t.Fatalf("remote query = %v, want NOT_FOUND", got.Result)
	}

	// The invite crosses to ben's home server.
	if err := alice.Send(&proto.InviteToGroup{Handle: 22, GroupID: "g2", User: &proto.User{UserID: "ben", ServerID: "S2"}}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	inv := await(t, ben, proto.PurposeNotifyGroupInvite, 2*time.Second).(*proto.NotifyGroupInvite)
	if inv.Group == nil || inv.Group.GroupID != "g2" || inv.Group.ServerID != "S1" {
		t.Fatalf("invite = %+v", inv)
	}

	// The join routes to the owning server; the member push comes back to
	// both sides of the mesh.
	if err := ben.Send(&proto.JoinGroup{Handle: 23, Group: &proto.Group{GroupID: "g2", ServerID: "S1"}, User: &proto.User{UserID: "ben", ServerID: "S2"}}); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, c := range []*client.Client{alice, ben} {
		push := await(t, c, proto.PurposeGroupMembers, 2*time.Second).(*proto.GroupMembers)
		if len(push.Members) != 2 {
			t.Fatalf("push = %+v", push)
		}
	}

	// Fan-out re-addresses the remote copy to ben personally.
	if err := alice.Send(&proto.ChatMessage{
		Snowflake: 24,
		Author:    &proto.User{UserID: "alice", ServerID: "S1"},
		ToGroup:   &proto.Group{GroupID: "g2"},
		Text:      "standup in five",
	}); err != nil {
		t.Fatalf("group message: %v", err)
	}
	msg := await(t, ben, proto.PurposeMessage, 2*time.Second).(*proto.ChatMessage)
	if msg.Text != "standup in five" || msg.ToUserOfGroup == nil {
		t.Fatalf("fan-out = %+v", msg)
	}
	if g := msg.ToUserOfGroup.Group; g.GroupID != "g2" || g.ServerID != "S1" {
		t.Fatalf("fan-out group = %+v", g)
	}

	// And the ACK finds its way back across the mesh.
	if err := ben.Send(&proto.ChatMessageResponse{
		Snowflake: 24,
		Statuses:  []proto.DeliveryStatus{{User: proto.User{UserID: "ben", ServerID: "S2"}, Status: proto.StatusDelivered}},
	}); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ack := await(t, alice, proto.PurposeMessageAck, 2*time.Second).(*proto.ChatMessageResponse); ack.Snowflake != 24 {
		t.Fatalf("ack = %+v", ack)
	}
}

func TestReminderFiresInCountdownOrder(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	rita := dialClient(t, n, "rita")

	// The later-set reminder has the shorter countdown and fires first.
	if err := rita.Send(&proto.SetReminder{User: &proto.User{UserID: "rita"}, Event: "slow", CountdownSeconds: 2}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := rita.Send(&proto.SetReminder{User: &proto.User{UserID: "rita"}, Event: "fast", CountdownSeconds: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	waitFor(t, "reminders queued", func() bool { return n.ReminderCount() == 2 })

	first := await(t, rita, proto.PurposeReminder, 3*time.Second).(*proto.Reminder)
	if first.Content != "fast" {
		t.Fatalf("first reminder = %q, want fast", first.Content)
	}
	if first.User == nil || first.User.UserID != "rita" || first.User.ServerID != "S1" {
		t.Fatalf("reminder user = %+v", first.User)
	}
	second := await(t, rita, proto.PurposeReminder, 3*time.Second).(*proto.Reminder)
	if second.Content != "slow" {
		t.Fatalf("second reminder = %q, want slow", second.Content)
	}
	if got := n.ReminderCount(); got != 0 {
		t.Fatalf("queued after firing = %d, want 0", got)
	}
}

func TestReminderForAnotherUserRefused(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	eve := dialClient(t, n, "eve")

	if err := eve.Send(&proto.SetReminder{User: &proto.User{UserID: "mallory"}, Event: "pwn", CountdownSeconds: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	note := await(t, eve, proto.PurposeUnsupportedMessage, 2*time.Second).(*proto.UnsupportedMessageNotification)
	if note.MessageName != string(proto.PurposeSetReminder) {
		t.Fatalf("notification = %+v", note)
	}
	if got := n.ReminderCount(); got != 0 {
		t.Fatalf("reminder queued anyway: %d", got)
	}
}

func TestReminderForRemoteUserCrossesTheMesh(t *testing.T) {
	t.Parallel()
	s1 := startNode(t, testConfig("S1"), nil)
	s2 := startNode(t, testConfig("S2"), nil)
	connectMesh(t, s1, s2)

	ritaS1 := dialClient(t, s1, "rita")
	ritaS2 := dialClient(t, s2, "rita")

	// Operator-scheduled on S2 for the rita homed on S1.
	s2.ScheduleReminder("rita@S1", "standup", 50*time.Millisecond)
	rem := await(t, ritaS1, proto.PurposeReminder, 3*time.Second).(*proto.Reminder)
	if rem.Content != "standup" {
		t.Fatalf("reminder = %+v", rem)
	}
	if rem.User == nil || rem.User.UserID != "rita" || rem.User.ServerID != "S1" {
		t.Fatalf("reminder user = %+v", rem.User)
	}

	// The same route over the wire: rita's S2 session schedules for her S1
	// identity, and the fired reminder crosses back to S1.
	if err := ritaS2.Send(&proto.SetReminder{User: &proto.User{UserID: "rita", ServerID: "S1"}, Event: "pack up", CountdownSeconds: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rem = await(t, ritaS1, proto.PurposeReminder, 3*time.Second).(*proto.Reminder)
	if rem.Content != "pack up" {
		t.Fatalf("wire reminder = %+v", rem)
	}
}

func TestSearchSpansTheMesh(t *testing.T) {
	t.Parallel()
	s1 := startNode(t, testConfig("S1"), nil)
	s2 := startNode(t, testConfig("S2"), nil)
	connectMesh(t, s1, s2)

	alice := dialClient(t, s1, "alice")
	dialClient(t, s1, "bob")
	dialClient(t, s2, "alfred")

	if err := alice.Send(&proto.QueryUsers{Query: "al", Handle: 42}); err != nil {
		t.Fatalf("search: %v", err)
	}

	// Local matches answer first, then each peer's arrive.
	local := await(t, alice, proto.PurposeSearchUsersResp, 2*time.Second).(*proto.QueryUsersResponse)
	if local.Handle != 42 || len(local.Users) != 1 || local.Users[0].UserID != "alice" {
		t.Fatalf("local matches = %+v", local)
	}
	remote := await(t, alice, proto.PurposeSearchUsersResp, 2*time.Second).(*proto.QueryUsersResponse)
	if remote.Handle != 42 || len(remote.Users) != 1 || remote.Users[0].UserID != "alfred" {
		t.Fatalf("remote matches = %+v", remote)
	}
	if got := remote.Users[0].ServerID; got != "S2" {
		t.Fatalf("remote match server = %q, want S2", got)
	}
}

func TestTranslationService(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), translate.NewStaticBackend(translate.DefaultPhrases()))
	tina := dialClient(t, n, "tina")

	if err := tina.Send(&proto.Translate{TargetLanguage: proto.LanguageDE, OriginalText: "hello"}); err != nil {
		t.Fatalf("translate: %v", err)
	}
	got := await(t, tina, proto.PurposeTranslated, 2*time.Second).(*proto.Translated)
	if got.TranslatedText != "Hallo" || got.OriginalText != "hello" || got.TargetLanguage != proto.LanguageDE {
		t.Fatalf("translated = %+v", got)
	}

	// Unknown phrases pass through unchanged rather than failing the call.
	if err := tina.Send(&proto.Translate{TargetLanguage: proto.LanguageZH, OriginalText: "flibbertigibbet"}); err != nil {
		t.Fatalf("translate: %v", err)
	}
	got = await(t, tina, proto.PurposeTranslated, 2*time.Second).(*proto.Translated)
	if got.TranslatedText != "flibbertigibbet" {
		t.Fatalf("fallback = %+v", got)
	}
}

func TestLiveLocationRelay(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	lea := dialClient(t, n, "lea")
	mara := dialClient(t, n, "mara")

	if err := lea.Send(&proto.LiveLocation{
		User:      &proto.User{UserID: "mara", ServerID: "S1"},
		Timestamp: 1724580000,
		Location:  &proto.Coordinates{Latitude: 48.1374, Longitude: 11.5755},
	}); err != nil {
		t.Fatalf("send location: %v", err)
	}
	loc := await(t, mara, proto.PurposeLiveLocation, 2*time.Second).(*proto.LiveLocation)
	if loc.Location == nil || loc.Location.Latitude != 48.1374 || loc.Location.Longitude != 11.5755 {
		t.Fatalf("location = %+v", loc)
	}

	if err := lea.Send(&proto.LiveLocations{Locations: []proto.ExtendedLiveLocation{{
		Location: proto.LiveLocation{
			User:      &proto.User{UserID: "mara"},
			Timestamp: 1724580060,
			Location:  &proto.Coordinates{Latitude: 48.14, Longitude: 11.58},
		},
		ExpiresAt: 1724583600,
	}}}); err != nil {
		t.Fatalf("send batch: %v", err)
	}
	batch := await(t, mara, proto.PurposeLiveLocations, 2*time.Second).(*proto.LiveLocations)
	if len(batch.Locations) != 1 || batch.Locations[0].ExpiresAt != 1724583600 {
		t.Fatalf("batch = %+v", batch)
	}
}

func TestClientOnlyAndUnknownPurposes(t *testing.T) {
	t.Parallel()
	n := startNode(t, testConfig("S1"), nil)
	nora := dialClient(t, n, "nora")

	// Server-to-server purposes from a client draw a notification.
	for _, pl := range []proto.Payload{
		&proto.QueryUsersResponse{Handle: 1},
		&proto.GroupMembers{Result: proto.MembersSuccess},
		&proto.Reminder{User: &proto.User{UserID: "nora"}, Content: "x"},
	} {
		if err := nora.Send(pl); err != nil {
			t.Fatalf("send %s: %v", pl.Purpose(), err)
		}
		note := await(t, nora, proto.PurposeUnsupportedMessage, 2*time.Second).(*proto.UnsupportedMessageNotification)
		if note.MessageName != string(pl.Purpose()) {
			t.Fatalf("notification names %q, want %q", note.MessageName, pl.Purpose())
		}
	}

	// Purposes outside the protocol are dropped without an answer; the
	// session stays usable.
	if err := nora.SendFrame(proto.Purpose("FROBNICATE"), nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := nora.Send(&proto.ChatMessage{
		Snowflake: 5,
		Author:    &proto.User{UserID: "nora", ServerID: "S1"},
		ToUser:    &proto.User{UserID: "nora"},
		Text:      "still alive",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg := await(t, nora, proto.PurposeMessage, 2*time.Second).(*proto.ChatMessage); msg.Text != "still alive" {
		t.Fatalf("echo = %+v", msg)
	}
}
