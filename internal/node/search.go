package node

import (
	"sort"
	"strings"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// handleSearch answers SEARCH_USERS with this node's matches and, for
// client requesters, fans the query out to every peer. A peer asking us
// gets local matches only, so a query crosses at most one hop.
func (n *Node) handleSearch(src origin, payload []byte) {
	var q proto.QueryUsers
	if err := q.Unmarshal(payload); err != nil {
		n.logDecodeError(src, proto.PurposeSearchUsers, err)
		return
	}

	src.sendPayload(&proto.QueryUsersResponse{Handle: q.Handle, Users: n.localMatches(q.Query)})

	if src.client == nil {
		return
	}

	n.clientsMu.Lock()
	src.client.searchHandle = q.Handle
	src.client.searchPending = true
	n.clientsMu.Unlock()

	for _, ps := range n.peerList() {
		ps.send(proto.PurposeSearchUsers, payload)
	}
}

// localMatches returns connected users whose id contains query. The empty
// query matches everyone.
func (n *Node) localMatches(query string) []proto.User {
	n.clientsMu.Lock()
	var out []proto.User
	for id, cs := range n.clients {
		if strings.Contains(id, query) {
			out = append(out, cs.user)
		}
	}
	n.clientsMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// handleSearchResp relays one responder's matches to whichever client is
// waiting on the handle. Several responses per handle are expected; the
// requester unions them.
func (n *Node) handleSearchResp(src origin, f wire.Frame) {
	if src.peer == nil {
		n.unsupported(src, proto.PurposeSearchUsersResp)
		return
	}
	var resp proto.QueryUsersResponse
	if err := resp.Unmarshal(f.Payload); err != nil {
		n.logDecodeError(src, proto.PurposeSearchUsersResp, err)
		return
	}
	cs := n.searchWaiter(resp.Handle)
	if cs == nil {
		n.logger.WithFields(logging.Fields{"handle": resp.Handle, "from": src.String()}).
			Debug("Dropping search response nobody is waiting for")
		return
	}
	cs.send(proto.PurposeSearchUsersResp, f.Payload)
}

func (n *Node) searchWaiter(handle uint64) *clientSession {
	n.clientsMu.Lock()
	defer n.clientsMu.Unlock()
	for _, cs := range n.clients {
		if cs.searchPending && cs.searchHandle == handle {
			return cs
		}
	}
	return nil
}
