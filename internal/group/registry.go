// Package group holds the node-local group registry: display names, admin
// sets and member sets, guarded by one coarse lock. Group state lives on the
// server that created the group; remote members are reached through the
// router, not replicated here.
package group

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
)

// Group is one chat group. Members maps each userId to its home serverId,
// empty until a join or admin record names one. Admins is always a subset of
// the member set.
type Group struct {
	ID          string
	DisplayName string
	Admins      map[string]struct{}
	Members     map[string]string
}

// admit records u as a member, keeping a previously learned home server when
// the new record does not name one.
func (g *Group) admit(u proto.User) {
	if u.UserID == "" {
		return
	}
	if u.ServerID != "" || g.Members[u.UserID] == "" {
		g.Members[u.UserID] = u.ServerID
	}
}

// Registry is the in-memory group table.
type Registry struct {
	mu     sync.Mutex
	groups map[string]*Group
	logger logging.Logger
	active prometheus.Gauge
}

// NewRegistry creates an empty registry. The gauge tracks the number of
// groups and may be nil in tests.
func NewRegistry(logger logging.Logger, active prometheus.Gauge) *Registry {
	return &Registry{
		groups: make(map[string]*Group),
		logger: logger,
		active: active,
	}
}

func (r *Registry) setGauge() {
	if r.active != nil {
		r.active.Set(float64(len(r.groups)))
	}
}

// Modify applies a MODIFY_GROUP operation for the acting user. Creating a
// new group needs no authority; editing or deleting an existing one is
// admin-only. Creation seeds the member set from the admin list; an update
// overwrites display name and admins and keeps members, admitting any new
// admin so admins stay a subset of members.
func (r *Registry) Modify(actor, groupID, displayName string, deleteGroup bool, admins []proto.User) proto.GroupOpResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.groups[groupID]

	if deleteGroup {
		if !ok {
			return proto.GroupOpNotFound
		}
		if _, isAdmin := existing.Admins[actor]; !isAdmin {
			return proto.GroupOpNotPermitted
		}
		delete(r.groups, groupID)
		r.setGauge()
		r.logger.WithFields(logging.Fields{
			"group_id": groupID,
			"actor":    actor,
		}).Info("Group deleted")
		return proto.GroupOpSuccess
	}

	if ok {
		if _, isAdmin := existing.Admins[actor]; !isAdmin {
			return proto.GroupOpNotPermitted
		}
		existing.DisplayName = displayName
		existing.Admins = adminSet(admins)
		for _, a := range admins {
			existing.admit(a)
		}
		r.logger.WithFields(logging.Fields{
			"group_id": groupID,
			"actor":    actor,
		}).Debug("Group updated")
		return proto.GroupOpSuccess
	}

	g := &Group{
		ID:          groupID,
		DisplayName: displayName,
		Admins:      adminSet(admins),
		Members:     make(map[string]string, len(admins)),
	}
	for _, a := range admins {
		g.admit(a)
	}
	r.groups[groupID] = g
	r.setGauge()
	r.logger.WithFields(logging.Fields{
		"group_id": groupID,
		"actor":    actor,
		"admins":   len(admins),
	}).Info("Group created")
	return proto.GroupOpSuccess
}

// IsAdmin reports whether userID administers the group.
func (r *Registry) IsAdmin(groupID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return false
	}
	_, isAdmin := g.Admins[userID]
	return isAdmin
}

// Exists reports whether the group is known.
func (r *Registry) Exists(groupID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.groups[groupID]
	return ok
}

// Members returns the member list sorted by userId.
func (r *Registry) Members(groupID string) ([]proto.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, false
	}
	return memberList(g.Members), true
}

// Join adds the user to the group and returns the updated member list.
// Joining again is a no-op apart from refreshing the user's home server.
func (r *Registry) Join(groupID string, user proto.User) ([]proto.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, false
	}
	g.admit(user)
	r.logger.WithFields(logging.Fields{
		"group_id": groupID,
		"user_id":  user.UserID,
	}).Info("User joined group")
	return memberList(g.Members), true
}

// Leave removes the user from both sets. The group is deleted when its last
// member leaves; deleted reports that, remaining is the post-leave member
// list otherwise.
func (r *Registry) Leave(groupID, userID string) (remaining []proto.User, deleted, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, false, false
	}
	delete(g.Members, userID)
	delete(g.Admins, userID)
	r.logger.WithFields(logging.Fields{
		"group_id": groupID,
		"user_id":  userID,
	}).Info("User left group")

	if len(g.Members) == 0 {
		delete(r.groups, groupID)
		r.setGauge()
		r.logger.WithField("group_id", groupID).Info("Group deleted (no remaining members)")
		return nil, true, true
	}
	return memberList(g.Members), false, true
}

// Count returns the number of groups.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

func adminSet(users []proto.User) map[string]struct{} {
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u.UserID != "" {
			set[u.UserID] = struct{}{}
		}
	}
	return set
}

func memberList(members map[string]string) []proto.User {
	list := make([]proto.User, 0, len(members))
	for id, srv := range members {
		list = append(list, proto.User{UserID: id, ServerID: srv})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return list
}
