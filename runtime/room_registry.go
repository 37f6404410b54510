package runtime

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type memberSet map[string]struct{}

// RoomRegistry owns room membership. A user belongs to at most one room at a
// time; moving between rooms is atomic relative to concurrent reads, so no
// observer sees a user in both rooms or in neither.
type RoomRegistry struct {
	mu       sync.RWMutex
	members  map[string]memberSet // room -> usernames
	userRoom map[string]string
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		members:  make(map[string]memberSet),
		userRoom: make(map[string]string),
	}
}

// Join moves the user into the target room, leaving the current one first.
// Rooms are created on first join. Returns the joined room name.
func (r *RoomRegistry) Join(username, room string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(username)

	if _, ok := r.members[room]; !ok {
		r.members[room] = make(memberSet)
	}
	r.members[room][username] = struct{}{}
	r.userRoom[username] = room
	return room
}

// Leave removes the user from their current room and reports which room that
// was; no-op if not a member of any. Read-and-remove is one critical section,
// so the caller never acts on a stale room.
func (r *RoomRegistry) Leave(username string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(username)
}

// removeLocked detaches the user from their current room and drops empty
// member sets so abandoned rooms do not accumulate.
func (r *RoomRegistry) removeLocked(username string) (string, bool) {
	room, ok := r.userRoom[username]
	if !ok {
		return "", false
	}
	delete(r.userRoom, username)
	if set, ok := r.members[room]; ok {
		delete(set, username)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
	return room, true
}

// MembersOf returns a sorted snapshot of the room's members. The snapshot
// does not stay live.
func (r *RoomRegistry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[room]
	if !ok {
		return nil
	}
	names := lo.Keys(set)
	sort.Strings(names)
	return names
}

// RoomOf returns the room the user currently belongs to.
func (r *RoomRegistry) RoomOf(username string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.userRoom[username]
	return room, ok
}
