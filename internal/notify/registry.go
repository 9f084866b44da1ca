package notify

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidAddress is returned when a delivery address is not well formed
// for any supported channel.
var ErrInvalidAddress = errors.New("invalid delivery address")

// Channel identifies how a target is reached.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Target is one registered delivery address for a user.
type Target struct {
	UserID  string  `json:"userId"`
	Address string  `json:"address"`
	Channel Channel `json:"channel"`
}

// Registry maps users to their delivery address. Re-registration
// overwrites; there is no expiry. Modeled as an interface so the
// in-memory map can be swapped for a durable backend without touching
// dispatch logic.
type Registry interface {
	Register(target Target)
	Lookup(userID string) (Target, bool)
	Remove(userID string) bool
	Users() []string
}

// ClassifyAddress derives the channel from the address shape: Expo push
// tokens look like "ExponentPushToken[...]", emails carry an "@".
func ClassifyAddress(address string) (Channel, error) {
	switch {
	case strings.HasPrefix(address, "ExponentPushToken"):
		return ChannelPush, nil
	case strings.Contains(address, "@") && len(address) >= 3:
		return ChannelEmail, nil
	default:
		return "", ErrInvalidAddress
	}
}

type memoryRegistry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewMemoryRegistry returns the in-process registry used by default.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{targets: make(map[string]Target)}
}

func (r *memoryRegistry) Register(target Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[target.UserID] = target
}

func (r *memoryRegistry) Lookup(userID string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[userID]
	return t, ok
}

func (r *memoryRegistry) Remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[userID]; !ok {
		return false
	}
	delete(r.targets, userID)
	return true
}

func (r *memoryRegistry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.targets))
	for id := range r.targets {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}
