// Package infra holds small process-wide services every hub host needs.
package infra

import (
	"github.com/google/uuid"

	"github.com/joeydtaylor/steeze-hub/pkg/config"
)

// KeyServerID pins the server id, e.g. for a stable identity across restarts.
const KeyServerID = "hub:server_id"

// ServerIDManager identifies this process among the servers sharing a message bus.
type ServerIDManager interface {
	ServerID() string
}

type serverID string

func (s serverID) ServerID() string { return string(s) }

// NewServerIDManager uses hub:server_id when set and a random UUID otherwise.
func NewServerIDManager(cfg config.Provider) ServerIDManager {
	if id := config.String(cfg, KeyServerID, ""); id != "" {
		return serverID(id)
	}
	return serverID(uuid.NewString())
}
