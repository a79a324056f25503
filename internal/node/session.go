package node

import (
	"net"
	"sync"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// writeWait bounds how long one frame write may block before the connection
// is treated as dead.
const writeWait = 10 * time.Second

// link wraps a session socket with the write lock every sender must hold so
// concurrent writers never interleave frames.
type link struct {
	nc      net.Conn
	writeMu sync.Mutex
	onWrite func(purpose string)
}

func (l *link) send(purpose proto.Purpose, payload []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_ = l.nc.SetWriteDeadline(time.Now().Add(writeWait))
	err := wire.WriteFrame(l.nc, string(purpose), payload)
	_ = l.nc.SetWriteDeadline(time.Time{})
	if err == nil && l.onWrite != nil {
		l.onWrite(string(purpose))
	}
	return err
}

func (l *link) sendPayload(pl proto.Payload) error {
	return l.send(pl.Purpose(), pl.Marshal())
}

func (l *link) close() {
	_ = l.nc.Close()
}

func (l *link) remote() string {
	if addr := l.nc.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// clientSession is one connected chat user.
type clientSession struct {
	link
	user proto.User

	// guarded by Node.clientsMu
	lastActive    time.Time
	searchHandle  uint64
	searchPending bool
}

// peerSession is one federation link to another server.
type peerSession struct {
	link
	serverID string
	features []string

	// guarded by Node.peersMu
	lastActive time.Time
}
