package node

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/A-Crow-Pixel/IK-SS25-G4/internal/events"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/proto"
	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/wire"
)

// discoveryLoop reads datagrams off the UDP endpoint. One datagram carries
// exactly one frame; malformed datagrams are logged and dropped.
func (n *Node) discoveryLoop(ctx context.Context) error {
	buf := make([]byte, 64<<10)
	for {
		nb, raddr, err := n.udp.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("udp read: %w", err)
		}
		n.handleDatagram(ctx, buf[:nb], raddr)
	}
}

func (n *Node) handleDatagram(ctx context.Context, datagram []byte, raddr *net.UDPAddr) {
	f, err := wire.Unmarshal(datagram)
	if err != nil {
		n.logger.WithFields(logging.Fields{"from": raddr.String(), "error": err.Error()}).
			Debug("Dropping malformed discovery datagram")
		return
	}
	n.m.FramesTotal.WithLabelValues("in", f.Purpose).Inc()

	switch proto.Purpose(f.Purpose) {
	case proto.PurposeDiscoverServer:
		n.handleDiscoverProbe(raddr)
	case proto.PurposeServerAnnounce:
		var ann proto.ServerAnnounce
		if err := ann.Unmarshal(f.Payload); err != nil {
			n.logger.WithFields(logging.Fields{"from": raddr.String(), "error": err.Error()}).
				Debug("Dropping undecodable SERVER_ANNOUNCE")
			return
		}
		n.handleAnnounce(ctx, &ann, raddr)
	default:
		n.logger.WithFields(logging.Fields{"purpose": f.Purpose, "from": raddr.String()}).
			Debug("Ignoring discovery datagram")
	}
}

// handleDiscoverProbe answers a DISCOVER_SERVER: a unicast announce back to
// the prober plus a broadcast announce so every listener learns us at once.
func (n *Node) handleDiscoverProbe(raddr *net.UDPAddr) {
	frame := n.announceFrame()
	if _, err := n.udp.WriteToUDP(frame, raddr); err != nil {
		n.logger.WithFields(logging.Fields{"to": raddr.String(), "error": err.Error()}).
			Debug("Failed to answer discovery probe")
	} else {
		n.m.FramesTotal.WithLabelValues("out", string(proto.PurposeServerAnnounce)).Inc()
	}
	n.broadcastAnnounce(frame)
}

// handleAnnounce records the announcing server and kicks off a peer dial.
// Our own broadcasts come back to us and are ignored here.
func (n *Node) handleAnnounce(ctx context.Context, ann *proto.ServerAnnounce, raddr *net.UDPAddr) {
	if ann.ServerID == "" || ann.ServerID == n.cfg.ServerID {
		return
	}
	port := meshPort(ann.Features)
	if port == 0 {
		n.logger.WithFields(logging.Fields{"server_id": ann.ServerID}).
			Debug("Announce without a usable mesh port")
		return
	}
	addr := net.JoinHostPort(raddr.IP.String(), strconv.Itoa(port))

	n.knownMu.Lock()
	_, seen := n.known[ann.ServerID]
	n.known[ann.ServerID] = knownServer{addr: addr, features: ann.Features, seen: time.Now()}
	n.m.KnownServers.Set(float64(len(n.known)))
	n.knownMu.Unlock()

	if !seen {
		n.logger.WithFields(logging.Fields{"server_id": ann.ServerID, "addr": addr}).
			Info("Discovered server")
		n.publish("server_discovered", events.ChannelMesh, map[string]interface{}{
			"server_id": ann.ServerID,
			"addr":      addr,
		})
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.dialPeer(ctx, ann.ServerID, addr)
	}()
}

// Discover probes every configured peer port for servers. Replies arrive
// asynchronously as SERVER_ANNOUNCE datagrams.
func (n *Node) Discover() {
	frame := wire.Encode(string(proto.PurposeDiscoverServer), nil)
	ip := n.broadcastIP()
	for _, port := range n.cfg.PeerPorts {
		if port == n.udpPort() {
			continue
		}
		if _, err := n.udp.WriteToUDP(frame, &net.UDPAddr{IP: ip, Port: port}); err != nil {
			n.logger.WithFields(logging.Fields{"port": port, "error": err.Error()}).
				Debug("Discovery probe failed")
			continue
		}
		n.m.FramesTotal.WithLabelValues("out", string(proto.PurposeDiscoverServer)).Inc()
	}
	n.publish("discovery_probe", events.ChannelMesh, map[string]interface{}{
		"ports": n.cfg.PeerPorts,
	})
}

func (n *Node) announceFrame() []byte {
	ann := proto.ServerAnnounce{ServerID: n.cfg.ServerID, Features: n.features()}
	return wire.Encode(string(proto.PurposeServerAnnounce), ann.Marshal())
}

func (n *Node) broadcastAnnounce(frame []byte) {
	ip := n.broadcastIP()
	for _, port := range n.cfg.PeerPorts {
		if port == n.udpPort() {
			continue
		}
		if _, err := n.udp.WriteToUDP(frame, &net.UDPAddr{IP: ip, Port: port}); err != nil {
			n.logger.WithFields(logging.Fields{"port": port, "error": err.Error()}).
				Debug("Announce broadcast failed")
			continue
		}
		n.m.FramesTotal.WithLabelValues("out", string(proto.PurposeServerAnnounce)).Inc()
	}
}

func (n *Node) broadcastIP() net.IP {
	if ip := net.ParseIP(n.cfg.BroadcastAddr); ip != nil {
		return ip
	}
	return net.IPv4bcast
}

func (n *Node) udpPort() int {
	if addr, ok := n.udp.LocalAddr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return n.cfg.UDPPort
}

// meshPort picks the TCP port to dial from an announce's feature list,
// preferring the MESSAGES feature.
func meshPort(features []proto.Feature) int {
	for _, f := range features {
		if f.Name == proto.FeatureMessages {
			return int(f.Port)
		}
	}
	if len(features) > 0 {
		return int(features[0].Port)
	}
	return 0
}
