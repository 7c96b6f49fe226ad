package main

import (
	"context"
	"fmt"
	"net"
)

// discoveryProbe is the literal datagram a client sends to find servers on
// the LAN; any other payload is ignored.
const discoveryProbe = "looking for quiznet servers"

// discoveryLoop answers UDP discovery probes until ctx is cancelled —
// grounded on discover.c's udp_discovery_handler/send_discovery_response.
func discoveryLoop(ctx context.Context, conn net.PacketConn, name string, tcpPort int) error {
	buf := make([]byte, 256)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if string(buf[:n]) != discoveryProbe {
			continue
		}
		reply := fmt.Sprintf("hello i'm a quiznet server:%s:%d", name, tcpPort)
		_, _ = conn.WriteTo([]byte(reply), addr)
	}
}
