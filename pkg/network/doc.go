/*
Package network resolves the coordinator's bind address.

The engine's coordinator daemon must bind to the cluster's private network,
not to whatever interface the default route uses: workers mount the NFS
share and reach the service endpoint over that private segment. The
configured interface name (default eth0) is resolved to its first usable
IPv4 address at cluster start.

# Resolution Order

  - InterfaceIPv4(name): the configured NIC's first non-loopback IPv4
  - LocalIP(): outbound-socket fallback when no interface is configured

# Usage

	ip, err := network.InterfaceIPv4(cfg.Engine.Interface)
	if err != nil {
		return err
	}
	masterURL := fmt.Sprintf("spark://%s:%d", ip, cfg.Engine.ServicePort)
*/
package network
