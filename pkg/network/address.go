package network

import (
	"fmt"
	"net"
)

// InterfaceIPv4 resolves the first usable IPv4 address assigned to the named
// network interface. The coordinator's engine daemon binds to this address so
// workers reach it over the cluster's private network rather than whatever
// the default route happens to be.
func InterfaceIPv4(name string) (net.IP, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("addresses of %s: %w", name, err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		return ip, nil
	}
	return nil, fmt.Errorf("interface %s has no usable IPv4 address", name)
}

// LocalIP guesses the host's outbound IPv4 address by opening a UDP socket
// toward a public address; no packet is sent. It is the fallback when no
// interface name is configured.
func LocalIP() (net.IP, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil, fmt.Errorf("resolve local address: %w", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}

// Interfaces lists the names of interfaces that carry a usable IPv4 address,
// for diagnostics when InterfaceIPv4 fails.
func Interfaces() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, iface := range ifaces {
		if _, err := InterfaceIPv4(iface.Name); err == nil {
			names = append(names, iface.Name)
		}
	}
	return names, nil
}
