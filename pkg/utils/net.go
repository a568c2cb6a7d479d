package utils

import (
	"errors"
	"net"
)

// Returns the first non-loopback IPv4 address of this host.
// Workers on other machines must be able to reach the returned address,
// so 127.0.0.1 is never a valid answer.
func LocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}

	return "", errors.New("No non-loopback address found")
}
