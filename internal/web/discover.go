// internal/web/discover.go - Subnet agent discovery
package web

import (
    "context"
    "fmt"
    "net"
    "net/http"
    "sync"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus"
)

// DiscoveredAgent is one live agent found by a subnet sweep.
type DiscoveredAgent struct {
    Host              string  `json:"host"`
    Port              int     `json:"port"`
    Hostname          string  `json:"hostname"`
    Model             *string `json:"model"`
    AgentVersion      string  `json:"agent_version"`
    AlreadyRegistered bool    `json:"already_registered"`
}

// discoverDevices sweeps a /24 subnet for live agents. The subnet defaults
// to the one the server's primary interface sits on.
func (s *Server) discoverDevices(c *gin.Context) {
    subnet := c.Query("subnet")
    if subnet == "" {
        detected, err := localSubnet()
        if err != nil {
            c.JSON(http.StatusBadRequest, gin.H{"error": "Could not detect local subnet, pass ?subnet=192.168.1.0/24"})
            return
        }
        subnet = detected
    }

    _, network, err := net.ParseCIDR(subnet)
    if err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subnet"})
        return
    }
    if ones, _ := network.Mask.Size(); ones < 24 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "Subnet too large, /24 or smaller only"})
        return
    }

    registered, err := s.registeredHosts(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get devices"})
        return
    }

    port := s.config.Agent.DiscoverPort
    found := s.sweep(c.Request.Context(), network, port, registered)

    logrus.WithFields(logrus.Fields{
        "subnet": subnet,
        "found":  len(found),
    }).Info("Discovery sweep completed")

    c.JSON(http.StatusOK, gin.H{
        "data":   found,
        "count":  len(found),
        "subnet": subnet,
    })
}

func (s *Server) registeredHosts(ctx context.Context) (map[string]bool, error) {
    devices, err := s.store.GetDevices(ctx)
    if err != nil {
        return nil, err
    }

    hosts := make(map[string]bool, len(devices))
    for _, device := range devices {
        hosts[device.Host] = true
    }
    return hosts, nil
}

// sweep probes every host address in the network concurrently. The probe
// timeout bounds the whole sweep to a couple of seconds.
func (s *Server) sweep(ctx context.Context, network *net.IPNet, port int, registered map[string]bool) []DiscoveredAgent {
    var (
        mu    sync.Mutex
        found []DiscoveredAgent
        wg    sync.WaitGroup
    )

    client := s.engine.Agent()

    for ip := network.IP.Mask(network.Mask); network.Contains(ip); incIP(ip) {
        host := ip.String()

        wg.Add(1)
        go func(host string) {
            defer wg.Done()

            health, err := client.ProbeHealth(ctx, host, port)
            if err != nil {
                return
            }

            mu.Lock()
            found = append(found, DiscoveredAgent{
                Host:              host,
                Port:              port,
                Hostname:          health.Hostname,
                Model:             health.Model,
                AgentVersion:      health.AgentVersion,
                AlreadyRegistered: registered[host],
            })
            mu.Unlock()
        }(host)
    }

    wg.Wait()
    return found
}

func incIP(ip net.IP) {
    for i := len(ip) - 1; i >= 0; i-- {
        ip[i]++
        if ip[i] != 0 {
            break
        }
    }
}

// localSubnet returns the /24 around the first non-loopback IPv4 address.
func localSubnet() (string, error) {
    addrs, err := net.InterfaceAddrs()
    if err != nil {
        return "", err
    }

    for _, addr := range addrs {
        ipnet, ok := addr.(*net.IPNet)
        if !ok || ipnet.IP.IsLoopback() {
            continue
        }
        ip4 := ipnet.IP.To4()
        if ip4 == nil {
            continue
        }
        return fmt.Sprintf("%d.%d.%d.0/24", ip4[0], ip4[1], ip4[2]), nil
    }

    return "", fmt.Errorf("no usable interface address found")
}
