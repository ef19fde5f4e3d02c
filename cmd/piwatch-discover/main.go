package main

import (
    "context"
    "flag"
    "fmt"
    "net"
    "os"
    "sync"
    "time"

    "gopkg.in/yaml.v3"
    "piwatch/internal/agent"
)

// piwatch-discover sweeps a subnet for live agents and prints a YAML seed
// list suitable for registering the devices it finds.

type seedDevice struct {
    Name string `yaml:"name"`
    Host string `yaml:"host"`
    Port int    `yaml:"port"`
}

func main() {
    subnet := flag.String("subnet", "", "Subnet to sweep, e.g. 192.168.1.0/24 (required)")
    port := flag.Int("port", agent.DefaultPort, "Agent port to probe")
    flag.Parse()

    if *subnet == "" {
        fmt.Fprintln(os.Stderr, "usage: piwatch-discover -subnet 192.168.1.0/24 [-port 9100]")
        os.Exit(2)
    }

    _, network, err := net.ParseCIDR(*subnet)
    if err != nil {
        fmt.Fprintf(os.Stderr, "invalid subnet: %v\n", err)
        os.Exit(2)
    }
    if ones, _ := network.Mask.Size(); ones < 24 {
        fmt.Fprintln(os.Stderr, "subnet too large, /24 or smaller only")
        os.Exit(2)
    }

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    client := agent.NewClient(agent.DefaultTimeout)

    var (
        mu    sync.Mutex
        found []seedDevice
        wg    sync.WaitGroup
    )

    for ip := network.IP.Mask(network.Mask); network.Contains(ip); incIP(ip) {
        host := ip.String()

        wg.Add(1)
        go func(host string) {
            defer wg.Done()

            health, err := client.ProbeHealth(ctx, host, *port)
            if err != nil {
                return
            }

            mu.Lock()
            found = append(found, seedDevice{
                Name: health.Hostname,
                Host: host,
                Port: *port,
            })
            mu.Unlock()
        }(host)
    }

    wg.Wait()

    if len(found) == 0 {
        fmt.Fprintln(os.Stderr, "no agents found")
        os.Exit(1)
    }

    out, err := yaml.Marshal(map[string][]seedDevice{"devices": found})
    if err != nil {
        fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
        os.Exit(1)
    }
    os.Stdout.Write(out)
}

func incIP(ip net.IP) {
    for i := len(ip) - 1; i >= 0; i-- {
        ip[i]++
        if ip[i] != 0 {
            break
        }
    }
}
