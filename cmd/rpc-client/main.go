// Command rpc-client connects to a rpc-server instance, loads the memory
// module, and reads back a handful of words — the same round trip the
// reference client this is modeled on performs.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"hwrpc/internal/loadbalance"
	"hwrpc/internal/nettransport"
	"hwrpc/internal/registry"
	"hwrpc/modules/memory"
	"hwrpc/rpcclient"
)

func main() {
	host := flag.String("host", "localhost:8472", "rpc-server address; ignored when -etcd is set")
	etcdEndpoints := flag.String("etcd", "", "comma-separated etcd endpoints; when set, the memory module's server is discovered instead of dialing -host")
	address := flag.Uint("address", 0, "register address to read")
	count := flag.Uint("count", 10, "word count to read")
	flag.Parse()

	conn := rpcclient.NewConnection(nettransport.TCPDialer{})
	if *etcdEndpoints != "" {
		etcdReg, err := registry.NewEtcdRegistry(strings.Split(*etcdEndpoints, ","))
		if err != nil {
			log.Fatalf("connect etcd: %v", err)
		}
		if err := conn.ConnectDiscover(etcdReg, &loadbalance.RoundRobin{}, "memory"); err != nil {
			log.Fatalf("discover memory module: %v", err)
		}
	} else if err := conn.Connect(*host); err != nil {
		log.Fatalf("connect %s: %v", *host, err)
	}
	defer conn.Close()

	if err := conn.LoadModule("memory", memory.VersionKey); err != nil {
		log.Fatalf("load memory module: %v", err)
	}

	words, err := rpcclient.Call[[]uint32](conn, memory.ReadSignature, uint32(*address), uint32(*count))
	if err != nil {
		log.Fatalf("memory.Read: %v", err)
	}

	for _, w := range words {
		fmt.Printf(" %x", w)
	}
	fmt.Println()
}
