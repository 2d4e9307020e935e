// Command rpc-server runs a standalone server hosting the memory and amc
// modules over TCP, against simulated hardware backends.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hwrpc/internal/nettransport"
	"hwrpc/internal/registry"
	"hwrpc/modules/amc"
	"hwrpc/modules/memory"
	"hwrpc/rpcmodule"
	"hwrpc/rpcserver"
)

func main() {
	addr := flag.String("listen", ":8472", "address to listen on")
	rateLimit := flag.Float64("rate-limit", 0, "requests/sec admitted to the dispatcher (0 disables)")
	etcdEndpoints := flag.String("etcd", "", "comma-separated etcd endpoints; empty disables discovery advertisement")
	advertiseAddr := flag.String("advertise", "", "routable address to advertise in etcd (defaults to -listen)")
	flag.Parse()

	reg := rpcmodule.NewRegistry()

	if err := reg.LoadModule("memory", memory.New(memory.NewSimulatedStore())); err != nil {
		log.Fatalf("load memory module: %v", err)
	}
	if err := reg.LoadModule("amc", amc.New(amc.NewSimulatedRegisterFile())); err != nil {
		log.Fatalf("load amc module: %v", err)
	}
	reg.Freeze()

	dispatcher := rpcserver.NewDispatcher(reg)
	dispatcher.Use(rpcserver.LoggingMiddleware())
	if *rateLimit > 0 {
		dispatcher.Use(rpcserver.RateLimitMiddleware(*rateLimit, max(1, int(*rateLimit))))
	}

	srv := nettransport.NewServer(dispatcher)
	if err := srv.Listen("tcp", *addr); err != nil {
		log.Fatalf("listen on %s: %v", *addr, err)
	}
	log.Printf("rpc-server listening on %s", srv.Addr())

	if *etcdEndpoints != "" {
		etcdReg, err := registry.NewEtcdRegistry(strings.Split(*etcdEndpoints, ","))
		if err != nil {
			log.Fatalf("connect etcd: %v", err)
		}

		advertise := *advertiseAddr
		if advertise == "" {
			advertise = *addr
		}
		if err := srv.Advertise(etcdReg, advertise, reg.Modules(), 1, 10); err != nil {
			log.Fatalf("advertise to etcd: %v", err)
		}
		log.Printf("advertised modules %v at %s", mapKeys(reg.Modules()), advertise)
	}

	go func() {
		if err := srv.Accept(); err != nil {
			log.Printf("accept loop stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("shutting down")
	if err := srv.Shutdown(5 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
