package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdKeyPrefix namespaces this framework's entries in a shared etcd
// cluster: key = /hwrpc/{module}/{addr}, value = JSON-encoded Instance.
const etcdKeyPrefix = "/hwrpc/"

// EtcdRegistry is the etcd v3 implementation of Registry. A server
// registers itself under a TTL lease on load; if it crashes without
// deregistering, the lease expires and the entry disappears on its own.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

func instanceKey(module, addr string) string { return etcdKeyPrefix + module + "/" + addr }
func modulePrefix(module string) string       { return etcdKeyPrefix + module + "/" }

// Register puts instance under a fresh TTL lease and starts a background
// keep-alive. The lease ID lives only in this call's local scope so two
// concurrent Register calls sharing one EtcdRegistry never race over it.
func (r *EtcdRegistry) Register(module string, instance Instance, ttlSeconds int64) error {
	ctx := context.Background()

	lease, err := r.client.Grant(ctx, ttlSeconds)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, instanceKey(module, instance.Addr), string(val), clientv3.WithLease(lease.ID)); err != nil {
		return err
	}

	keepAlive, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}
	go func() {
		for range keepAlive {
		}
	}()
	return nil
}

// Deregister removes one instance immediately rather than waiting for its
// lease to expire.
func (r *EtcdRegistry) Deregister(module, addr string) error {
	_, err := r.client.Delete(context.Background(), instanceKey(module, addr))
	return err
}

// Discover lists every instance currently registered for module.
func (r *EtcdRegistry) Discover(module string) ([]Instance, error) {
	resp, err := r.client.Get(context.Background(), modulePrefix(module), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			continue
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Watch emits the full, re-fetched instance list for module on every etcd
// change under its key prefix — registration, deregistration, or lease
// expiry all look the same to a watcher: "go re-read the set".
func (r *EtcdRegistry) Watch(module string) <-chan []Instance {
	ch := make(chan []Instance, 1)
	watchChan := r.client.Watch(context.Background(), modulePrefix(module), clientv3.WithPrefix())

	go func() {
		for range watchChan {
			instances, err := r.Discover(module)
			if err != nil {
				continue
			}
			ch <- instances
		}
	}()

	return ch
}
