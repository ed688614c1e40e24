package bind

import "fmt"

// WorkerNamespace returns the canonical namespace string for worker i.
func WorkerNamespace(i int) string { return fmt.Sprintf("worker_%d", i) }

// MasterNamespace is the namespace the master (forwarder) process owns.
const MasterNamespace = "master"

// ForNamespace returns the address a given namespace should bind, given the
// master's bare configured address. The master binds the bare address
// itself; any worker namespace is derived via Namespaced with port offset
// i+1, where i is parsed out of the "worker_i" namespace by the caller.
func ForNamespace(bare Address, ns string, workerIndex int) Address {
	if ns == MasterNamespace {
		return bare
	}
	return bare.Namespaced(ns, workerIndex+1)
}
