package billing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports accumulated billing units as Prometheus counters.
// It is optional; a client without a collector simply skips reporting.
type Collector struct {
	classA  prometheus.Counter
	classB  prometheus.Counter
	ingress prometheus.Counter
	egress  prometheus.Counter
}

// NewCollector creates a Collector and registers its counters with reg.
// Passing a nil registerer leaves the counters unregistered, which is
// useful in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		classA: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objstore",
			Name:      "class_a_operations_total",
			Help:      "Attempted Class A (write-like) storage operations.",
		}),
		classB: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objstore",
			Name:      "class_b_operations_total",
			Help:      "Attempted Class B (read-like) storage operations.",
		}),
		ingress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objstore",
			Name:      "ingress_bytes_total",
			Help:      "Bytes sent to the storage service.",
		}),
		egress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "objstore",
			Name:      "egress_bytes_total",
			Help:      "Bytes received from the storage service.",
		}),
	}

	if reg != nil {
		reg.MustRegister(c.classA, c.classB, c.ingress, c.egress)
	}

	return c
}

// Observe adds one operation's billing units to the exported counters.
// Unknown byte counts are not exported.
func (c *Collector) Observe(r OperationResult) {
	c.classA.Add(float64(r.ClassA))
	c.classB.Add(float64(r.ClassB))
	if r.IngressBytes > 0 {
		c.ingress.Add(float64(r.IngressBytes))
	}
	if r.EgressBytes > 0 {
		c.egress.Add(float64(r.EgressBytes))
	}
}
