// Package billing tracks the provider billing units accrued by storage
// operations.
//
// The storage service bills every API call as either a Class A (write-like)
// or Class B (read-like) operation and meters transferred bytes separately
// as ingress and egress. Each client operation produces one OperationResult
// describing exactly what was attempted, including calls that failed: a
// failed attempt is still a billed attempt.
package billing

// BytesUnknown marks a byte counter whose value could not be determined.
const BytesUnknown int64 = -1

// OperationResult records the billing-relevant footprint of one logical
// storage operation. Results are combined with Add across the iterations of
// a multi-call operation (multipart parts, delete batches, listing pages).
//
// An OperationResult is a plain value; it is never shared between two
// logical operations.
type OperationResult struct {
	// ClassA is the number of attempted write-like calls.
	ClassA uint64

	// ClassB is the number of attempted read-like calls.
	ClassB uint64

	// IngressBytes is the number of bytes sent to the service, or
	// BytesUnknown when the count could not be determined.
	IngressBytes int64

	// EgressBytes is the number of bytes received from the service.
	EgressBytes int64
}

// Add combines two results. Addition is associative and commutative and
// never drops a contributing term; an unknown ingress count on either side
// taints the sum.
func (r OperationResult) Add(o OperationResult) OperationResult {
	return OperationResult{
		ClassA:       r.ClassA + o.ClassA,
		ClassB:       r.ClassB + o.ClassB,
		IngressBytes: addBytes(r.IngressBytes, o.IngressBytes),
		EgressBytes:  r.EgressBytes + o.EgressBytes,
	}
}

// IsZero reports whether no call was attempted and no bytes were moved.
func (r OperationResult) IsZero() bool {
	return r == OperationResult{}
}

func addBytes(a, b int64) int64 {
	if a == BytesUnknown || b == BytesUnknown {
		return BytesUnknown
	}
	return a + b
}
