package types

// ServiceContext is the immutable-per-call envelope threaded through every
// service method and every nested cross-service invocation. The cycles
// counter and the event list are the two pieces of state every frame in a
// call tree shares: child contexts derived via Derive alias the same
// pointers so charges and emissions accumulate across recursive calls.
type ServiceContext struct {
	Caller Address
	Origin Address

	TxHash *Hash
	Nonce  *uint64

	Height    uint64
	Timestamp uint64

	CyclesLimit uint64
	CyclesPrice uint64
	cyclesUsed  *uint64

	events *[]Event

	ServiceName string
	Method      string
	Payload     string

	// Extra is the sole channel through which a caller may claim a
	// capability on the callee side (e.g. the literal "governance", or
	// the hex of a contract's self-address during a contract call).
	Extra []byte

	canceled bool
}

// NewRootContext builds the outermost context for a transaction, owning a
// fresh cycles counter and event list.
func NewRootContext(caller Address, txHash *Hash, nonce *uint64, height, timestamp, cyclesLimit, cyclesPrice uint64) *ServiceContext {
	used := uint64(0)
	events := make([]Event, 0)
	return &ServiceContext{
		Caller:      caller,
		Origin:      caller,
		TxHash:      txHash,
		Nonce:       nonce,
		Height:      height,
		Timestamp:   timestamp,
		CyclesLimit: cyclesLimit,
		CyclesPrice: cyclesPrice,
		cyclesUsed:  &used,
		events:      &events,
	}
}

// Derive builds a child context for a nested dispatch: same cycles counter,
// same event list, same chain-level scalars, but a new caller/service/
// method/payload/extra describing the nested call.
func (c *ServiceContext) Derive(caller Address, service, method, payload string, extra []byte) *ServiceContext {
	child := *c
	child.Caller = caller
	child.ServiceName = service
	child.Method = method
	child.Payload = payload
	child.Extra = extra
	return &child
}

// CyclesUsed returns the cycles consumed so far by this call tree.
func (c *ServiceContext) CyclesUsed() uint64 {
	return *c.cyclesUsed
}

// ChargeCycles atomically adds amount to the shared cycles counter, failing
// without mutating it if that would exceed CyclesLimit.
func (c *ServiceContext) ChargeCycles(amount uint64) *ServiceError {
	used := *c.cyclesUsed
	next := used + amount
	if next < used || next > c.CyclesLimit {
		return ErrOutOfCycles()
	}
	*c.cyclesUsed = next
	return nil
}

// Emit appends an event to the shared, transaction-scoped event list.
func (c *ServiceContext) Emit(e Event) {
	*c.events = append(*c.events, e)
}

// Events returns the events recorded so far by this call tree.
func (c *ServiceContext) Events() []Event {
	return *c.events
}

// Canceled reports whether the transaction has been marked canceled.
// Governance's fee math consults this to skip charging (see DESIGN.md);
// nothing in the base runtime sets it, but it is preserved as an explicit
// extension point matching the source's ctx.canceled().
func (c *ServiceContext) Canceled() bool {
	return c.canceled
}

// Cancel marks the context canceled.
func (c *ServiceContext) Cancel() {
	c.canceled = true
}

// ExtraString returns Extra decoded as a UTF-8 string for capability
// comparisons (e.g. ctx.Extra == "governance").
func (c *ServiceContext) ExtraString() string {
	return string(c.Extra)
}
