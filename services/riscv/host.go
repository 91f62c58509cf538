package riscv

import (
	"fmt"

	"servicechain/sdk"
	"servicechain/services/riscv/vm"
	"servicechain/types"
)

// calleeError wraps a failing cross-call's (code, msg) so the VM's
// translated result can reproduce it exactly, per spec.md §4.10.2's "the
// RISC-V service translates this into the same ServiceResponse error
// code/message the callee produced".
type calleeError struct {
	code uint64
	msg  string
}

func (e *calleeError) Error() string { return e.msg }

// assertFailedErr is raised by the assert syscall when its condition is
// false; it carries the recorded message separately from a generic VM
// error so the caller can surface AssertFailed rather than CkbVm.
type assertFailedErr struct{ msg string }

func (e *assertFailedErr) Error() string { return e.msg }

// writeInReadonlyErr marks an attempted mutation inside a readonly call.
type writeInReadonlyErr struct{}

func (e *writeInReadonlyErr) Error() string { return "write attempted in a readonly context" }

// chain implements vm.Host, mediating every syscall a running contract
// issues against either a writable or readonly view of the runtime
// (spec.md §4.10.1). allCyclesUsed is shared by pointer between a
// ReadonlyChain wrapper and its underlying WriteableChain so both keep
// reconciling against the same running total.
type chain struct {
	sdk           *sdk.SDK
	ctx           *types.ServiceContext
	store         *riscvStore
	address       types.Address
	readonly      bool
	allCyclesUsed *uint64
}

func newWriteableChain(s *sdk.SDK, store *riscvStore, address types.Address) *chain {
	used := uint64(0)
	return &chain{sdk: s, ctx: s.Context(), store: store, address: address, readonly: false, allCyclesUsed: &used}
}

// readonlyView returns a chain identical to c but gated to reject writes.
func (c *chain) readonlyView() *chain {
	return &chain{sdk: c.sdk, ctx: c.ctx, store: c.store, address: c.address, readonly: true, allCyclesUsed: c.allCyclesUsed}
}

// reconcile charges against ctx.cycles_used the delta between the VM's own
// cycle counter and what has been reconciled so far, keeping the VM and
// host on one shared budget (spec.md §4.10.1).
func (c *chain) reconcile(vmCycles uint64) error {
	if vmCycles <= *c.allCyclesUsed {
		return nil
	}
	delta := vmCycles - *c.allCyclesUsed
	if err := c.ctx.ChargeCycles(delta); err != nil {
		return err
	}
	*c.allCyclesUsed = vmCycles
	return nil
}

func (c *chain) chargeExtra(n uint64) error {
	if err := c.ctx.ChargeCycles(n); err != nil {
		return err
	}
	*c.allCyclesUsed += n
	return nil
}

// Syscall implements vm.Host.
func (c *chain) Syscall(m *vm.Machine, code uint64) error {
	if err := c.reconcile(m.CyclesUsed()); err != nil {
		return err
	}

	switch code {
	case SyscallDebug:
		msg, err := m.ReadMemString(m.Reg(vm.RegA0))
		if err != nil {
			return err
		}
		m.WriteStdout("[debug] " + msg + "\n")
		return nil

	case SyscallAssert:
		cond := m.Reg(vm.RegA0)
		if cond != 0 {
			return nil
		}
		msg := ""
		if ptr := m.Reg(vm.RegA1); ptr != 0 {
			msg, _ = m.ReadMemString(ptr)
		}
		m.RecordAssertFailure(msg)
		return &assertFailedErr{msg: msg}

	case SyscallLoadArgs:
		data := append([]byte(m.Args()), 0)
		if err := m.WriteMemBytes(m.Reg(vm.RegA0), data); err != nil {
			return err
		}
		m.SetReg(vm.RegA0, uint64(len(m.Args())))
		return nil

	case SyscallEmitEvent:
		msg, err := m.ReadMemString(m.Reg(vm.RegA0))
		if err != nil {
			return err
		}
		c.sdk.Emit("ContractEvent", struct {
			Address types.Address `json:"address"`
			Message string        `json:"message"`
		}{Address: c.address, Message: msg})
		return nil

	case SyscallEnv:
		return c.syscallEnv(m)

	case SyscallSetStorage:
		return c.syscallSetStorage(m)

	case SyscallGetStorage:
		return c.syscallGetStorage(m)

	case SyscallContractCall:
		return c.syscallContractCall(m)

	case SyscallServiceCall, SyscallServiceRead, SyscallServiceWrite:
		return c.syscallServiceCall(m, code)

	default:
		return fmt.Errorf("ckb_vm InvalidEcall(%d): unknown syscall", code)
	}
}

func (c *chain) syscallEnv(m *vm.Machine) error {
	field := m.Reg(vm.RegA0)
	switch field {
	case EnvHeight:
		m.SetReg(vm.RegA0, c.ctx.Height)
	case EnvTimestamp:
		m.SetReg(vm.RegA0, c.ctx.Timestamp)
	case EnvCyclesLimit:
		m.SetReg(vm.RegA0, c.ctx.CyclesLimit)
	case EnvCyclesUsed:
		m.SetReg(vm.RegA0, c.ctx.CyclesUsed())
	case EnvCyclesPrice:
		m.SetReg(vm.RegA0, c.ctx.CyclesPrice)
	case EnvNonce:
		if c.ctx.Nonce != nil {
			m.SetReg(vm.RegA0, *c.ctx.Nonce)
		} else {
			m.SetReg(vm.RegA0, 0)
		}
	case EnvCaller:
		return c.writeEnvBytes(m, c.ctx.Caller.Bytes())
	case EnvOrigin:
		return c.writeEnvBytes(m, c.ctx.Origin.Bytes())
	case EnvTxHash:
		if c.ctx.TxHash != nil {
			return c.writeEnvBytes(m, c.ctx.TxHash.Bytes())
		}
		return c.writeEnvBytes(m, nil)
	case EnvAddress:
		return c.writeEnvBytes(m, c.address.Bytes())
	case EnvExtra:
		return c.writeEnvBytes(m, c.ctx.Extra)
	default:
		return fmt.Errorf("ckb_vm IO(InvalidInput): unknown env field %d", field)
	}
	return nil
}

func (c *chain) writeEnvBytes(m *vm.Machine, data []byte) error {
	ptr := m.Reg(vm.RegA1)
	if err := m.WriteMemBytes(ptr, data); err != nil {
		return err
	}
	m.SetReg(vm.RegA0, uint64(len(data)))
	return nil
}

func (c *chain) syscallSetStorage(m *vm.Machine) error {
	if c.readonly {
		return &writeInReadonlyErr{}
	}
	key, err := m.ReadMemBytes(m.Reg(vm.RegA0), m.Reg(vm.RegA1))
	if err != nil {
		return err
	}
	val, err := m.ReadMemBytes(m.Reg(vm.RegA2), m.Reg(vm.RegA3))
	if err != nil {
		return err
	}
	if err := c.chargeExtra(uint64(len(key) + len(val))); err != nil {
		return err
	}
	return c.store.storage.Set(storageKey{Address: c.address, Key: string(key)}, val)
}

func (c *chain) syscallGetStorage(m *vm.Machine) error {
	key, err := m.ReadMemBytes(m.Reg(vm.RegA0), m.Reg(vm.RegA1))
	if err != nil {
		return err
	}
	val, ok, err := c.store.storage.Get(storageKey{Address: c.address, Key: string(key)})
	if err != nil {
		return err
	}
	if !ok {
		val = nil
	}
	if err := c.chargeExtra(uint64(len(key) + len(val))); err != nil {
		return err
	}
	if err := m.WriteMemBytes(m.Reg(vm.RegA2), val); err != nil {
		return err
	}
	m.SetReg(vm.RegA0, uint64(len(val)))
	return nil
}

func (c *chain) syscallContractCall(m *vm.Machine) error {
	if err := c.chargeExtra(ContractCallFixedCycle); err != nil {
		return err
	}
	addrBytes, err := m.ReadMemBytes(m.Reg(vm.RegA0), types.AddressLength)
	if err != nil {
		return err
	}
	target := types.BytesToAddress(addrBytes)
	args, err := m.ReadMemBytes(m.Reg(vm.RegA1), m.Reg(vm.RegA2))
	if err != nil {
		return err
	}

	payload := CallPayload{Address: target, Args: string(args)}
	var resp types.ServiceResponse
	if c.readonly {
		resp = c.sdk.ReadAs(c.address, []byte(c.address.Hex()), Name, "call", payload)
	} else {
		resp = c.sdk.WriteAs(c.address, []byte(c.address.Hex()), Name, "exec", payload)
	}
	if resp.IsError() {
		return &calleeError{code: resp.Code, msg: resp.Msg}
	}
	return c.writeReturnValue(m, m.Reg(vm.RegA3), resp.Data)
}

func (c *chain) syscallServiceCall(m *vm.Machine, code uint64) error {
	if err := c.chargeExtra(ContractCallFixedCycle); err != nil {
		return err
	}
	service, err := m.ReadMemString(m.Reg(vm.RegA0))
	if err != nil {
		return err
	}
	method, err := m.ReadMemString(m.Reg(vm.RegA1))
	if err != nil {
		return err
	}
	payload, err := m.ReadMemBytes(m.Reg(vm.RegA2), m.Reg(vm.RegA3))
	if err != nil {
		return err
	}

	write := code == SyscallServiceWrite || (code == SyscallServiceCall && !c.readonly)
	if write && c.readonly {
		return &writeInReadonlyErr{}
	}

	var resp types.ServiceResponse
	if write {
		resp = c.sdk.WriteAs(c.address, []byte(c.address.Hex()), service, method, string(payload))
	} else {
		resp = c.sdk.ReadAs(c.address, []byte(c.address.Hex()), service, method, string(payload))
	}
	if resp.IsError() {
		return &calleeError{code: resp.Code, msg: resp.Msg}
	}
	return c.writeReturnValue(m, m.Reg(vm.RegA4), resp.Data)
}

func (c *chain) writeReturnValue(m *vm.Machine, ptr uint64, data string) error {
	if err := m.WriteMemBytes(ptr, []byte(data)); err != nil {
		return err
	}
	m.SetReg(vm.RegA0, uint64(len(data)))
	return nil
}
