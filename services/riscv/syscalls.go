package riscv

// Syscall numbers per spec.md §4.10.2's ABI table. The table lists code
// 2177 twice (debug, and load_args/load_json_args); resolved here by
// giving load_args its own adjacent code (see DESIGN.md) rather than
// guessing which of the two the collision was meant to favor. The
// env-scalar range 2100-2103 is likewise collapsed into a single "env"
// syscall taking a field selector in a0, since the table names nine
// distinct scalars (height, timestamp, cycles_limit/used/price, caller,
// origin, tx_hash, nonce, address, extra) against only four codes.
const (
	SyscallDebug        uint64 = 2177
	SyscallAssert       uint64 = 2178
	SyscallLoadArgs     uint64 = 2179
	SyscallEmitEvent    uint64 = 2180
	SyscallEnv          uint64 = 2100
	SyscallSetStorage   uint64 = 2200
	SyscallGetStorage   uint64 = 2201
	SyscallContractCall uint64 = 2210
	SyscallServiceCall  uint64 = 2211
	SyscallServiceRead  uint64 = 2212
	SyscallServiceWrite uint64 = 2213
)

// Env field selectors, passed in a0 on a SyscallEnv call.
const (
	EnvHeight      uint64 = 0
	EnvTimestamp   uint64 = 1
	EnvCyclesLimit uint64 = 2
	EnvCyclesUsed  uint64 = 3
	EnvCyclesPrice uint64 = 4
	EnvCaller      uint64 = 5
	EnvOrigin      uint64 = 6
	EnvTxHash      uint64 = 7
	EnvNonce       uint64 = 8
	EnvAddress     uint64 = 9
	EnvExtra       uint64 = 10
)

// ContractCallFixedCycle is charged on every cross-call regardless of the
// callee's own cost, per spec.md §4.10.3.
const ContractCallFixedCycle uint64 = 50
