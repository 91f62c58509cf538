package riscv

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"servicechain/dispatch"
	"servicechain/services/riscv/asm"
	"servicechain/services/riscv/vm"
	"servicechain/state"
	"servicechain/storage/trie"
	"servicechain/types"
)

func newTestLayer(t *testing.T) *state.Layer {
	t.Helper()
	tr, err := trie.New(nil)
	require.NoError(t, err)
	return state.NewLayer(state.NewRoot(tr))
}

func newTestTable() *dispatch.Table {
	table := dispatch.NewTable()
	Register(table)
	return table
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

var (
	admin    = types.BytesToAddress([]byte{0x01})
	deployer = types.BytesToAddress([]byte{0x02})
)

func rootCtx(caller types.Address, txHash *types.Hash) *types.ServiceContext {
	var nonce uint64
	return types.NewRootContext(caller, txHash, &nonce, 1, 0, 10_000_000, 1)
}

func txHashFor(seed byte) *types.Hash {
	h := types.ComputeHash([]byte{seed})
	return &h
}

// packBE packs up to 8 bytes of s into a big-endian word, matching the
// machine's own beUint64/beBytes memory layout (first byte is the MSB, so
// it lands at the lowest address).
func packBE(s string) int64 {
	var buf [8]byte
	copy(buf[:], s)
	var v uint64
	for _, c := range buf {
		v = v<<8 | uint64(c)
	}
	return int64(v)
}

// writeMemString emits instructions that store s, null-terminated, starting
// at baseAddr, using scratchReg as a throwaway register.
func writeMemString(scratchReg uint8, baseAddr int64, s string) []vm.Instruction {
	var out []vm.Instruction
	for i := 0; i < len(s); i += 8 {
		end := i + 8
		if end > len(s) {
			end = len(s)
		}
		out = append(out, asm.LoadImm(scratchReg, packBE(s[i:end])))
		out = append(out, asm.StoreMemAt(scratchReg, vm.RegZero, baseAddr+int64(i)))
	}
	if len(s)%8 == 0 {
		out = append(out, asm.LoadImm(scratchReg, 0))
		out = append(out, asm.StoreMemAt(scratchReg, vm.RegZero, baseAddr+int64(len(s))))
	}
	return out
}

// setStorageProgram builds a program that writes key=val to this contract's
// own storage, then halts cleanly with no output.
func setStorageProgram(key, val string) []byte {
	var prog vm.Program
	prog = append(prog, writeMemString(1, 0, key)...)
	prog = append(prog, writeMemString(1, 64, val)...)
	prog = append(prog,
		asm.LoadImm(vm.RegA0, 0),
		asm.LoadImm(vm.RegA1, int64(len(key))),
		asm.LoadImm(vm.RegA2, 64),
		asm.LoadImm(vm.RegA3, int64(len(val))),
		asm.LoadImm(vm.RegA7, int64(SyscallSetStorage)),
		asm.Ecall(),
		asm.LoadImm(2, 0),
		asm.Halt(2),
	)
	return asm.Encode(prog)
}

// assertFailProgram builds a program that always fails an assertion with msg.
func assertFailProgram(msg string) []byte {
	var prog vm.Program
	prog = append(prog, writeMemString(1, 64, msg)...)
	prog = append(prog,
		asm.LoadImm(vm.RegA0, 0),  // cond = false
		asm.LoadImm(vm.RegA1, 64), // msg ptr
		asm.LoadImm(vm.RegA7, int64(SyscallAssert)),
		asm.Ecall(),
		asm.LoadImm(2, 0),
		asm.Halt(2),
	)
	return asm.Encode(prog)
}

func emptyProgram() []byte {
	prog := vm.Program{asm.LoadImm(2, 0), asm.Halt(2)}
	return asm.Encode(prog)
}

func seedGenesis(t *testing.T, layer *state.Layer, table *dispatch.Table) {
	t.Helper()
	ctx := rootCtx(admin, nil)
	resp := InitGenesis(layer, ctx, table, &GenesisPayload{})
	require.False(t, resp.IsError(), resp.Msg)
}

// TestDeployAndExecStorageRoundtrip covers S1: init sets k=init, get_contract
// reflects it, and a subsequent exec overwrites it.
func TestDeployAndExecStorageRoundtrip(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	initCode := hex.EncodeToString(setStorageProgram("k", "init"))
	deployCtx := rootCtx(deployer, txHashFor(0x10))
	resp := dispatch.Dispatch(table, layer, deployCtx, Name, "deploy", mustJSON(t, DeployPayload{
		Code:     initCode,
		InitArgs: "go",
	}))
	require.False(t, resp.IsError(), resp.Msg)
	var deployResp DeployResponse
	require.NoError(t, resp.Decode(&deployResp))

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "get_contract", mustJSON(t, CallPayload{Address: deployResp.Address}))
	require.False(t, resp.IsError(), resp.Msg)
	var contractInfo GetContractResponse
	require.NoError(t, resp.Decode(&contractInfo))
	require.Equal(t, hex.EncodeToString([]byte("init")), contractInfo.Storage[hex.EncodeToString([]byte("k"))])

	execCode := hex.EncodeToString(setStorageProgram("k", "v"))
	execCtx := rootCtx(deployer, txHashFor(0x11))
	resp = dispatch.Dispatch(table, layer, execCtx, Name, "deploy", mustJSON(t, DeployPayload{Code: execCode}))
	require.False(t, resp.IsError(), resp.Msg)
	var secondDeploy DeployResponse
	require.NoError(t, resp.Decode(&secondDeploy))

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "exec", mustJSON(t, CallPayload{Address: secondDeploy.Address, Args: "set"}))
	require.False(t, resp.IsError(), resp.Msg)
	require.Equal(t, "", resp.Data)

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "get_contract", mustJSON(t, CallPayload{Address: secondDeploy.Address}))
	require.False(t, resp.IsError(), resp.Msg)
	require.NoError(t, resp.Decode(&contractInfo))
	require.Equal(t, hex.EncodeToString([]byte("v")), contractInfo.Storage[hex.EncodeToString([]byte("k"))])
}

// TestReadonlyCannotMutate covers S2: a call attempting set_storage fails
// with CodeWriteInReadonlyContext, and the contract's storage is untouched.
func TestReadonlyCannotMutate(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	initCode := hex.EncodeToString(setStorageProgram("k", "init"))
	deployCtx := rootCtx(deployer, txHashFor(0x20))
	resp := dispatch.Dispatch(table, layer, deployCtx, Name, "deploy", mustJSON(t, DeployPayload{Code: initCode, InitArgs: "go"}))
	require.False(t, resp.IsError(), resp.Msg)
	var deployResp DeployResponse
	require.NoError(t, resp.Decode(&deployResp))

	mutateCode := hex.EncodeToString(setStorageProgram("k", "v"))
	mutateCtx := rootCtx(deployer, txHashFor(0x21))
	resp = dispatch.Dispatch(table, layer, mutateCtx, Name, "deploy", mustJSON(t, DeployPayload{Code: mutateCode}))
	require.False(t, resp.IsError(), resp.Msg)
	var mutateDeploy DeployResponse
	require.NoError(t, resp.Decode(&mutateDeploy))

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "call", mustJSON(t, CallPayload{Address: mutateDeploy.Address, Args: "set"}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeWriteInReadonlyContext, resp.Code)

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "get_contract", mustJSON(t, CallPayload{Address: deployResp.Address}))
	require.False(t, resp.IsError(), resp.Msg)
	var contractInfo GetContractResponse
	require.NoError(t, resp.Decode(&contractInfo))
	require.Equal(t, hex.EncodeToString([]byte("init")), contractInfo.Storage[hex.EncodeToString([]byte("k"))])
}

// TestAssertFailureCarriesMessage covers S5: a failing assertion returns
// CodeAssertFailed with the asserted message surfaced in the response.
func TestAssertFailureCarriesMessage(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	const msg = "1 should never bigger than 2"
	code := hex.EncodeToString(assertFailProgram(msg))
	deployCtx := rootCtx(deployer, txHashFor(0x30))
	resp := dispatch.Dispatch(table, layer, deployCtx, Name, "deploy", mustJSON(t, DeployPayload{Code: code}))
	require.False(t, resp.IsError(), resp.Msg)
	var deployResp DeployResponse
	require.NoError(t, resp.Decode(&deployResp))

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "exec", mustJSON(t, CallPayload{Address: deployResp.Address}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeAssertFailed, resp.Code)
	require.Contains(t, resp.Msg, msg)
}

// TestDeployAuthGatesDeployment covers the admin-gated deploy_auth table:
// with deploy_auth enabled, an ungranted caller is rejected and a granted
// one succeeds.
func TestDeployAuthGatesDeployment(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	ctx := rootCtx(admin, nil)
	resp := InitGenesis(layer, ctx, table, &GenesisPayload{DeployAuthEnabled: true, Admins: []types.Address{admin}})
	require.False(t, resp.IsError(), resp.Msg)

	code := hex.EncodeToString(emptyProgram())
	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, txHashFor(0x40)), Name, "deploy", mustJSON(t, DeployPayload{Code: code}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)

	resp = dispatch.Dispatch(table, layer, rootCtx(admin, nil), Name, "grant_deploy_auth", mustJSON(t, GrantDeployAuthPayload{Target: deployer}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, txHashFor(0x41)), Name, "deploy", mustJSON(t, DeployPayload{Code: code}))
	require.False(t, resp.IsError(), resp.Msg)
}

// TestGenesisRejectsFlagWithoutAdmins covers spec.md §4.10.4's invariant
// that enabling an authorization mode requires at least one admin.
func TestGenesisRejectsFlagWithoutAdmins(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	ctx := rootCtx(admin, nil)
	resp := InitGenesis(layer, ctx, table, &GenesisPayload{ContractAuthEnabled: true})
	require.True(t, resp.IsError())
	require.Equal(t, CodeMissingInfo, resp.Code)
}

// TestGrantContractAuthRecordsGrantingAdmin covers spec.md §4.10.4: a grant
// records the *granting admin* as Authorizer, not the approved target, and
// get_contract exposes it for provenance; before the grant, a call to the
// contract is rejected, gated on the contract's plain membership in
// contract_auth rather than on the stored value.
func TestGrantContractAuthRecordsGrantingAdmin(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	ctx := rootCtx(admin, nil)
	resp := InitGenesis(layer, ctx, table, &GenesisPayload{ContractAuthEnabled: true, Admins: []types.Address{admin}})
	require.False(t, resp.IsError(), resp.Msg)

	code := hex.EncodeToString(emptyProgram())
	deployCtx := rootCtx(deployer, txHashFor(0x50))
	resp = dispatch.Dispatch(table, layer, deployCtx, Name, "deploy", mustJSON(t, DeployPayload{Code: code}))
	require.False(t, resp.IsError(), resp.Msg)
	var deployResp DeployResponse
	require.NoError(t, resp.Decode(&deployResp))

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "call", mustJSON(t, CallPayload{Address: deployResp.Address}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)

	resp = dispatch.Dispatch(table, layer, rootCtx(admin, nil), Name, "grant_contract_auth", mustJSON(t, GrantContractAuthPayload{Target: deployResp.Address}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "call", mustJSON(t, CallPayload{Address: deployResp.Address}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, rootCtx(deployer, nil), Name, "get_contract", mustJSON(t, CallPayload{Address: deployResp.Address}))
	require.False(t, resp.IsError(), resp.Msg)
	var contractInfo GetContractResponse
	require.NoError(t, resp.Decode(&contractInfo))
	require.NotNil(t, contractInfo.Authorizer)
	require.Equal(t, admin, *contractInfo.Authorizer)
}

// TestDeployAddressIsDigestOfTxHash covers spec.md §4.10 step 5: a
// contract's address is truncate_20(H(tx_hash)), not tx_hash truncated
// directly.
func TestDeployAddressIsDigestOfTxHash(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	txHash := txHashFor(0x60)
	code := hex.EncodeToString(emptyProgram())
	resp := dispatch.Dispatch(table, layer, rootCtx(deployer, txHash), Name, "deploy", mustJSON(t, DeployPayload{Code: code}))
	require.False(t, resp.IsError(), resp.Msg)
	var deployResp DeployResponse
	require.NoError(t, resp.Decode(&deployResp))

	want := types.BytesToAddress(types.ComputeHash(txHash.Bytes()).Bytes())
	require.Equal(t, want, deployResp.Address)
	require.NotEqual(t, types.BytesToAddress(txHash.Bytes()), deployResp.Address)
}
