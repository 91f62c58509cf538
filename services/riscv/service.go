package riscv

import (
	"encoding/hex"

	"lukechampine.com/blake3"

	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/services/riscv/asm"
	"servicechain/services/riscv/vm"
	"servicechain/state"
	"servicechain/types"
)

// codeHash addresses deployed code by its blake3 digest rather than the
// module's usual keccak256 (types.ComputeHash), giving contract code a
// hash domain distinct from trie keys and transaction hashes — the
// teacher carries both hash libraries for exactly this kind of separation
// (see native/creator's content-addressed metadata hashing).
func codeHash(code []byte) types.Hash {
	sum := blake3.Sum256(code)
	return types.BytesToHash(sum[:])
}

// deployCycleRate is the per-byte cost of persisting a contract's code,
// spec.md §4.10's "charge 10 x len(code) cycles".
const deployCycleRate = 10

func requireDeployAuth(store *riscvStore, caller types.Address) *types.ServiceError {
	enabled, err := store.deployAuthEnabled.Get()
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !enabled {
		return nil
	}
	isAdmin, err := store.isAdmin(caller)
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if isAdmin {
		return nil
	}
	_, ok, err := store.deployAuth.Get(caller)
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !ok {
		return errNonAuthorized()
	}
	return nil
}

func requireContractAuth(store *riscvStore, address types.Address) *types.ServiceError {
	enabled, err := store.contractAuthEnabled.Get()
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !enabled {
		return nil
	}
	_, ok, err := store.contractAuth.Get(address)
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !ok {
		return errNonAuthorized()
	}
	return nil
}

// handleDeploy implements spec.md §4.10's seven-step deploy algorithm.
func handleDeploy(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *DeployPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())

	if err := requireDeployAuth(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}

	code, err := hex.DecodeString(p.Code)
	if err != nil {
		return types.Fail(errHexDecode(err))
	}

	if serr := ctx.ChargeCycles(uint64(len(code)) * deployCycleRate); serr != nil {
		return types.Fail(serr)
	}

	if ctx.TxHash == nil {
		return types.Fail(errNotInExecContext())
	}
	hash := codeHash(code)
	if err := store.code.Set(hash, code); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}

	address := types.BytesToAddress(types.ComputeHash(ctx.TxHash.Bytes()).Bytes())
	contract := Contract{CodeHash: hash, IntpType: p.IntpType}
	if err := store.contracts.Set(address, contract); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}

	resp := DeployResponse{Address: address}
	if p.InitArgs != "" {
		result, rerr := runContract(s, store, address, contract, p.InitArgs, false)
		if rerr != nil {
			return types.Fail(rerr)
		}
		resp.ReturnValue = result
	}
	return types.Ok(resp)
}

// handleCall runs a deployed contract in a readonly frame (no storage
// mutation, no nested write-style cross-calls).
func handleCall(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *CallPayload) types.ServiceResponse {
	return dispatchRun(layer, ctx, table, p, true)
}

// handleExec runs a deployed contract in a writable frame.
func handleExec(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *CallPayload) types.ServiceResponse {
	return dispatchRun(layer, ctx, table, p, false)
}

func dispatchRun(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *CallPayload, readonly bool) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())

	if err := requireContractAuth(store, p.Address); err != nil {
		return types.Fail(err)
	}

	contract, ok, err := store.contracts.Get(p.Address)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errContractNotFound(p.Address))
	}

	result, rerr := runContract(s, store, p.Address, contract, p.Args, readonly)
	if rerr != nil {
		return types.Fail(rerr)
	}
	return types.OkString(result)
}

// runContract loads a contract's code, builds the appropriate chain host,
// runs the VM to completion, and translates the result, charging whatever
// cycles the run consumed regardless of outcome.
func runContract(s *sdk.SDK, store *riscvStore, address types.Address, contract Contract, args string, readonly bool) (string, *types.ServiceError) {
	code, ok, err := store.code.Get(contract.CodeHash)
	if err != nil {
		return "", types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !ok {
		return "", errCodeNotFound(contract.CodeHash)
	}
	prog, derr := asm.Decode(code)
	if derr != nil {
		return "", errCkbVm(derr)
	}

	writeable := newWriteableChain(s, store, address)
	var host vm.Host = writeable
	if readonly {
		host = writeable.readonlyView()
	}

	ctx := s.Context()
	budget := ctx.CyclesLimit - ctx.CyclesUsed()
	m := vm.New(prog, host, budget, args)
	result := m.Run()

	if serr := writeable.reconcile(result.CyclesUsed); serr != nil {
		return "", serr
	}

	return translateVMResult(result)
}

func translateVMResult(result vm.Result) (string, *types.ServiceError) {
	if result.Reason == vm.ExitHalt {
		if result.ExitCode == 0 {
			return result.Stdout, nil
		}
		return "", errNonZeroExit(result.ExitCode, result.Stdout)
	}

	if ae, ok := result.Err.(*assertFailedErr); ok {
		return "", errAssertFailed(ae.msg)
	}
	if ce, ok := result.Err.(*calleeError); ok {
		return "", types.NewServiceError(ce.code, "%s", ce.msg)
	}
	if _, ok := result.Err.(*writeInReadonlyErr); ok {
		return "", errWriteInReadonlyContext()
	}
	if serr, ok := result.Err.(*types.ServiceError); ok {
		return "", serr
	}
	return "", errCkbVm(result.Err)
}

func handleGetContract(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *CallPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())

	contract, ok, err := store.contracts.Get(p.Address)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errContractNotFound(p.Address))
	}
	dump, err := store.storageDump(p.Address)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}

	// A contract's authorizer is None until an admin approves it via
	// grant_contract_auth (spec.md §4.10's deploy step 6 records
	// authorizer=None; §4.10.4 records the granting admin only on grant),
	// so it is looked up from contract_auth rather than stored on Contract
	// itself.
	authorizer, granted, err := store.contractAuth.Get(p.Address)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if granted {
		contract.Authorizer = &authorizer
	}

	return types.Ok(GetContractResponse{
		CodeHash:   contract.CodeHash,
		IntpType:   contract.IntpType,
		Authorizer: contract.Authorizer,
		Storage:    dump,
	})
}

func requireServiceAdmin(store *riscvStore, caller types.Address) *types.ServiceError {
	isAdmin, err := store.isAdmin(caller)
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !isAdmin {
		return errNonAuthorized()
	}
	return nil
}

func handleGrantDeployAuth(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GrantDeployAuthPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.deployAuth.Set(p.Target, ctx.Caller); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("GrantAuth", GrantAuthEvent{Target: p.Target, Kind: "deploy"})
	return types.Ok(nil)
}

func handleRevokeDeployAuth(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *RevokeDeployAuthPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.deployAuth.Delete(p.Target); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("RevokeAuth", RevokeAuthEvent{Target: p.Target, Kind: "deploy"})
	return types.Ok(nil)
}

func handleGrantContractAuth(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GrantContractAuthPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.contractAuth.Set(p.Target, ctx.Caller); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("ApproveContract", ApproveContractEvent{Address: p.Target})
	return types.Ok(nil)
}

func handleRevokeContractAuth(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *RevokeContractAuthPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.contractAuth.Delete(p.Target); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("RevokeContract", RevokeContractEvent{Address: p.Target})
	return types.Ok(nil)
}

// InitGenesis installs the authorization-mode flags and initial admin set,
// rejecting a flag enabled with no admin to grant it (spec.md §4.10.4).
func InitGenesis(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GenesisPayload) types.ServiceResponse {
	if (p.DeployAuthEnabled || p.ContractAuthEnabled) && len(p.Admins) == 0 {
		return types.Fail(errMissingInfo("deploy_auth_enabled or contract_auth_enabled set with no admins"))
	}
	s := sdk.New(table, layer, ctx, Name)
	store := newRISCVStore(s.Store())
	if err := store.deployAuthEnabled.Set(p.DeployAuthEnabled); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if err := store.contractAuthEnabled.Set(p.ContractAuthEnabled); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	for _, admin := range p.Admins {
		if err := store.admins.Set(admin, true); err != nil {
			return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
		}
	}
	return types.Ok(nil)
}

// Register wires the RISC-V service's dispatch table.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"deploy":               dispatch.NewMethod(dispatch.Write, 100, handleDeploy),
			"call":                 dispatch.NewMethod(dispatch.Read, 50, handleCall),
			"exec":                 dispatch.NewMethod(dispatch.Write, 50, handleExec),
			"get_contract":         dispatch.NewMethod(dispatch.Read, 40, handleGetContract),
			"grant_deploy_auth":    dispatch.NewMethod(dispatch.Write, 60, handleGrantDeployAuth),
			"revoke_deploy_auth":   dispatch.NewMethod(dispatch.Write, 60, handleRevokeDeployAuth),
			"grant_contract_auth":  dispatch.NewMethod(dispatch.Write, 60, handleGrantContractAuth),
			"revoke_contract_auth": dispatch.NewMethod(dispatch.Write, 60, handleRevokeContractAuth),
		},
		InitGenesis: dispatch.NewGenesisHook(InitGenesis),
	})
}
