package dispatch

import (
	"encoding/json"

	"servicechain/state"
	"servicechain/types"
)

// Dispatch implements spec.md §4.2's five-step sequence: locate the method,
// charge its base cost, decode the JSON payload into the method's parameter
// type, invoke it, and hand back its JSON-serialized response. It is the
// single entry point used both for a user transaction's top-level call and
// for every recursive SDK.Read/SDK.Write cross-service call.
func Dispatch(table *Table, layer *state.Layer, ctx *types.ServiceContext, service, method, payload string) types.ServiceResponse {
	svc, m := table.Lookup(service, method)
	if svc == nil || m == nil {
		return types.Fail(types.ErrMethodNotFound(service, method))
	}
	if err := ctx.ChargeCycles(m.BaseCycles); err != nil {
		return types.Fail(err)
	}
	param := m.newParam()
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), param); err != nil {
			return types.Fail(types.ErrBadPayload(err))
		}
	}
	return m.invoke(layer, ctx, table, param)
}
