package tools

// Partition splits the tool calls proposed by the model into the set this
// process executes and the set handed back to the caller.
//
// The rule is registry membership and nothing else: a call whose function
// name is registered is server-side; every other call, including calls to
// tools the server has never heard of, is client-side. The caller executes
// those itself (rendering a card, changing a theme) and reports the results
// on its next request. Both result slices preserve the model's proposal
// order.
func (r *Registry) Partition(calls []*ToolCall) (server, client []*ToolCall) {
	for _, call := range calls {
		if call == nil {
			continue
		}
		if r.Has(call.Function.Name) {
			server = append(server, call)
		} else {
			client = append(client, call)
		}
	}
	return server, client
}
