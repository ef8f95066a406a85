package adapter

import "fmt"

// registry maps the endpoint_type string from a RunConfig to the adapter
// that knows how to speak its wire protocol (spec.md §6: openai, vllm,
// tgi, friendliai, triton). Grounded on the original's dynamic
// importlib-based endpoint-type dispatch (src/API/endpoint_interface.py),
// replaced here with a static table per spec.md §9 Design Notes — Go has
// no runtime module-name-to-class lookup, and a closed set of five
// vendors does not need one.
var registry = map[string]Factory{
	"openai":     func() Adapter { return OpenAIAdapter{} },
	"vllm":       func() Adapter { return VLLMAdapter{} },
	"tgi":        func() Adapter { return TGIAdapter{} },
	"friendliai": func() Adapter { return FriendliAIAdapter{} },
	"triton":     func() Adapter { return TritonAdapter{} },
}

// Lookup resolves an endpoint_type string to its Adapter. An unknown type
// is a configuration error, not a panic (spec.md §7: fail fast at config
// load, not mid-run).
func Lookup(endpointType string) (Adapter, error) {
	factory, ok := registry[endpointType]
	if !ok {
		return nil, fmt.Errorf("adapter: unknown endpoint_type %q", endpointType)
	}
	return factory(), nil
}

// Known reports whether endpointType has a registered adapter, for
// config validation before any run starts.
func Known(endpointType string) bool {
	_, ok := registry[endpointType]
	return ok
}
