package evaluator

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/value"
)

// Evaluator is one guest module instantiated against a Host's shared
// memory. Its exports take record addresses and return either an address
// or an i32 comparator result.
type Evaluator struct {
	host     *Host
	module   api.Module
	compiled wazero.CompiledModule
}

// Exports lists the guest's exported function names.
func (e *Evaluator) Exports() []string {
	defs := e.module.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Compare encodes a and b into the shared arena and calls the comparator
// export. 0 means equal; the meaning of other results is up to the guest.
func (e *Evaluator) Compare(ctx context.Context, a, b value.Value) (int32, error) {
	h := e.host
	h.mu.Lock()
	defer h.mu.Unlock()

	addrs, err := h.encoder.EncodeAll(a, b)
	if err != nil {
		return 0, err
	}
	res, err := e.call(ctx, h.cfg.CompareExport, addrs[0], addrs[1])
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res), nil
}

// CompareAddr calls the comparator export on records already in the arena.
func (e *Evaluator) CompareAddr(ctx context.Context, a, b wasmejson.Address) (int32, error) {
	e.host.mu.Lock()
	defer e.host.mu.Unlock()

	res, err := e.call(ctx, e.host.cfg.CompareExport, a, b)
	if err != nil {
		return 0, err
	}
	return api.DecodeI32(res), nil
}

// Equal reports whether the comparator considers a and b equal.
func (e *Evaluator) Equal(ctx context.Context, a, b value.Value) (bool, error) {
	c, err := e.Compare(ctx, a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// CallAddr calls an export with record addresses and returns the address
// it produces.
func (e *Evaluator) CallAddr(ctx context.Context, export string, addrs ...wasmejson.Address) (wasmejson.Address, error) {
	e.host.mu.Lock()
	defer e.host.mu.Unlock()

	res, err := e.call(ctx, export, addrs...)
	if err != nil {
		return 0, err
	}
	return api.DecodeU32(res), nil
}

// CallValue encodes args, calls export with their addresses and decodes
// the record the export returns.
func (e *Evaluator) CallValue(ctx context.Context, export string, args ...value.Value) (value.Value, error) {
	h := e.host
	h.mu.Lock()
	defer h.mu.Unlock()

	addrs, err := h.encoder.EncodeAll(args...)
	if err != nil {
		return nil, err
	}
	res, err := e.call(ctx, export, addrs...)
	if err != nil {
		return nil, err
	}
	v, err := h.decoder.Decode(api.DecodeU32(res))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEvaluate, errors.KindOf(err), err, "decode result of "+export)
	}
	return v, nil
}

// call invokes export with i32 address parameters. The caller holds the
// host lock.
func (e *Evaluator) call(ctx context.Context, export string, addrs ...wasmejson.Address) (uint64, error) {
	fn := e.module.ExportedFunction(export)
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseEvaluate, "export", export)
	}
	if err := checkSignature(export, fn.Definition(), len(addrs)); err != nil {
		return 0, err
	}

	params := make([]uint64, len(addrs))
	for i, a := range addrs {
		params[i] = api.EncodeU32(a)
	}

	Logger().Debug("calling evaluator",
		zap.String("export", export),
		zap.Uint32s("addrs", addrs),
		zap.Uint32("cursor", e.host.arena.Cursor()))

	res, err := fn.Call(ctx, params...)
	if err != nil {
		Logger().Warn("evaluator trapped", zap.String("export", export), zap.Error(err))
		return 0, errors.Trap(export, err)
	}
	return res[0], nil
}

func checkSignature(export string, def api.FunctionDefinition, arity int) error {
	params := def.ParamTypes()
	results := def.ResultTypes()
	if len(params) != arity {
		return errors.New(errors.PhaseEvaluate, errors.KindInvalidInput).
			Detail("export %q takes %d parameters, called with %d", export, len(params), arity).
			Build()
	}
	for _, p := range params {
		if p != api.ValueTypeI32 {
			return errors.New(errors.PhaseEvaluate, errors.KindInvalidInput).
				Detail("export %q has a %s parameter, want i32 addresses", export, api.ValueTypeName(p)).
				Build()
		}
	}
	if len(results) != 1 || results[0] != api.ValueTypeI32 {
		return errors.New(errors.PhaseEvaluate, errors.KindInvalidInput).
			Detail("export %q must return one i32", export).
			Build()
	}
	return nil
}

// Close releases the guest instance.
func (e *Evaluator) Close(ctx context.Context) error {
	if err := e.module.Close(ctx); err != nil {
		return err
	}
	return e.compiled.Close(ctx)
}
