package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tensor/bridge"
	"github.com/wippyai/wasm-tensor/errors"
)

// DefaultModuleName is the import module guests link the tensor functions
// against.
const DefaultModuleName = "wasm:tensor/ops@0.1.0"

// Func describes one exported host function.
type Func struct {
	Handler api.GoModuleFunc
	Name    string
	Params  []wit.Type
	Results []wit.Type
}

// ParamTypes returns the flattened core parameter types.
func (f Func) ParamTypes() []api.ValueType {
	return FlattenTypes(f.Params)
}

// ResultTypes returns the flattened core result types.
func (f Func) ResultTypes() []api.ValueType {
	return FlattenTypes(f.Results)
}

// Module exposes a bridge to guests as a wazero host module.
type Module struct {
	bridge *bridge.Bridge
	logger *zap.Logger
	tensor *wit.TypeDef
	name   string
	funcs  []Func
}

// Option configures a Module.
type Option func(*Module)

// WithName overrides DefaultModuleName.
func WithName(name string) Option {
	return func(m *Module) { m.name = name }
}

// WithLogger sets the module logger. Defaults to bridge.Logger().
func WithLogger(l *zap.Logger) Option {
	return func(m *Module) { m.logger = l }
}

// New creates the host module for b.
func New(b *bridge.Bridge, opts ...Option) (*Module, error) {
	if b == nil {
		return nil, errors.NilPointer(errors.PhaseHost, "*bridge.Bridge")
	}

	typeName := b.TypeName()
	m := &Module{
		bridge: b,
		name:   DefaultModuleName,
		tensor: &wit.TypeDef{Name: &typeName, Kind: &wit.Resource{}},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name == "" {
		return nil, errors.InvalidInput(errors.PhaseHost, "module name is empty")
	}
	if m.logger == nil {
		m.logger = bridge.Logger()
	}
	m.funcs = m.define()
	return m, nil
}

// Name returns the import module name.
func (m *Module) Name() string {
	return m.name
}

// Bridge returns the bridge the functions operate on.
func (m *Module) Bridge() *bridge.Bridge {
	return m.bridge
}

// Definitions returns the exported functions in export order.
func (m *Module) Definitions() []Func {
	out := make([]Func, len(m.funcs))
	copy(out, m.funcs)
	return out
}

// Instantiate builds the host module into rt.
func (m *Module) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(m.name)
	for _, f := range m.funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.ParamTypes(), f.ResultTypes()).
			Export(f.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(errors.PhaseHost, "host module", m.name, err)
	}
	m.logger.Debug("tensor host module instantiated",
		zap.String("module", m.name),
		zap.Int("functions", len(m.funcs)),
	)
	return mod, nil
}

func (m *Module) own() *wit.TypeDef {
	return &wit.TypeDef{Kind: &wit.Own{Type: m.tensor}}
}

func (m *Module) borrow() *wit.TypeDef {
	return &wit.TypeDef{Kind: &wit.Borrow{Type: m.tensor}}
}

// Call runs an exported function the way an importing guest reaches it:
// core arguments in, core results out, through the same value stack wazero
// hands the handler. mod is the module returned by Instantiate. wazero does
// not allow calling a host module's exports from Go directly.
func (m *Module) Call(ctx context.Context, mod api.Module, name string, args ...uint64) ([]uint64, error) {
	var fn *Func
	for i := range m.funcs {
		if m.funcs[i].Name == name {
			fn = &m.funcs[i]
			break
		}
	}
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("function %q not exported by %s", name, m.name))
	}

	params, results := fn.ParamTypes(), fn.ResultTypes()
	if len(args) != len(params) {
		return nil, errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("%s takes %d arguments, got %d", name, len(params), len(args)))
	}

	stack := make([]uint64, max(len(params), len(results)))
	copy(stack, args)
	fn.Handler(ctx, mod, stack)
	return stack[:len(results)], nil
}
