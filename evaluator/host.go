package evaluator

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/internal/wasmgen"
)

// DefaultCompareExport is the export Compare calls unless configured.
const DefaultCompareExport = "compare"

// Config holds configuration for a Host.
type Config struct {
	// Format is the tag domain values are encoded in.
	Format codec.Format

	// MemoryPages is the initial size of the shared memory in 64KB pages.
	// 0 means 1.
	MemoryPages uint32

	// MaxMemoryPages bounds memory growth. 0 means the runtime limit.
	MaxMemoryPages uint32

	// Base is the first address the host allocates.
	Base uint32

	// Growth decides whether the host grows memory when an encode does not
	// fit. Defaults to arena.GrowthFixed.
	Growth arena.GrowthPolicy

	// CompareExport names the comparator export. Defaults to
	// DefaultCompareExport.
	CompareExport string

	// MaxDepth bounds decoding of call results. 0 means
	// codec.DefaultMaxDepth; a negative value disables the limit.
	MaxDepth int
}

func (c Config) withDefaults() Config {
	if c.MemoryPages == 0 {
		c.MemoryPages = 1
	}
	if c.CompareExport == "" {
		c.CompareExport = DefaultCompareExport
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = codec.DefaultMaxDepth
	}
	return c
}

// Host owns a wazero runtime, the shared "memory" module a guest imports
// (memory "object" and mutable i32 global "alloc_p") and the arena laid
// over them. Every guest loaded into a Host sees the same records.
//
// Calls are serialized: the host and its guests share one cursor.
type Host struct {
	cfg     Config
	runtime wazero.Runtime
	shared  api.Module
	arena   *arena.Arena
	encoder *codec.Encoder
	decoder *codec.Decoder

	mu sync.Mutex
}

// New creates a runtime and instantiates the shared memory module.
func New(ctx context.Context, cfg Config) (*Host, error) {
	cfg = cfg.withDefaults()
	if cfg.MaxMemoryPages != 0 && cfg.MaxMemoryPages < cfg.MemoryPages {
		return nil, errors.InvalidInput(errors.PhaseEvaluate, "max memory pages below initial pages")
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MaxMemoryPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MaxMemoryPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	shared, err := rt.InstantiateWithConfig(ctx,
		wasmgen.MemoryHost(cfg.MemoryPages, cfg.MaxMemoryPages, cfg.Base),
		wazero.NewModuleConfig().WithName(wasmgen.MemoryModule))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Instantiation("shared memory module", err)
	}

	mem := shared.ExportedMemory(wasmgen.MemoryExport)
	cursor, ok := shared.ExportedGlobal(wasmgen.CursorExport).(api.MutableGlobal)
	if mem == nil || !ok {
		_ = rt.Close(ctx)
		return nil, errors.Instantiation("shared memory module lacks memory or cursor", nil)
	}

	a := arena.NewLinear(mem, cursor, arena.Options{
		Base:        cfg.Base,
		MaxCapacity: maxCapacity(cfg.MaxMemoryPages),
		Growth:      cfg.Growth,
	})

	Logger().Info("evaluator host ready",
		zap.Uint32("pages", cfg.MemoryPages),
		zap.Uint32("max_pages", cfg.MaxMemoryPages),
		zap.Uint32("base", cfg.Base),
		zap.Stringer("format", cfg.Format))

	return &Host{
		cfg:     cfg,
		runtime: rt,
		shared:  shared,
		arena:   a,
		encoder: codec.NewEncoder(a, cfg.Format),
		decoder: codec.NewDecoder(a, cfg.Format, codec.WithMaxDepth(cfg.MaxDepth)),
	}, nil
}

func maxCapacity(pages uint32) uint32 {
	if pages == 0 || uint64(pages)*arena.PageSize > 1<<32-1 {
		return 0
	}
	return pages * arena.PageSize
}

// Arena returns the arena over the shared memory. Callers that encode
// through it directly must not run concurrently with Host calls.
func (h *Host) Arena() *arena.Arena {
	return h.arena
}

// Encoder returns the encoder writing into the shared memory.
func (h *Host) Encoder() *codec.Encoder {
	return h.encoder
}

// Decoder returns the decoder reading the shared memory.
func (h *Host) Decoder() *codec.Decoder {
	return h.decoder
}

// Config returns the effective configuration.
func (h *Host) Config() Config {
	return h.cfg
}

// Load compiles and instantiates a guest module against the shared memory.
// Guests are instantiated anonymously, so one Host can load many.
func (h *Host) Load(ctx context.Context, wasm []byte) (*Evaluator, error) {
	compiled, err := h.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "compile evaluator")
	}

	mod, err := h.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Instantiation("instantiate evaluator", err)
	}

	Logger().Info("evaluator loaded",
		zap.Int("exports", len(compiled.ExportedFunctions())),
		zap.Int("bytes", len(wasm)))

	return &Evaluator{host: h, module: mod, compiled: compiled}, nil
}

// Close releases the runtime and every module loaded into it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}
