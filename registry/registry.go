// Package registry resolves plugin names to loaded stage factories, creates
// and destroys stage instances on demand, and tracks every live instance so
// shutdown can guarantee nothing is leaked.
package registry

import (
	"fmt"
	"plugin"
	"sync"

	runtimeerrors "github.com/flowmesh/runtime/errors"
	"github.com/flowmesh/runtime/stage"
)

// Handle identifies one created stage instance. It is opaque to callers.
type Handle uint64

type loadedPlugin struct {
	factory stage.Factory
	path    string // empty for in-process registrations
}

type liveInstance struct {
	pluginName string
	instance   stage.Instance
}

// Registry loads plugins lazily, instantiates and destroys stage instances,
// and serialises all mutation of its loaded-plugin map and live-instance
// list behind a single mutex. Stage execution itself runs outside the lock.
type Registry struct {
	pluginDir string

	mu       sync.Mutex
	plugins  map[string]*loadedPlugin
	live     map[Handle]liveInstance
	nextID   uint64
	shutdown bool
}

// New creates a registry that resolves relative plugin paths against
// pluginDir. pluginDir may be empty if every plugin is registered
// in-process via RegisterFactory.
func New(pluginDir string) *Registry {
	return &Registry{
		pluginDir: pluginDir,
		plugins:   make(map[string]*loadedPlugin),
		live:      make(map[Handle]liveInstance),
	}
}

// RegisterFactory registers an in-process factory under name, bypassing the
// dynamic-library loading path entirely. Used by sample stage plugins that
// are compiled directly into the binary rather than shipped as .so files.
func (r *Registry) RegisterFactory(name string, factory stage.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = &loadedPlugin{factory: factory}
}

// CreateStage resolves pluginName to a loaded factory (loading it on first
// use if it refers to a dynamic library), calls the factory, and — if the
// resulting instance implements Configurable — delivers cfg to it,
// destroying the instance if it rejects. On success the instance is
// recorded and a handle returned.
func (r *Registry) CreateStage(pluginName string, cfg map[string]any) (Handle, stage.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return 0, nil, runtimeerrors.PluginLoadError(pluginName, fmt.Errorf("registry is shut down"))
	}

	lp, ok := r.plugins[pluginName]
	if !ok {
		loaded, err := r.loadDynamicLocked(pluginName)
		if err != nil {
			return 0, nil, runtimeerrors.PluginLoadError(pluginName, err)
		}
		lp = loaded
		r.plugins[pluginName] = lp
	}

	instance, err := lp.factory(cfg)
	if err != nil {
		return 0, nil, runtimeerrors.StageInstantiateError(pluginName, err)
	}
	if instance == nil {
		return 0, nil, runtimeerrors.StageInstantiateError(pluginName, fmt.Errorf("factory returned nil instance"))
	}

	if configurable, ok := instance.(stage.Configurable); ok {
		if err := configurable.Configure(cfg); err != nil {
			_ = instance.Close()
			return 0, nil, runtimeerrors.StageInstantiateError(pluginName, fmt.Errorf("configuration rejected: %w", err))
		}
	}

	r.nextID++
	handle := Handle(r.nextID)
	r.live[handle] = liveInstance{pluginName: pluginName, instance: instance}
	return handle, instance, nil
}

// loadDynamicLocked resolves pluginName to a .so path (absolute as given,
// or relative to the registry's plugin directory), opens it, and resolves
// its CreateStage/DestroyStage symbols into a stage.Factory. Must be called
// with r.mu held.
func (r *Registry) loadDynamicLocked(pluginName string) (*loadedPlugin, error) {
	path := pluginName
	if !isAbsOrExplicitRelative(path) && r.pluginDir != "" {
		path = r.pluginDir + "/" + path
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin %q: %w", path, err)
	}

	createSym, err := p.Lookup("CreateStage")
	if err != nil {
		return nil, fmt.Errorf("plugin %q missing CreateStage symbol: %w", path, err)
	}
	create, ok := createSym.(func(map[string]any) (stage.Instance, error))
	if !ok {
		return nil, fmt.Errorf("plugin %q CreateStage has unexpected signature", path)
	}

	// DestroyStage is resolved for ABI compliance; teardown is delegated to
	// each instance's own Close, which plugin authors implement to call it.
	if _, err := p.Lookup("DestroyStage"); err != nil {
		return nil, fmt.Errorf("plugin %q missing DestroyStage symbol: %w", path, err)
	}

	return &loadedPlugin{factory: stage.Factory(create), path: path}, nil
}

func isAbsOrExplicitRelative(path string) bool {
	if len(path) == 0 {
		return false
	}
	if path[0] == '/' {
		return true
	}
	if len(path) >= 2 && path[0] == '.' && (path[1] == '/' || (len(path) >= 3 && path[1] == '.' && path[2] == '/')) {
		return true
	}
	return false
}

// DestroyStage closes the instance identified by handle and removes its
// record. Unknown handles are a no-op.
func (r *Registry) DestroyStage(handle Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.live[handle]
	if !ok {
		return nil
	}
	delete(r.live, handle)
	return inst.instance.Close()
}

// Shutdown destroys every remaining live instance and clears the plugin
// map. Idempotent.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return nil
	}
	r.shutdown = true

	var firstErr error
	for handle, inst := range r.live {
		if err := inst.instance.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.live, handle)
	}
	r.plugins = make(map[string]*loadedPlugin)
	return firstErr
}

// LiveCount returns the number of instances currently tracked as live.
// Used by tests to assert create/destroy symmetry.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
