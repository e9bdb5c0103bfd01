package device

import (
	"sort"
	"sync"

	"github.com/born-ml/opcheck/internal/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrUnknownDevice is returned when a placement type is bound to no driver,
// or bound to a driver nobody registered.
var ErrUnknownDevice = errors.New("unknown device")

// ErrUnavailable is returned by drivers whose hardware or runtime library is
// not present on this machine.
var ErrUnavailable = errors.New("device unavailable")

// Driver opens a backend for a placement.
type Driver func(p Place) (tensor.Backend, error)

// DefaultBindings maps the known custom placement types to drivers.
var DefaultBindings = map[string]string{
	"cpu":        "cpu",
	"custom_cpu": "cpu",
	"mlu":        "cpu",
	"npu":        "cpu",
	"webgpu":     "webgpu",
}

var (
	mu       sync.RWMutex
	drivers  = make(map[string]Driver)
	bindings = cloneBindings(DefaultBindings)
)

func cloneBindings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Register a driver under name. Call it from a package init function.
func Register(name string, driver Driver) {
	mu.Lock()
	defer mu.Unlock()
	drivers[name] = driver
	klog.V(1).Infof("device: registered driver %q", name)
}

// Bind routes placements of deviceType to the named driver.
func Bind(deviceType, driver string) {
	mu.Lock()
	defer mu.Unlock()
	bindings[deviceType] = driver
}

// ResetBindings restores DefaultBindings.
func ResetBindings() {
	mu.Lock()
	defer mu.Unlock()
	bindings = cloneBindings(DefaultBindings)
}

// DriverFor returns the driver name bound to the placement type.
func DriverFor(deviceType string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	name, ok := bindings[deviceType]
	return name, ok
}

// Open returns a backend for p. Backends that implement tensor.Releaser
// should be released with Close when no longer needed.
func Open(p Place) (tensor.Backend, error) {
	mu.RLock()
	name, bound := bindings[p.Type]
	driver, registered := drivers[name]
	mu.RUnlock()

	if !bound {
		return nil, errors.Wrapf(ErrUnknownDevice, "placement %s is not bound to a driver", p)
	}
	if !registered {
		return nil, errors.Wrapf(ErrUnknownDevice, "placement %s: driver %q is not registered", p, name)
	}
	b, err := driver(p)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s with driver %q", p, name)
	}
	klog.V(1).Infof("device: opened %s on %s", p, b.Name())
	return b, nil
}

// Close releases backend resources if the backend holds any.
func Close(b tensor.Backend) {
	if r, ok := b.(tensor.Releaser); ok {
		r.Release()
	}
}

// Drivers returns the names of the registered drivers, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bindings returns a copy of the placement type → driver table.
func Bindings() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	return cloneBindings(bindings)
}
