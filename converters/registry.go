package converters

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/darianmavgo/benchsql/converters/common"
)

var ErrUnknownDriver = errors.New("converters: unknown driver")

var (
	driversMu  sync.RWMutex
	drivers    = make(map[string]common.Driver)
	extensions = make(map[string]string) // extension -> driver name
)

// Register makes a converter driver available by the provided name and
// claims the given file extensions for it. Extensions match case-sensitively,
// the same way discovery filters file names.
// If Register is called twice with the same name, if driver is nil, or if an
// extension is already claimed, it panics.
func Register(name string, driver common.Driver, exts ...string) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("converters: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("converters: Register called twice for driver " + name)
	}
	for _, ext := range exts {
		if owner, dup := extensions[ext]; dup {
			panic("converters: extension " + ext + " already registered by " + owner)
		}
	}
	drivers[name] = driver
	for _, ext := range exts {
		extensions[ext] = name
	}
}

// DriverForPath returns the name of the driver registered for the
// extension of path.
func DriverForPath(path string) (string, error) {
	ext := filepath.Ext(path)
	driversMu.RLock()
	name, ok := extensions[ext]
	driversMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w for extension %q", ErrUnknownDriver, ext)
	}
	return name, nil
}

// Open opens a converter by driver name and source reader.
func Open(driverName string, source io.Reader, config *common.ConversionConfig) (common.Converter, error) {
	driversMu.RLock()
	driver, ok := drivers[driverName]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownDriver, driverName)
	}
	return driver.Open(source, config)
}

// Drivers returns a sorted list of the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}
