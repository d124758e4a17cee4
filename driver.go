package mson

import (
	"encoding/json"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Driver converts between JSON text and Go values via a pluggable SPI. The
// default implementation is based on goccy/go-json and may be swapped with
// SetDriver (for example to the encoding/json-backed StdlibDriver).
type Driver interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var (
	driverMu      sync.RWMutex
	currentDriver Driver = goJSONDriver{}
)

// SetDriver replaces the global JSON driver; nil values are ignored.
func SetDriver(d Driver) {
	if d == nil {
		return
	}
	driverMu.Lock()
	currentDriver = d
	driverMu.Unlock()
}

// UseDefaultDriver restores the default goccy/go-json-backed driver.
func UseDefaultDriver() {
	driverMu.Lock()
	currentDriver = goJSONDriver{}
	driverMu.Unlock()
}

// StdlibDriver returns a Driver backed by encoding/json.
func StdlibDriver() Driver { return stdlibDriver{} }

func getDriver() Driver {
	driverMu.RLock()
	d := currentDriver
	driverMu.RUnlock()
	return d
}

// goJSONDriver wraps the goccy/go-json implementation.
type goJSONDriver struct{}

func (goJSONDriver) Marshal(v any) ([]byte, error)   { return gojson.Marshal(v) }
func (goJSONDriver) Unmarshal(b []byte, v any) error { return gojson.Unmarshal(b, v) }
func (goJSONDriver) Name() string                    { return "go-json" }

// stdlibDriver wraps the encoding/json implementation.
type stdlibDriver struct{}

func (stdlibDriver) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (stdlibDriver) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
func (stdlibDriver) Name() string                    { return "encoding/json" }
