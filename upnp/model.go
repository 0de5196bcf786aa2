// Package upnp holds the in-memory device/service metadata graph that a
// server advertises over SSDP and exposes over HTTP: devices, embedded
// devices, services, state variables and actions, plus the type coercion
// and action-binding machinery that plug user code into them.
package upnp

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Icon describes one entry of a device's iconList.
type Icon struct {
	MimeType string
	Width    int
	Height   int
	Depth    int
	URL      string
}

// Device is a node in the device tree. The root device owns its subtree of
// embedded devices and services; embedded devices reference the same root.
type Device struct {
	UDN              string
	DeviceType       string
	FriendlyName     string
	Manufacturer     string
	ManufacturerURL  string
	ModelDescription string
	ModelName        string
	ModelNumber      string
	ModelURL         string
	SerialNumber     string
	UPC              string
	PresentationURL  string
	Icons            []Icon

	// BaseURI is the HTTP origin ("http://host:port", IPv6 literals
	// bracketed) descriptions and control URLs are served at. Only ever
	// set on the root; embedded devices resolve it through Root().
	BaseURI string

	// serviceNames/deviceNames preserve insertion order; services/devices
	// hold the actual nodes keyed by name.
	serviceNames []string
	services     map[string]*Service
	deviceNames  []string
	devices      map[string]*Device

	root *Device
}

// NewDevice constructs a root device. udn must be globally unique across
// the tree it roots; deviceType is a urn:schemas-upnp-org:device:... URN.
func NewDevice(udn, deviceType string) *Device {
	d := &Device{
		UDN:        udn,
		DeviceType: deviceType,
		services:   make(map[string]*Service),
		devices:    make(map[string]*Device),
	}
	d.root = d
	return d
}

// Root returns the root device of the tree this device belongs to.
func (d *Device) Root() *Device { return d.root }

// AddService inserts a service under this device, keyed by name. It is an
// error (returned, not panicked) to reuse a name.
func (d *Device) AddService(name string, s *Service) error {
	if _, exists := d.services[name]; exists {
		return &ConfigError{Msg: fmt.Sprintf("duplicate service name %q on device %q", name, d.UDN)}
	}
	s.owner = d
	d.services[name] = s
	d.serviceNames = append(d.serviceNames, name)
	return nil
}

// AddDevice inserts an embedded device under this device, keyed by name.
// The embedded device's root is rebound to this device's root.
func (d *Device) AddDevice(name string, child *Device) error {
	if _, exists := d.devices[name]; exists {
		return &ConfigError{Msg: fmt.Sprintf("duplicate embedded device name %q on device %q", name, d.UDN)}
	}
	child.root = d.root
	d.devices[name] = child
	d.deviceNames = append(d.deviceNames, name)
	return nil
}

// Services returns the device's own services in insertion order.
func (d *Device) Services() []*Service {
	out := make([]*Service, 0, len(d.serviceNames))
	for _, n := range d.serviceNames {
		out = append(out, d.services[n])
	}
	return out
}

// EmbeddedDevices returns the device's direct children in insertion order.
func (d *Device) EmbeddedDevices() []*Device {
	out := make([]*Device, 0, len(d.deviceNames))
	for _, n := range d.deviceNames {
		out = append(out, d.devices[n])
	}
	return out
}

// AllDevices returns the root first, then every embedded device in
// depth-first insertion order — the enumeration §4.C and §4.E/§4.F are
// driven by.
func (d *Device) AllDevices() []*Device {
	root := d.root
	out := []*Device{root}
	var walk func(*Device)
	walk = func(n *Device) {
		for _, c := range n.EmbeddedDevices() {
			out = append(out, c)
			walk(c)
		}
	}
	walk(root)
	return out
}

// AllServices returns the services of each device in AllDevices order.
func (d *Device) AllServices() []*Service {
	var out []*Service
	for _, dev := range d.AllDevices() {
		out = append(out, dev.Services()...)
	}
	return out
}

// Validate checks the invariants of spec.md §3: UDNs across the tree are
// pairwise distinct, and every device in the tree resolves Root() back to
// this tree's root. Every violation found is collected rather than
// returning on the first one, so a caller fixing a startup configuration
// error sees the whole list in one pass.
func (d *Device) Validate() error {
	root := d.root
	seen := make(map[string]bool)
	var result *multierror.Error
	for _, dev := range root.AllDevices() {
		if seen[dev.UDN] {
			result = multierror.Append(result, fmt.Errorf("duplicate UDN %q", dev.UDN))
		}
		seen[dev.UDN] = true
		if dev.root != root {
			result = multierror.Append(result, fmt.Errorf("device %q does not resolve to the tree root", dev.UDN))
		}
	}
	if result == nil {
		return nil
	}
	return &ConfigError{Msg: fmt.Sprintf("device tree validation failed: %v", result)}
}

// Service holds a service's state variables and actions. ControlURL,
// SCPDURL and EventSubURL are relative to the owning device's base URI.
type Service struct {
	ServiceType string
	ServiceID   string
	SCPDURL     string
	ControlURL  string
	EventSubURL string

	varNames    []string
	vars        map[string]*StateVariable
	actionNames []string
	actions     map[string]*Action

	owner *Device
}

// NewService constructs an empty service.
func NewService(serviceType, serviceID, scpdURL, controlURL, eventSubURL string) *Service {
	return &Service{
		ServiceType: serviceType,
		ServiceID:   serviceID,
		SCPDURL:     scpdURL,
		ControlURL:  controlURL,
		EventSubURL: eventSubURL,
		vars:        make(map[string]*StateVariable),
		actions:     make(map[string]*Action),
	}
}

// Owner returns the device this service is attached to, or nil if unattached.
func (s *Service) Owner() *Device { return s.owner }

// AddStateVariable registers a state variable under its Name.
func (s *Service) AddStateVariable(v *StateVariable) error {
	if _, exists := s.vars[v.Name]; exists {
		return &ConfigError{Msg: fmt.Sprintf("duplicate state variable name %q", v.Name)}
	}
	s.vars[v.Name] = v
	s.varNames = append(s.varNames, v.Name)
	return nil
}

// StateVariable looks up a state variable by name.
func (s *Service) StateVariable(name string) (*StateVariable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// StateVariables returns every state variable in insertion order.
func (s *Service) StateVariables() []*StateVariable {
	out := make([]*StateVariable, 0, len(s.varNames))
	for _, n := range s.varNames {
		out = append(out, s.vars[n])
	}
	return out
}

// addAction registers a built action under its Name; called by BindAction.
func (s *Service) addAction(a *Action) error {
	if _, exists := s.actions[a.Name]; exists {
		return &ConfigError{Msg: fmt.Sprintf("duplicate action name %q", a.Name)}
	}
	s.actions[a.Name] = a
	s.actionNames = append(s.actionNames, a.Name)
	return nil
}

// Action looks up a bound action by name.
func (s *Service) Action(name string) (*Action, bool) {
	a, ok := s.actions[name]
	return a, ok
}

// Actions returns every bound action in insertion order.
func (s *Service) Actions() []*Action {
	out := make([]*Action, 0, len(s.actionNames))
	for _, n := range s.actionNames {
		out = append(out, s.actions[n])
	}
	return out
}

// Direction marks whether an Argument flows into or out of an action call.
type Direction int

const (
	// In marks an argument supplied by the caller.
	In Direction = iota
	// Out marks an argument returned by the handler.
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Argument is one named, directioned, typed parameter of an Action.
type Argument struct {
	Name                 string
	Direction            Direction
	RelatedStateVariable string

	stateVar *StateVariable
}

// StateVariable returns the state variable this argument's type is bound
// to, resolved at bind time by BindAction.
func (a *Argument) StateVariable() *StateVariable { return a.stateVar }

// ActionFunc is a bound action handler. It receives the in-arguments coerced
// to host values (keyed by argument name) and returns out-argument values
// keyed by argument name, also as host values of the declared type.
type ActionFunc func(ctx context.Context, in map[string]any) (map[string]any, error)

// Action is a named RPC operation bound to a handler.
type Action struct {
	Name      string
	Arguments []*Argument
	handler   ActionFunc
}

// InArguments returns the action's in-direction arguments, in declared order.
func (a *Action) InArguments() []*Argument {
	var out []*Argument
	for _, arg := range a.Arguments {
		if arg.Direction == In {
			out = append(out, arg)
		}
	}
	return out
}

// OutArguments returns the action's out-direction arguments, in declared order.
func (a *Action) OutArguments() []*Argument {
	var out []*Argument
	for _, arg := range a.Arguments {
		if arg.Direction == Out {
			out = append(out, arg)
		}
	}
	return out
}

// Handler returns the bound handler installed by BindAction.
func (a *Action) Handler() ActionFunc { return a.handler }
