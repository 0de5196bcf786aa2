package upnp

import "fmt"

// ArgSpec declares one argument of an action being bound: its name and the
// state variable (already registered on the service) it takes its type
// from. Direction is implied by which of BindAction's in/out lists it
// appears in.
type ArgSpec struct {
	Name                 string
	RelatedStateVariable string
}

// BindAction is the explicit builder spec.md §9 calls for in place of
// reflective/decorator-based binding. It validates that every argument's
// related state variable exists on the service and that in-argument names
// are unique, then installs handler as the action's dispatch target.
// Validation failures are returned as *ConfigError and are meant to be
// fatal at startup.
func BindAction(s *Service, name string, in, out []ArgSpec, handler ActionFunc) error {
	seen := make(map[string]bool, len(in))
	var args []*Argument

	for _, spec := range in {
		if seen[spec.Name] {
			return &ConfigError{Msg: fmt.Sprintf("action %q: duplicate in-argument name %q", name, spec.Name)}
		}
		seen[spec.Name] = true

		sv, ok := s.StateVariable(spec.RelatedStateVariable)
		if !ok {
			return &ConfigError{Msg: fmt.Sprintf("action %q: in-argument %q references unknown state variable %q", name, spec.Name, spec.RelatedStateVariable)}
		}
		args = append(args, &Argument{
			Name:                 spec.Name,
			Direction:            In,
			RelatedStateVariable: spec.RelatedStateVariable,
			stateVar:             sv,
		})
	}

	for _, spec := range out {
		sv, ok := s.StateVariable(spec.RelatedStateVariable)
		if !ok {
			return &ConfigError{Msg: fmt.Sprintf("action %q: out-argument %q references unknown state variable %q", name, spec.Name, spec.RelatedStateVariable)}
		}
		args = append(args, &Argument{
			Name:                 spec.Name,
			Direction:            Out,
			RelatedStateVariable: spec.RelatedStateVariable,
			stateVar:             sv,
		})
	}

	if handler == nil {
		return &ConfigError{Msg: fmt.Sprintf("action %q: handler must not be nil", name)}
	}

	a := &Action{Name: name, Arguments: args, handler: handler}
	return s.addAction(a)
}
