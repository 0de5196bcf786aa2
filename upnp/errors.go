package upnp

// ConfigError marks a fatal-at-startup configuration problem: a duplicate
// service, device, state-variable or action name, an unknown data type, an
// argument bound to a missing state variable, a duplicate in-argument name,
// a nil handler, or a device tree that fails Validate. BindAction does not
// check handler parameter types. Construction aborts when one is returned
// (spec.md §7).
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ValueError marks an argument that failed the typed coercion of §4.A,
// either during SOAP argument parsing or during a direct StateVariable.Set
// call. Surfaced by the SOAP dispatcher as fault code 402.
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string { return e.Msg }

// ActionError is returned by an action handler to signal a specific UPnP
// fault code. A zero Code means "unset" and falls through to the generic
// 501 ("Action Failed") — see DESIGN.md's Open Question decisions.
type ActionError struct {
	Code int
	Msg  string
}

func (e *ActionError) Error() string { return e.Msg }

// NewActionError constructs an ActionError with an explicit UPnP error code.
func NewActionError(code int, msg string) *ActionError {
	return &ActionError{Code: code, Msg: msg}
}

// DefaultActionErrorCode is the fault code used when an ActionError's Code
// is unset (zero) or when a handler returns a plain, untyped error.
const DefaultActionErrorCode = 501

// InvalidArgsErrorCode is the fault code used for argument coercion failures.
const InvalidArgsErrorCode = 402

// FaultCode derives the SOAP fault error code for a handler error per
// spec.md §4.H point 6 / §7, and original_source/async_upnp_client/server.py's
// `error_code or UpnpActionErrorCode.ACTION_FAILED.value` expression.
func FaultCode(err error) int {
	switch e := err.(type) {
	case *ActionError:
		if e.Code != 0 {
			return e.Code
		}
		return DefaultActionErrorCode
	case *ValueError:
		return InvalidArgsErrorCode
	default:
		return DefaultActionErrorCode
	}
}
