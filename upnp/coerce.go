package upnp

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DataType is one of the closed set of UPnP state-variable type tags.
type DataType string

// The UPnP data types named in spec.md §3.
const (
	TypeUI1        DataType = "ui1"
	TypeUI2        DataType = "ui2"
	TypeUI4        DataType = "ui4"
	TypeI1         DataType = "i1"
	TypeI2         DataType = "i2"
	TypeI4         DataType = "i4"
	TypeInt        DataType = "int"
	TypeR4         DataType = "r4"
	TypeR8         DataType = "r8"
	TypeNumber     DataType = "number"
	TypeFixed14_4  DataType = "fixed.14.4"
	TypeFloat      DataType = "float"
	TypeChar       DataType = "char"
	TypeString     DataType = "string"
	TypeDate       DataType = "date"
	TypeDateTime   DataType = "dateTime"
	TypeDateTimeTZ DataType = "dateTime.tz"
	TypeTime       DataType = "time"
	TypeTimeTZ     DataType = "time.tz"
	TypeBoolean    DataType = "boolean"
	TypeBinBase64  DataType = "bin.base64"
	TypeBinHex     DataType = "bin.hex"
	TypeURI        DataType = "uri"
	TypeUUID       DataType = "uuid"
)

var validDataTypes = map[DataType]bool{
	TypeUI1: true, TypeUI2: true, TypeUI4: true,
	TypeI1: true, TypeI2: true, TypeI4: true, TypeInt: true,
	TypeR4: true, TypeR8: true, TypeNumber: true, TypeFixed14_4: true, TypeFloat: true,
	TypeChar: true, TypeString: true,
	TypeDate: true, TypeDateTime: true, TypeDateTimeTZ: true, TypeTime: true, TypeTimeTZ: true,
	TypeBoolean: true, TypeBinBase64: true, TypeBinHex: true,
	TypeURI: true, TypeUUID: true,
}

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	timeTZLayout   = "15:04:05Z07:00"
	dateTimeLayout = "2006-01-02T15:04:05"
	dateTimeTZFmt  = "2006-01-02T15:04:05Z07:00"
)

// Parse converts the textual representation t of data type dt into a host
// value, failing with *ValueError on malformed input.
func Parse(dt DataType, t string) (any, error) {
	trimmed := strings.TrimSpace(t)
	switch dt {
	case TypeUI1, TypeUI2, TypeUI4:
		v, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid %s value %q: %v", dt, t, err)}
		}
		return v, nil
	case TypeI1, TypeI2, TypeI4, TypeInt:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid %s value %q: %v", dt, t, err)}
		}
		return v, nil
	case TypeR4, TypeR8, TypeNumber, TypeFloat, TypeFixed14_4:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid %s value %q: %v", dt, t, err)}
		}
		return v, nil
	case TypeChar:
		r := []rune(trimmed)
		if len(r) != 1 {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid char value %q: must be exactly one rune", t)}
		}
		return r[0], nil
	case TypeString, TypeURI, TypeUUID:
		return t, nil
	case TypeBoolean:
		switch trimmed {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no":
			return false, nil
		default:
			return nil, &ValueError{Msg: fmt.Sprintf("invalid boolean value %q", t)}
		}
	case TypeDate:
		v, err := time.Parse(dateLayout, trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid date value %q: %v", t, err)}
		}
		return v, nil
	case TypeDateTime:
		v, err := time.Parse(dateTimeLayout, trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid dateTime value %q: %v", t, err)}
		}
		return v, nil
	case TypeDateTimeTZ:
		v, err := time.Parse(dateTimeTZFmt, trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid dateTime.tz value %q: %v", t, err)}
		}
		return v, nil
	case TypeTime:
		v, err := time.Parse(timeLayout, trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid time value %q: %v", t, err)}
		}
		return v, nil
	case TypeTimeTZ:
		v, err := time.Parse(timeTZLayout, trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid time.tz value %q: %v", t, err)}
		}
		return v, nil
	case TypeBinBase64:
		v, err := base64.StdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid bin.base64 value: %v", err)}
		}
		return v, nil
	case TypeBinHex:
		v, err := hex.DecodeString(trimmed)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid bin.hex value: %v", err)}
		}
		return v, nil
	default:
		return nil, &ValueError{Msg: fmt.Sprintf("unknown data type %q", dt)}
	}
}

// Render converts a host value produced by Parse (or constructed directly)
// back to its canonical textual form for the given data type.
func Render(dt DataType, v any) (string, error) {
	switch dt {
	case TypeUI1, TypeUI2, TypeUI4:
		switch n := v.(type) {
		case uint64:
			return strconv.FormatUint(n, 10), nil
		case int:
			return strconv.FormatUint(uint64(n), 10), nil
		}
	case TypeI1, TypeI2, TypeI4, TypeInt:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case int:
			return strconv.FormatInt(int64(n), 10), nil
		}
	case TypeR4, TypeR8, TypeNumber, TypeFloat, TypeFixed14_4:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		case float32:
			return strconv.FormatFloat(float64(n), 'f', -1, 32), nil
		}
	case TypeChar:
		if r, ok := v.(rune); ok {
			return string(r), nil
		}
	case TypeString, TypeURI, TypeUUID:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return "1", nil
			}
			return "0", nil
		}
	case TypeDate:
		if t, ok := v.(time.Time); ok {
			return t.Format(dateLayout), nil
		}
	case TypeDateTime:
		if t, ok := v.(time.Time); ok {
			return t.Format(dateTimeLayout), nil
		}
	case TypeDateTimeTZ:
		if t, ok := v.(time.Time); ok {
			return t.Format(dateTimeTZFmt), nil
		}
	case TypeTime:
		if t, ok := v.(time.Time); ok {
			return t.Format(timeLayout), nil
		}
	case TypeTimeTZ:
		if t, ok := v.(time.Time); ok {
			return t.Format(timeTZLayout), nil
		}
	case TypeBinBase64:
		if b, ok := v.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
	case TypeBinHex:
		if b, ok := v.([]byte); ok {
			return strings.ToLower(hex.EncodeToString(b)), nil
		}
	}
	return "", &ValueError{Msg: fmt.Sprintf("cannot render %T as %s", v, dt)}
}

// StateVariable is a typed, named datum on a service. Current is mutated by
// action handlers running on arbitrary goroutines; mu confines those
// writes per SPEC_FULL §5's substitution of a per-variable sync.RWMutex
// for the source's single-threaded event loop.
type StateVariable struct {
	Name         string
	DataType     DataType
	SendEvents   bool
	AllowedValue []string
	Minimum      *float64
	Maximum      *float64
	Default      string

	mu      sync.RWMutex
	current string
}

// NewStateVariable constructs a state variable with the given default
// value, validated against its data type. The constructor sets no range or
// allowed-value list; constraints assigned afterwards are not checked
// against the default or the current value until the next Set.
func NewStateVariable(name string, dt DataType, sendEvents bool, defaultValue string) (*StateVariable, error) {
	if !validDataTypes[dt] {
		return nil, &ConfigError{Msg: fmt.Sprintf("unknown data type %q for state variable %q", dt, name)}
	}
	v := &StateVariable{Name: name, DataType: dt, SendEvents: sendEvents, Default: defaultValue}
	if defaultValue != "" {
		if err := v.Set(defaultValue); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Current returns the current textual value.
func (v *StateVariable) Current() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set parses and validates t, then stores it as the current value. It
// enforces the allowed-value list and numeric min/max range invariants of
// spec.md §3.
func (v *StateVariable) Set(t string) error {
	parsed, err := Parse(v.DataType, t)
	if err != nil {
		return err
	}
	if len(v.AllowedValue) > 0 {
		ok := false
		for _, allowed := range v.AllowedValue {
			if allowed == t {
				ok = true
				break
			}
		}
		if !ok {
			return &ValueError{Msg: fmt.Sprintf("value %q not in allowed value list for %q", t, v.Name)}
		}
	}
	if v.Minimum != nil || v.Maximum != nil {
		f, ok := toFloat(parsed)
		if !ok {
			return &ValueError{Msg: fmt.Sprintf("range constraint on non-numeric state variable %q", v.Name)}
		}
		if v.Minimum != nil && f < *v.Minimum {
			return &ValueError{Msg: fmt.Sprintf("value %v below minimum %v for %q", f, *v.Minimum, v.Name)}
		}
		if v.Maximum != nil && f > *v.Maximum {
			return &ValueError{Msg: fmt.Sprintf("value %v above maximum %v for %q", f, *v.Maximum, v.Name)}
		}
	}
	v.mu.Lock()
	v.current = t
	v.mu.Unlock()
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case uint64:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
