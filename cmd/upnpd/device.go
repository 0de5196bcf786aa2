package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/upnpstack/upnpd/upnp"
)

// buildReferenceDevice constructs the demo device tree: a dimmable-light
// root device with SwitchPower-like and Dimming-like services and one
// embedded sensor device carrying a SecuritySensor-like service,
// grounded on the DummyUpnpServerDevice pattern described in
// async_upnp_client/server.py's module docstring and mirrored by the
// S1-S6 scenarios of spec.md §8. This concrete device lives outside the
// CORE budget (spec.md §1 Non-goals: "construction of concrete sample
// devices") but makes the repository runnable end to end.
func buildReferenceDevice(serverName string) (*upnp.Device, error) {
	root := upnp.NewDevice("uuid:"+uuid.NewString(), "urn:schemas-upnp-org:device:DimmableLight:1")
	root.FriendlyName = serverName
	root.Manufacturer = "upnpstack"
	root.ModelName = "Reference Dimmable Light"
	root.ModelDescription = "Demo UPnP device exercising the full server stack"

	svc, err := buildSwitchPowerService()
	if err != nil {
		return nil, fmt.Errorf("building SwitchPower service: %w", err)
	}
	if err := root.AddService("SwitchPower", svc); err != nil {
		return nil, err
	}

	dimSvc, err := buildDimmingService()
	if err != nil {
		return nil, fmt.Errorf("building Dimming service: %w", err)
	}
	if err := root.AddService("Dimming", dimSvc); err != nil {
		return nil, err
	}

	child := upnp.NewDevice("uuid:"+uuid.NewString(), "urn:schemas-upnp-org:device:SimpleSensor:1")
	child.FriendlyName = serverName + " Sensor"
	child.Manufacturer = root.Manufacturer
	child.ModelName = "Reference Occupancy Sensor"
	sensorSvc, err := buildSensorService()
	if err != nil {
		return nil, fmt.Errorf("building sensor service: %w", err)
	}
	if err := child.AddService("SecuritySensor", sensorSvc); err != nil {
		return nil, err
	}
	if err := root.AddDevice("sensor", child); err != nil {
		return nil, err
	}

	return root, nil
}

// buildSwitchPowerService mirrors the UPnP SwitchPower:1 service used by
// spec.md's S5/S6 scenarios: a boolean Target/Status pair with
// SetTarget/GetTarget/GetStatus actions.
func buildSwitchPowerService() (*upnp.Service, error) {
	svc := upnp.NewService(
		"urn:schemas-upnp-org:service:SwitchPower:1",
		"urn:upnp-org:serviceId:SwitchPower1",
		"/scpd/switchpower.xml",
		"/control/switchpower",
		"/event/switchpower",
	)

	target, err := upnp.NewStateVariable("Target", upnp.TypeBoolean, false, "0")
	if err != nil {
		return nil, err
	}
	status, err := upnp.NewStateVariable("Status", upnp.TypeBoolean, true, "0")
	if err != nil {
		return nil, err
	}
	if err := svc.AddStateVariable(target); err != nil {
		return nil, err
	}
	if err := svc.AddStateVariable(status); err != nil {
		return nil, err
	}

	err = upnp.BindAction(svc, "SetTarget",
		[]upnp.ArgSpec{{Name: "NewTargetValue", RelatedStateVariable: "Target"}},
		nil,
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			on, _ := in["NewTargetValue"].(bool)
			text := "0"
			if on {
				text = "1"
			}
			if err := target.Set(text); err != nil {
				return nil, err
			}
			if err := status.Set(text); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}

	err = upnp.BindAction(svc, "GetTarget",
		nil,
		[]upnp.ArgSpec{{Name: "RetTargetValue", RelatedStateVariable: "Target"}},
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			v, err := upnp.Parse(upnp.TypeBoolean, target.Current())
			if err != nil {
				return nil, err
			}
			return map[string]any{"RetTargetValue": v}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	err = upnp.BindAction(svc, "GetStatus",
		nil,
		[]upnp.ArgSpec{{Name: "ResultStatus", RelatedStateVariable: "Status"}},
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			v, err := upnp.Parse(upnp.TypeBoolean, status.Current())
			if err != nil {
				return nil, err
			}
			return map[string]any{"ResultStatus": v}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	return svc, nil
}

// buildDimmingService mirrors Dimming:1: an i4 LoadLevelTarget/LoadLevelStatus
// pair bounded 0-100, exercising §4.A's numeric range coercion.
func buildDimmingService() (*upnp.Service, error) {
	svc := upnp.NewService(
		"urn:schemas-upnp-org:service:Dimming:1",
		"urn:upnp-org:serviceId:Dimming1",
		"/scpd/dimming.xml",
		"/control/dimming",
		"/event/dimming",
	)

	zero, hundred := 0.0, 100.0
	target, err := upnp.NewStateVariable("LoadLevelTarget", upnp.TypeI4, false, "0")
	if err != nil {
		return nil, err
	}
	target.Minimum = &zero
	target.Maximum = &hundred

	current, err := upnp.NewStateVariable("LoadLevelStatus", upnp.TypeI4, true, "0")
	if err != nil {
		return nil, err
	}
	current.Minimum = &zero
	current.Maximum = &hundred

	if err := svc.AddStateVariable(target); err != nil {
		return nil, err
	}
	if err := svc.AddStateVariable(current); err != nil {
		return nil, err
	}

	err = upnp.BindAction(svc, "SetLoadLevelTarget",
		[]upnp.ArgSpec{{Name: "newLoadlevelTarget", RelatedStateVariable: "LoadLevelTarget"}},
		nil,
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			level, ok := in["newLoadlevelTarget"].(int64)
			if !ok {
				return nil, &upnp.ValueError{Msg: "newLoadlevelTarget must be an integer"}
			}
			text := fmt.Sprintf("%d", level)
			if err := target.Set(text); err != nil {
				return nil, err
			}
			if err := current.Set(text); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}

	err = upnp.BindAction(svc, "GetLoadLevelTarget",
		nil,
		[]upnp.ArgSpec{{Name: "GetLoadlevelTarget", RelatedStateVariable: "LoadLevelTarget"}},
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			v, err := upnp.Parse(upnp.TypeI4, target.Current())
			if err != nil {
				return nil, err
			}
			return map[string]any{"GetLoadlevelTarget": v}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	return svc, nil
}

// buildSensorService mirrors SecuritySensor:1 for the embedded device,
// exposing a read-only boolean Tripped state with no settable argument
// (exercises an action with only out-arguments).
func buildSensorService() (*upnp.Service, error) {
	svc := upnp.NewService(
		"urn:schemas-upnp-org:service:SecuritySensor:1",
		"urn:upnp-org:serviceId:SecuritySensor1",
		"/scpd/sensor.xml",
		"/control/sensor",
		"/event/sensor",
	)

	tripped, err := upnp.NewStateVariable("Tripped", upnp.TypeBoolean, true, "0")
	if err != nil {
		return nil, err
	}
	if err := svc.AddStateVariable(tripped); err != nil {
		return nil, err
	}

	err = upnp.BindAction(svc, "GetSensorValue",
		nil,
		[]upnp.ArgSpec{{Name: "CurrentValue", RelatedStateVariable: "Tripped"}},
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			v, err := upnp.Parse(upnp.TypeBoolean, tripped.Current())
			if err != nil {
				return nil, err
			}
			return map[string]any{"CurrentValue": v}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	return svc, nil
}
