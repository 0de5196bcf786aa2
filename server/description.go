// Package server composes the device/service model and the ssdp package
// into a runnable UPnP device server: HTTP description and SOAP control
// endpoints, and the start/stop lifecycle that binds sockets for them.
package server

import (
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/upnpstack/upnpd/upnp"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// deviceDescriptionDoc mirrors the UPnP device description XML struct
// shape, generalized from one hard-coded device to any upnp.Device.
type deviceDescriptionDoc struct {
	XMLName     xml.Name      `xml:"urn:schemas-upnp-org:device-1-0 root"`
	SpecVersion specVersion   `xml:"specVersion"`
	Device      deviceXML    `xml:"device"`
}

type specVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

type iconXML struct {
	MimeType string `xml:"mimetype"`
	Width    int    `xml:"width"`
	Height   int    `xml:"height"`
	Depth    int    `xml:"depth"`
	URL      string `xml:"url"`
}

type iconListXML struct {
	Icons []iconXML `xml:"icon"`
}

type serviceXML struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	SCPDURL     string `xml:"SCPDURL"`
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
}

type serviceListXML struct {
	Services []serviceXML `xml:"service"`
}

type deviceListXML struct {
	Devices []deviceXML `xml:"device"`
}

type deviceXML struct {
	DeviceType       string          `xml:"deviceType"`
	FriendlyName     string          `xml:"friendlyName"`
	Manufacturer     string          `xml:"manufacturer"`
	ManufacturerURL  string          `xml:"manufacturerURL,omitempty"`
	ModelDescription string          `xml:"modelDescription,omitempty"`
	ModelName        string          `xml:"modelName"`
	ModelNumber      string          `xml:"modelNumber,omitempty"`
	ModelURL         string          `xml:"modelURL,omitempty"`
	SerialNumber     string          `xml:"serialNumber,omitempty"`
	UPC              string          `xml:"UPC,omitempty"`
	UDN              string          `xml:"UDN"`
	IconList         *iconListXML    `xml:"iconList,omitempty"`
	ServiceList      serviceListXML  `xml:"serviceList"`
	DeviceList       *deviceListXML  `xml:"deviceList,omitempty"`
	PresentationURL  string          `xml:"presentationURL,omitempty"`
}

func renderDevice(d *upnp.Device) deviceXML {
	out := deviceXML{
		DeviceType:       d.DeviceType,
		FriendlyName:     d.FriendlyName,
		Manufacturer:     d.Manufacturer,
		ManufacturerURL:  d.ManufacturerURL,
		ModelDescription: d.ModelDescription,
		ModelName:        d.ModelName,
		ModelNumber:      d.ModelNumber,
		ModelURL:         d.ModelURL,
		SerialNumber:     d.SerialNumber,
		UPC:              d.UPC,
		UDN:              d.UDN,
		PresentationURL:  d.PresentationURL,
	}

	if len(d.Icons) > 0 {
		il := &iconListXML{}
		for _, ic := range d.Icons {
			il.Icons = append(il.Icons, iconXML{MimeType: ic.MimeType, Width: ic.Width, Height: ic.Height, Depth: ic.Depth, URL: ic.URL})
		}
		out.IconList = il
	}

	for _, s := range d.Services() {
		out.ServiceList.Services = append(out.ServiceList.Services, serviceXML{
			ServiceType: s.ServiceType,
			ServiceID:   s.ServiceID,
			SCPDURL:     s.SCPDURL,
			ControlURL:  s.ControlURL,
			EventSubURL: s.EventSubURL,
		})
	}

	if children := d.EmbeddedDevices(); len(children) > 0 {
		dl := &deviceListXML{}
		for _, c := range children {
			cx := renderDevice(c)
			dl.Devices = append(dl.Devices, cx)
		}
		out.DeviceList = dl
	}

	return out
}

// WriteDeviceDescription renders d's device description document per
// spec.md §4.G and writes it to w with the fixed text/xml content type.
func WriteDeviceDescription(w http.ResponseWriter, d *upnp.Device) error {
	doc := deviceDescriptionDoc{
		SpecVersion: specVersion{Major: 1, Minor: 0},
		Device:      renderDevice(d),
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(xml.Header))
	if err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(doc)
}

// --- SCPD (service description) ---

type scpdDoc struct {
	XMLName          xml.Name           `xml:"urn:schemas-upnp-org:service-1-0 scpd"`
	SpecVersion      specVersion        `xml:"specVersion"`
	ActionList       scpdActionListXML  `xml:"actionList"`
	ServiceStateTable scpdStateTableXML `xml:"serviceStateTable"`
}

type scpdActionListXML struct {
	Actions []scpdActionXML `xml:"action"`
}

type scpdActionXML struct {
	Name         string             `xml:"name"`
	ArgumentList *scpdArgListXML    `xml:"argumentList,omitempty"`
}

type scpdArgListXML struct {
	Arguments []scpdArgXML `xml:"argument"`
}

type scpdArgXML struct {
	Name                 string `xml:"name"`
	Direction            string `xml:"direction"`
	RelatedStateVariable string `xml:"relatedStateVariable"`
}

type scpdStateTableXML struct {
	Variables []scpdVarXML `xml:"stateVariable"`
}

type scpdVarXML struct {
	SendEvents        string              `xml:"sendEvents,attr"`
	Name              string              `xml:"name"`
	DataType          string              `xml:"dataType"`
	AllowedValueList  *scpdAllowedListXML `xml:"allowedValueList,omitempty"`
	AllowedValueRange *scpdRangeXML       `xml:"allowedValueRange,omitempty"`
	DefaultValue      string              `xml:"defaultValue,omitempty"`
}

type scpdAllowedListXML struct {
	Values []string `xml:"allowedValue"`
}

type scpdRangeXML struct {
	Minimum string `xml:"minimum"`
	Maximum string `xml:"maximum"`
}

// WriteServiceDescription renders s's SCPD document per spec.md §4.G and
// writes it to w with the fixed text/xml content type.
func WriteServiceDescription(w http.ResponseWriter, s *upnp.Service) error {
	doc := scpdDoc{SpecVersion: specVersion{Major: 1, Minor: 0}}

	for _, a := range s.Actions() {
		ax := scpdActionXML{Name: a.Name}
		if len(a.Arguments) > 0 {
			al := &scpdArgListXML{}
			for _, arg := range a.InArguments() {
				al.Arguments = append(al.Arguments, scpdArgXML{Name: arg.Name, Direction: "in", RelatedStateVariable: arg.RelatedStateVariable})
			}
			for _, arg := range a.OutArguments() {
				al.Arguments = append(al.Arguments, scpdArgXML{Name: arg.Name, Direction: "out", RelatedStateVariable: arg.RelatedStateVariable})
			}
			ax.ArgumentList = al
		}
		doc.ActionList.Actions = append(doc.ActionList.Actions, ax)
	}

	for _, v := range s.StateVariables() {
		sendEvents := "no"
		if v.SendEvents {
			sendEvents = "yes"
		}
		vx := scpdVarXML{
			SendEvents:   sendEvents,
			Name:         v.Name,
			DataType:     string(v.DataType),
			DefaultValue: v.Default,
		}
		if len(v.AllowedValue) > 0 {
			vx.AllowedValueList = &scpdAllowedListXML{Values: v.AllowedValue}
		}
		if v.Minimum != nil || v.Maximum != nil {
			r := &scpdRangeXML{}
			if v.Minimum != nil {
				r.Minimum = formatFloat(*v.Minimum)
			}
			if v.Maximum != nil {
				r.Maximum = formatFloat(*v.Maximum)
			}
			vx.AllowedValueRange = r
		}
		doc.ServiceStateTable.Variables = append(doc.ServiceStateTable.Variables, vx)
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(doc)
}
