package server_test

import (
	"context"
	"encoding/xml"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/upnpstack/upnpd/server"
	"github.com/upnpstack/upnpd/upnp"
)

var _ = Describe("device description", func() {
	var root *upnp.Device

	BeforeEach(func() {
		root = upnp.NewDevice("uuid:11111111-1111-1111-1111-111111111111", "urn:schemas-upnp-org:device:Dummy:1")
		root.FriendlyName = "Dummy Device"
		svc := upnp.NewService(
			"urn:schemas-upnp-org:service:DummySvc:1",
			"urn:upnp-org:serviceId:DummySvc",
			"/scpd/dummy.xml",
			"/control/dummy",
			"/event/dummy",
		)
		Expect(root.AddService("DummySvc", svc)).To(Succeed())
	})

	// Scenario S4 of spec.md §8: GET <device_url> returns a document whose
	// root is <root xmlns="urn:schemas-upnp-org:device-1-0"> and whose
	// <device>/<UDN> text equals the configured UDN.
	It("renders a root element in the device-1-0 namespace containing the configured UDN", func() {
		rec := httptest.NewRecorder()
		Expect(server.WriteDeviceDescription(rec, root)).To(Succeed())

		Expect(rec.Header().Get("Content-Type")).To(Equal("text/xml; charset=utf-8"))

		var doc struct {
			XMLName xml.Name `xml:"root"`
			Device  struct {
				UDN string `xml:"UDN"`
			} `xml:"device"`
		}
		Expect(xml.Unmarshal(rec.Body.Bytes(), &doc)).To(Succeed())
		Expect(doc.XMLName.Space).To(Equal("urn:schemas-upnp-org:device-1-0"))
		Expect(doc.Device.UDN).To(Equal(root.UDN))
	})

	It("lists every service's control, event and SCPD URLs", func() {
		rec := httptest.NewRecorder()
		Expect(server.WriteDeviceDescription(rec, root)).To(Succeed())

		var doc struct {
			Device struct {
				ServiceList struct {
					Services []struct {
						ServiceType string `xml:"serviceType"`
						ControlURL  string `xml:"controlURL"`
						EventSubURL string `xml:"eventSubURL"`
						SCPDURL     string `xml:"SCPDURL"`
					} `xml:"service"`
				} `xml:"serviceList"`
			} `xml:"device"`
		}
		Expect(xml.Unmarshal(rec.Body.Bytes(), &doc)).To(Succeed())
		Expect(doc.Device.ServiceList.Services).To(HaveLen(1))
		Expect(doc.Device.ServiceList.Services[0].ControlURL).To(Equal("/control/dummy"))
		Expect(doc.Device.ServiceList.Services[0].EventSubURL).To(Equal("/event/dummy"))
		Expect(doc.Device.ServiceList.Services[0].SCPDURL).To(Equal("/scpd/dummy.xml"))
	})
})

var _ = Describe("service description (SCPD)", func() {
	It("orders in-arguments before out-arguments in the argument list", func() {
		svc := upnp.NewService(
			"urn:schemas-upnp-org:service:SwitchPower:1",
			"urn:upnp-org:serviceId:SwitchPower1",
			"/scpd.xml", "/control", "/event",
		)
		target, err := upnp.NewStateVariable("Target", upnp.TypeBoolean, false, "0")
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.AddStateVariable(target)).To(Succeed())

		err = upnp.BindAction(svc, "SetTarget",
			[]upnp.ArgSpec{{Name: "NewTargetValue", RelatedStateVariable: "Target"}},
			[]upnp.ArgSpec{{Name: "Echo", RelatedStateVariable: "Target"}},
			func(ctx context.Context, in map[string]any) (map[string]any, error) {
				return nil, nil
			},
		)
		Expect(err).NotTo(HaveOccurred())

		rec := httptest.NewRecorder()
		Expect(server.WriteServiceDescription(rec, svc)).To(Succeed())

		var doc struct {
			ActionList struct {
				Actions []struct {
					Name         string `xml:"name"`
					ArgumentList struct {
						Arguments []struct {
							Name      string `xml:"name"`
							Direction string `xml:"direction"`
						} `xml:"argument"`
					} `xml:"argumentList"`
				} `xml:"action"`
			} `xml:"actionList"`
		}
		Expect(xml.Unmarshal(rec.Body.Bytes(), &doc)).To(Succeed())
		Expect(doc.ActionList.Actions).To(HaveLen(1))
		args := doc.ActionList.Actions[0].ArgumentList.Arguments
		Expect(args).To(HaveLen(2))
		Expect(args[0].Direction).To(Equal("in"))
		Expect(args[1].Direction).To(Equal("out"))
	})
})
