package server_test

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/upnpstack/upnpd/server"
	"github.com/upnpstack/upnpd/upnp"
)

func newSwitchPowerService() (*upnp.Service, *bool) {
	svc := upnp.NewService(
		"urn:schemas-upnp-org:service:DummySvc:1",
		"urn:upnp-org:serviceId:DummySvc",
		"/scpd.xml", "/control", "/event",
	)
	target, _ := upnp.NewStateVariable("Target", upnp.TypeBoolean, false, "0")
	_ = svc.AddStateVariable(target)

	invoked := new(bool)
	_ = upnp.BindAction(svc, "SetTarget",
		[]upnp.ArgSpec{{Name: "NewTargetValue", RelatedStateVariable: "Target"}},
		nil,
		func(ctx context.Context, in map[string]any) (map[string]any, error) {
			*invoked = true
			_, ok := in["NewTargetValue"].(bool)
			Expect(ok).To(BeTrue())
			return nil, nil
		},
	)
	return svc, invoked
}

func soapRequest(soapAction, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(body))
	req.Header.Set("SOAPAction", soapAction)
	return req
}

var _ = Describe("SOAP action dispatch", func() {
	var svc *upnp.Service
	var invoked *bool

	BeforeEach(func() {
		svc, invoked = newSwitchPowerService()
	})

	// Scenario S5 of spec.md §8.
	It("coerces the boolean argument and invokes the handler", func() {
		body := `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:SetTarget xmlns:u="urn:schemas-upnp-org:service:DummySvc:1">
      <NewTargetValue>1</NewTargetValue>
    </u:SetTarget>
  </s:Body>
</s:Envelope>`
		req := soapRequest(`"urn:schemas-upnp-org:service:DummySvc:1#SetTarget"`, body)
		rec := httptest.NewRecorder()

		server.DispatchSOAP(rec, req, svc, nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(*invoked).To(BeTrue())

		var doc struct {
			Body struct {
				Content []byte `xml:",innerxml"`
			} `xml:"Body"`
		}
		Expect(xml.Unmarshal(rec.Body.Bytes(), &doc)).To(Succeed())
		Expect(string(doc.Body.Content)).To(ContainSubstring("SetTargetResponse"))
	})

	// Scenario S6 of spec.md §8, first half: unknown action -> 400 InvalidAction.
	It("rejects an unknown action with 400 InvalidAction and never invokes the handler", func() {
		body := `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <u:UnknownAction xmlns:u="urn:schemas-upnp-org:service:DummySvc:1"/>
  </s:Body>
</s:Envelope>`
		req := soapRequest(`"urn:schemas-upnp-org:service:DummySvc:1#UnknownAction"`, body)
		rec := httptest.NewRecorder()

		server.DispatchSOAP(rec, req, svc, nil)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(Equal("InvalidAction"))
		Expect(*invoked).To(BeFalse())
	})

	// Scenario S6 of spec.md §8, second half: malformed argument value (here
	// a boolean argument) -> 500 fault with errorCode 402.
	It("rejects a malformed argument value with a 402 SOAP fault", func() {
		body := `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <u:SetTarget xmlns:u="urn:schemas-upnp-org:service:DummySvc:1">
      <NewTargetValue>not-a-bool</NewTargetValue>
    </u:SetTarget>
  </s:Body>
</s:Envelope>`
		req := soapRequest(`"urn:schemas-upnp-org:service:DummySvc:1#SetTarget"`, body)
		rec := httptest.NewRecorder()

		server.DispatchSOAP(rec, req, svc, nil)

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring("<errorCode>402</errorCode>"))
	})

	It("rejects a missing SOAPAction header with 400 InvalidSoap", func() {
		req := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader("<s:Envelope/>"))
		rec := httptest.NewRecorder()

		server.DispatchSOAP(rec, req, svc, nil)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(Equal("InvalidSoap"))
	})
})
