package server

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/upnpstack/upnpd/log"
	"github.com/upnpstack/upnpd/upnp"
)

// soapEnvelope mirrors a bare SOAP 1.1 envelope, capturing the body as raw
// inner XML so its children can be walked manually per spec.md §4.H point 3.
type soapEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Content []byte `xml:",innerxml"`
}

// actionElement captures the first child of s:Body (the request element)
// with its own children available as raw XML tokens for argument extraction.
type actionElement struct {
	XMLName xml.Name
	Args    []argElement `xml:",any"`
}

type argElement struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// DispatchSOAP implements spec.md §4.H: parse the envelope, resolve the
// action named by the SOAPAction header, coerce each argument via its
// state variable's type, invoke the bound handler, and render a success or
// fault envelope.
func DispatchSOAP(w http.ResponseWriter, req *http.Request, svc *upnp.Service, onResult func(action, outcome string)) {
	if onResult == nil {
		onResult = func(string, string) {}
	}
	ctx := req.Context()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		onResult("", "bad_request")
		writeSOAPBadRequest(w, "InvalidSoap")
		return
	}

	actionName, ok := actionNameFromHeader(req.Header.Get("SOAPAction"))
	if !ok {
		onResult("", "bad_request")
		writeSOAPBadRequest(w, "InvalidSoap")
		return
	}

	var envelope soapEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		log.Debug(ctx, "soap: failed to parse envelope", "error", err.Error())
		onResult(actionName, "bad_request")
		writeSOAPBadRequest(w, "InvalidSoap")
		return
	}

	action, ok := svc.Action(actionName)
	if !ok {
		onResult(actionName, "invalid_action")
		writeSOAPBadRequest(w, "InvalidAction")
		return
	}

	var elem actionElement
	if err := xml.Unmarshal(envelope.Body.Content, &elem); err != nil {
		onResult(actionName, "bad_request")
		writeSOAPBadRequest(w, "InvalidSoap")
		return
	}

	in := make(map[string]any, len(action.InArguments()))
	byName := make(map[string]string, len(elem.Args))
	for _, a := range elem.Args {
		byName[a.XMLName.Local] = a.Value
	}

	for _, arg := range action.InArguments() {
		text, present := byName[arg.Name]
		if !present {
			continue
		}
		sv := arg.StateVariable()
		v, err := upnp.Parse(sv.DataType, text)
		if err != nil {
			onResult(actionName, "invalid_args")
			writeSOAPFault(w, upnp.FaultCode(err), "Invalid Args")
			return
		}
		in[arg.Name] = v
	}
	for _, a := range elem.Args {
		if _, known := findInArgument(action, a.XMLName.Local); !known {
			onResult(actionName, "invalid_argument")
			writeSOAPBadRequest(w, "InvalidActionArgument")
			return
		}
	}

	out, err := action.Handler()(ctx, in)
	if err != nil {
		log.Error(ctx, "soap: action handler failed", err, "action", actionName)
		onResult(actionName, "fault")
		writeSOAPFault(w, upnp.FaultCode(err), faultDescription(err))
		return
	}

	onResult(actionName, "success")
	writeSOAPSuccess(w, svc, action, out)
}

func findInArgument(a *upnp.Action, name string) (*upnp.Argument, bool) {
	for _, arg := range a.InArguments() {
		if arg.Name == name {
			return arg, true
		}
	}
	return nil, false
}

func faultDescription(err error) string {
	if err == nil {
		return "Action Failed"
	}
	return err.Error()
}

// actionNameFromHeader strips surrounding quotes from the SOAPAction
// header and splits on '#'; the right half is the action name, per
// spec.md §4.H point 1.
func actionNameFromHeader(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	trimmed := strings.Trim(header, `"`)
	idx := strings.LastIndex(trimmed, "#")
	if idx < 0 || idx == len(trimmed)-1 {
		return "", false
	}
	return trimmed[idx+1:], true
}

func writeSOAPBadRequest(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprint(w, reason)
}

func writeSOAPSuccess(w http.ResponseWriter, svc *upnp.Service, action *upnp.Action, out map[string]any) {
	var body strings.Builder
	fmt.Fprintf(&body, `<st:%sResponse xmlns:st="%s">`, action.Name, svc.ServiceType)
	for _, arg := range action.OutArguments() {
		v, ok := out[arg.Name]
		if !ok {
			continue
		}
		text, err := upnp.Render(arg.StateVariable().DataType, v)
		if err != nil {
			writeSOAPFault(w, upnp.FaultCode(err), "Action Failed")
			return
		}
		fmt.Fprintf(&body, "<%s>%s</%s>", arg.Name, xmlEscape(text), arg.Name)
	}
	fmt.Fprintf(&body, "</st:%sResponse>", action.Name)

	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    %s
  </s:Body>
</s:Envelope>`, body.String())

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, envelope)
}

// writeSOAPFault renders the SOAP Fault body of spec.md §4.H point 6.
func writeSOAPFault(w http.ResponseWriter, code int, description string) {
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <s:Fault>
      <faultcode>s:Client</faultcode>
      <faultstring>UPnPError</faultstring>
      <detail>
        <UPnPError xmlns="urn:schemas-upnp-org:control-1-0">
          <errorCode>%d</errorCode>
          <errorDescription>%s</errorDescription>
        </UPnPError>
      </detail>
    </s:Fault>
  </s:Body>
</s:Envelope>`, code, xmlEscape(description))

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprint(w, envelope)
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
