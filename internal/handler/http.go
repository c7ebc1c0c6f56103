package handler

import (
	"strings"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

var allowedHTTPMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// httpRequestHandler implements the http-request kind (spec §4.3): the url
// template is interpolated, method defaults to GET, basicAuth is applied
// when requested, and the response body is parsed as JSON when possible.
type httpRequestHandler struct{}

func (httpRequestHandler) Kind() string { return "http-request" }

func (httpRequestHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.HTTPClient == nil {
		return value.Null(), engineerr.Config("no HttpClient capability configured")
	}

	urlTemplate, ok := configString(node.Config, "url")
	if !ok {
		return value.Null(), engineerr.MissingField("url")
	}
	url := value.Interpolate(urlTemplate, input)

	method := strings.ToUpper(configStringDefault(node.Config, "method", "GET"))
	if !allowedHTTPMethods[method] {
		return value.Null(), engineerr.Config("unsupported HTTP method " + method)
	}

	headers := map[string]string{}
	if h, ok := node.Config.Get("headers"); ok && h.IsObject() {
		for _, k := range h.Keys() {
			v, _ := h.Get(k)
			headers[k] = value.Interpolate(v.RawString(), input)
		}
	}

	var basicAuth *capability.BasicAuth
	if configStringDefault(node.Config, "authentication", "") == "basicAuth" {
		basicAuth = &capability.BasicAuth{
			User:     configStringDefault(node.Config, "user", ""),
			Password: configStringDefault(node.Config, "password", ""),
		}
	}

	var body []byte
	if b, ok := node.Config.Get("body"); ok {
		body = []byte(value.Interpolate(b.RawString(), input))
	}

	status, _, respBody, err := ectx.Capabilities.HTTPClient.Send(ectx.Context(), method, url, headers, basicAuth, body)
	if err != nil {
		return value.Null(), engineerr.External("HTTP Error", err.Error(), err)
	}

	parsedBody, parseErr := value.Parse(respBody)
	if parseErr != nil {
		parsedBody = value.String(string(respBody))
	}

	if configBool(node.Config, "fullResponse") {
		out := value.NewObject()
		out.Set("status_code", value.Number(float64(status)))
		out.Set("body", parsedBody)
		return out, nil
	}
	return parsedBody, nil
}
