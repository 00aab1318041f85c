package events

import "strings"

// CloudFrontHeader is one header entry. Key keeps the original casing.
type CloudFrontHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CloudFrontHeaders maps lowercase header names to their entries.
type CloudFrontHeaders map[string][]CloudFrontHeader

// Get returns the first value of the named header.
func (h CloudFrontHeaders) Get(name string) string {
	entries := h[strings.ToLower(name)]
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Value
}

// Set replaces the named header with a single value.
func (h CloudFrontHeaders) Set(name, value string) {
	h[strings.ToLower(name)] = []CloudFrontHeader{{Key: name, Value: value}}
}

// CloudFrontConfig identifies the distribution and request.
type CloudFrontConfig struct {
	DistributionID string `json:"distributionId"`
	RequestID      string `json:"requestId"`
}

// CloudFrontEvent holds the fields shared by request and response events.
type CloudFrontEvent struct {
	Config CloudFrontConfig `json:"config"`
}

// CloudFrontRequest is the viewer or origin request.
type CloudFrontRequest struct {
	ClientIP    string            `json:"clientIp"`
	Method      string            `json:"method"`
	URI         string            `json:"uri"`
	Querystring string            `json:"querystring"`
	Headers     CloudFrontHeaders `json:"headers"`
}

// CloudFrontResponse is the viewer or origin response. Status is a string.
type CloudFrontResponse struct {
	Status            string            `json:"status"`
	StatusDescription string            `json:"statusDescription"`
	Headers           CloudFrontHeaders `json:"headers"`
}

// CloudFrontRequestCF is the cf member of a request record.
type CloudFrontRequestCF struct {
	CloudFrontEvent
	Request CloudFrontRequest `json:"request"`
}

// CloudFrontResponseCF is the cf member of a response record.
type CloudFrontResponseCF struct {
	CloudFrontEvent
	Request  CloudFrontRequest  `json:"request"`
	Response CloudFrontResponse `json:"response"`
}

type CloudFrontRequestRecord struct {
	CF CloudFrontRequestCF `json:"cf"`
}

type CloudFrontResponseRecord struct {
	CF CloudFrontResponseCF `json:"cf"`
}

// CloudFrontRequestEvent is delivered for viewer-request and origin-request triggers.
type CloudFrontRequestEvent struct {
	Records []CloudFrontRequestRecord `json:"Records"`
}

// CloudFrontResponseEvent is delivered for viewer-response and origin-response triggers.
type CloudFrontResponseEvent struct {
	Records []CloudFrontResponseRecord `json:"Records"`
}
