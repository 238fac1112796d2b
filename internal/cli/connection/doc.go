// Package connection is the HTTP transport between the supplier portal
// client and its remote script endpoint.
//
// HTTPClient posts scriptapi.Request envelopes and hands back the raw
// status, headers and body. It does not interpret the envelope; response
// classification belongs to internal/core/service. Errors distinguish
// "no response at all" (scriptapi.TransportError) from "a response whose
// body could not be read" (scriptapi.BodyError).
package connection
