// Package websocket pushes dashboard events to connected browsers.
//
// A Hub owns the set of clients and fans JSON envelopes out to them. The
// dashboard service publishes "dataset:replaced" through Hub.Broadcast when
// an upload replaces the current workbook.
package websocket
