// Package axilite defines the AXI4-Lite protocol core shared by the master
// and slave models: bus data types, the Signal and Clock capabilities the
// protocol runs on, the valid/ready handshake channel, and the backing store.
//
// The protocol code never blocks on anything other than Clock.AwaitNextEdge.
// Every value written with Signal.Set becomes visible to Signal.Get at the
// next clock edge, so all reads within one edge observe the values driven
// during the previous edge.
package axilite
