// Package api declares the request and response messages of the splitledger
// RPC services.
//
// Messages travel as JSON. Amounts and percentages are decimal strings
// ("33.34") in the currency of the owning group; timestamps are Unix seconds.
// Enum fields carry their lowercase names ("equal", "pending", "admin").
package api
