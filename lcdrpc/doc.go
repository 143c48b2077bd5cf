// Package lcdrpc exposes an HD44780 display over JSON-RPC 2.0.
//
// Three methods are served on the root path: write, clear and reset.
//
//	{"jsonrpc": "2.0", "method": "write", "params": {"position": 5, "string": "hi"}, "id": 1}
//	{"jsonrpc": "2.0", "result": "success", "id": 1}
//
// write also accepts its parameters by position, as [5, "hi"]. The dotted
// forms lcd.Write, lcd.Clear and lcd.Reset are accepted too.
//
// Calls are serialized through a Session: at most one call talks to the
// display at a time, and write parameters are validated before the display
// is touched.
//
// # Errors
//
// Failures come back as JSON-RPC error objects:
//
//	code    message             data
//	-32602  invalid params      the decode error
//	1       validation error    the first failing field's reason
//	-32603  internal error      the underlying fault
//	-32601  method not found    the method name
package lcdrpc
