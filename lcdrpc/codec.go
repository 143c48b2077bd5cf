package lcdrpc

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
)

// methods maps every accepted wire name to the registered method.
var methods = map[string]string{
	"write":     ServiceName + ".Write",
	"clear":     ServiceName + ".Clear",
	"reset":     ServiceName + ".Reset",
	"lcd.Write": ServiceName + ".Write",
	"lcd.Clear": ServiceName + ".Clear",
	"lcd.Reset": ServiceName + ".Reset",
}

// codec is a json2 codec that accepts bare method names and reports unknown
// ones as "method not found".
type codec struct {
	inner *json2.Codec
}

func newCodec() *codec {
	return &codec{inner: json2.NewCustomCodecWithErrorMapper(rpc.DefaultEncoderSelector, WireError)}
}

// NewRequest implements rpc.Codec.
func (c *codec) NewRequest(r *http.Request) rpc.CodecRequest {
	return &codecRequest{CodecRequest: c.inner.NewRequest(r)}
}

type codecRequest struct {
	rpc.CodecRequest
}

// Method implements rpc.CodecRequest.
func (c *codecRequest) Method() (string, error) {
	m, err := c.CodecRequest.Method()
	if err != nil {
		return "", err
	}
	full, ok := methods[m]
	if !ok {
		return "", &json2.Error{Code: json2.E_NO_METHOD, Message: "method not found", Data: m}
	}
	return full, nil
}
