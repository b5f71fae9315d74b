package schema

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode decodes any-typed maps as map[string]any.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("schema: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("schema: CBOR decoder initialization failed: " + err.Error())
	}
}

// envelope is the payload stored in a section record.
type envelope struct {
	Kind        Kind        `cbor:"1,keyasint"`
	Compression Compression `cbor:"2,keyasint,omitempty"`
	Size        int         `cbor:"3,keyasint,omitempty"` // body length before compression
	Body        []byte      `cbor:"4,keyasint"`
}
