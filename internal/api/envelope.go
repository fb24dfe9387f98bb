package api

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// envelope is the uniform response shape the backend wraps every payload in:
// {"success": bool, "message": string, "data": {...}}.
type envelope struct {
	Success bool
	Message string
	Data    jx.Raw
}

// decodeEnvelope parses the response body. Unknown top-level fields are
// skipped; data is captured raw for the caller to decode into a typed struct.
func decodeEnvelope(body []byte) (*envelope, error) {
	var e envelope
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "success")
			}
			e.Success = v
		case "message":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "message")
			}
			e.Message = v
		case "data":
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "data")
			}
			e.Data = raw
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	return &e, nil
}
