package row

import msgpack "gopkg.in/vmihailenco/msgpack.v2"

// EncodeMsgpack and DecodeMsgpack implement msgpack.v2's custom
// encoder/decoder interfaces so Datum's unexported fields round-trip
// through the serialization contract (spec §5) without reflection reaching
// into private state. The wire form is simply [tag, value...].
func (d Datum) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch d.tag {
	case TagNull:
		return enc.Encode(uint8(TagNull))
	case TagInt:
		return enc.Encode(uint8(TagInt), d.i)
	case TagStr:
		return enc.Encode(uint8(TagStr), *d.s)
	case TagBool:
		return enc.Encode(uint8(TagBool), d.b)
	case TagDouble:
		return enc.Encode(uint8(TagDouble), d.integral, d.fractional)
	default:
		return enc.Encode(uint8(TagNull))
	}
}

// Row round-trips as its column slice; width is implicit in the slice
// length, matching NewRow's construction.
func (r Row) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(r.cols)
}

func (r *Row) DecodeMsgpack(dec *msgpack.Decoder) error {
	return dec.Decode(&r.cols)
}

func (d *Datum) DecodeMsgpack(dec *msgpack.Decoder) error {
	var tag uint8
	if err := dec.Decode(&tag); err != nil {
		return err
	}
	switch Tag(tag) {
	case TagNull:
		*d = Null()
	case TagInt:
		var v int64
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*d = NewInt(v)
	case TagStr:
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*d = NewStr(v)
	case TagBool:
		var v bool
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*d = NewBool(v)
	case TagDouble:
		var integral, fractional int64
		if err := dec.Decode(&integral, &fractional); err != nil {
			return err
		}
		*d = NewDouble(integral, fractional)
	}
	return nil
}
