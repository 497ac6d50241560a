package runtime

import (
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/adarshpannu/flare/internal/graph"
)

// EncodeMsgpack and DecodeMsgpack implement msgpack.v2's custom
// encoder/decoder interfaces. Only PartitionID, StageID, Row and Emit cross
// the wire; States holds non-serializable operator runtime state and is
// rebuilt fresh by the receiving worker (spec §5, §9).
func (t *Task) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(t.PartitionID, t.StageID, t.Row, t.Emit)
}

func (t *Task) DecodeMsgpack(dec *msgpack.Decoder) error {
	if err := dec.Decode(&t.PartitionID, &t.StageID, &t.Row, &t.Emit); err != nil {
		return err
	}
	t.States = make(map[graph.Key]interface{})
	return nil
}
