package plan

import (
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/adarshpannu/flare/regalloc"
)

// EncodeMsgpack and DecodeMsgpack implement msgpack.v2's custom
// encoder/decoder interfaces, since Stage's allocator field is unexported
// (spec §5: a stage must be byte-serializable for task dispatch).
func (s *Stage) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(s.ID, s.Root, s.ParentStageID, s.HasParent, s.NPartitionsProducer, s.NPartitionsConsumer, s.alloc)
}

func (s *Stage) DecodeMsgpack(dec *msgpack.Decoder) error {
	s.alloc = regalloc.New()
	return dec.Decode(&s.ID, &s.Root, &s.ParentStageID, &s.HasParent, &s.NPartitionsProducer, &s.NPartitionsConsumer, s.alloc)
}

// EncodeMsgpack and DecodeMsgpack implement the same interfaces for
// StageGraph, whose stage list is unexported.
func (g *StageGraph) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(g.stages)
}

func (g *StageGraph) DecodeMsgpack(dec *msgpack.Decoder) error {
	return dec.Decode(&g.stages)
}
