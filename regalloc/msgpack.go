package regalloc

import (
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/adarshpannu/flare/ids"
)

type qcPair struct {
	Qun int
	Col int
	Reg int
}

// EncodeMsgpack and DecodeMsgpack implement msgpack.v2's custom
// encoder/decoder interfaces, since Allocator's fields are unexported
// (spec §5: a stage's register allocator must be byte-serializable).
func (a *Allocator) EncodeMsgpack(enc *msgpack.Encoder) error {
	pairs := make([]qcPair, 0, len(a.ids))
	for qc, reg := range a.ids {
		pairs = append(pairs, qcPair{Qun: int(qc.Qun), Col: int(qc.Col), Reg: int(reg)})
	}
	return enc.Encode(pairs, int64(a.nextID))
}

func (a *Allocator) DecodeMsgpack(dec *msgpack.Decoder) error {
	var pairs []qcPair
	var nextID int64
	if err := dec.Decode(&pairs, &nextID); err != nil {
		return err
	}
	a.ids = make(map[ids.QunCol]ids.RegisterId, len(pairs))
	for _, p := range pairs {
		a.ids[ids.QunCol{Qun: ids.QunId(p.Qun), Col: ids.ColId(p.Col)}] = ids.RegisterId(p.Reg)
	}
	a.nextID = ids.RegisterId(nextID)
	return nil
}
