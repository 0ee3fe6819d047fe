package near

import (
	"encoding/binary"
	"math/big"

	"github.com/cockroachdb/errors"
)

// borshWriter covers the subset of Borsh used by transactions:
// little-endian integers, u32-length-prefixed strings and byte vectors.
type borshWriter struct {
	buf []byte
}

func (w *borshWriter) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *borshWriter) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *borshWriter) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *borshWriter) u128(v *big.Int) error {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return errors.Newf("value %s does not fit in u128", v)
	}
	var be [16]byte
	v.FillBytes(be[:])
	for i := 15; i >= 0; i-- {
		w.buf = append(w.buf, be[i])
	}
	return nil
}

func (w *borshWriter) fixed(b []byte) { w.buf = append(w.buf, b...) }

func (w *borshWriter) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *borshWriter) string(s string) { w.bytes([]byte(s)) }

func (w *borshWriter) publicKey(pk PublicKey) {
	w.u8(uint8(pk.Type))
	w.fixed(pk.Data)
}

func (w *borshWriter) signature(sig Signature) {
	w.u8(uint8(sig.Type))
	w.fixed(sig.Data)
}
