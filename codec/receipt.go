package codec

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// EncodeV1 serializes a receipt in the V1 layout: every command receipt
// is encoded with the uniform field set only, discarding the extended
// staking/call fields V2 carries (spec §4.1, SPEC_FULL.md §C.3). V1 has
// no representation for ExitNotExecuted; such receipts are encoded as
// ExitFailed, with their GasUsed written unchanged, matching the
// original implementation's down-conversion.
func EncodeV1(receipts []types.CommandReceipt) []byte {
	w := NewWriter()
	w.PutUint32(uint32(len(receipts)))
	for _, r := range receipts {
		w.PutUint8(uint8(r.Kind))
		status := r.ExitStatus
		if status == types.ExitNotExecuted {
			status = types.ExitFailed
		}
		w.PutUint8(uint8(status))
		w.PutUint64(r.GasUsed)
		w.PutBytes(r.ReturnValue)
		w.PutUint32(uint32(len(r.Logs)))
		for _, l := range r.Logs {
			w.PutBytes(l.Topic)
			w.PutBytes(l.Value)
		}
	}
	return w.Bytes()
}

// DecodeV1 parses a receipt list previously produced by EncodeV1. The
// staking/call extension fields are left at zero since V1 never carried
// them.
func DecodeV1(buf []byte) ([]types.CommandReceipt, error) {
	r := NewReader(buf)
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	out := make([]types.CommandReceipt, 0, count)
	for i := uint32(0); i < count; i++ {
		var rec types.CommandReceipt
		kindByte, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		rec.Kind = types.CommandKind(kindByte)
		statusByte, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		rec.ExitStatus = types.ExitStatus(statusByte)
		if rec.GasUsed, err = r.Uint64(); err != nil {
			return nil, err
		}
		if rec.ReturnValue, err = r.Bytes(); err != nil {
			return nil, err
		}
		logCount, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		rec.Logs = make([]types.LogEntry, 0, logCount)
		for j := uint32(0); j < logCount; j++ {
			topic, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			value, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			rec.Logs = append(rec.Logs, types.LogEntry{Topic: topic, Value: value})
		}
		out = append(out, rec)
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeV2 serializes a receipt in the V2 layout: the uniform fields
// plus, for command kinds that carry them, the extended staking/call
// amount fields, and full support for ExitNotExecuted (SPEC_FULL.md
// §C.3 and §C.4).
func EncodeV2(receipts []types.CommandReceipt) []byte {
	w := NewWriter()
	w.PutUint32(uint32(len(receipts)))
	for _, r := range receipts {
		w.PutUint8(uint8(r.Kind))
		w.PutUint8(uint8(r.ExitStatus))
		w.PutUint64(r.GasUsed)
		w.PutBytes(r.ReturnValue)
		w.PutUint32(uint32(len(r.Logs)))
		for _, l := range r.Logs {
			w.PutBytes(l.Topic)
			w.PutBytes(l.Value)
		}
		if r.Kind.HasExtendedReceiptFields() {
			w.PutUint64(r.AmountWithdrawn)
			w.PutUint64(r.AmountStaked)
			w.PutUint64(r.AmountUnstaked)
		}
	}
	return w.Bytes()
}

// DecodeV2 parses a receipt list previously produced by EncodeV2.
func DecodeV2(buf []byte) ([]types.CommandReceipt, error) {
	r := NewReader(buf)
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	out := make([]types.CommandReceipt, 0, count)
	for i := uint32(0); i < count; i++ {
		var rec types.CommandReceipt
		kindByte, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		rec.Kind = types.CommandKind(kindByte)
		statusByte, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		rec.ExitStatus = types.ExitStatus(statusByte)
		if rec.GasUsed, err = r.Uint64(); err != nil {
			return nil, err
		}
		if rec.ReturnValue, err = r.Bytes(); err != nil {
			return nil, err
		}
		logCount, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		rec.Logs = make([]types.LogEntry, 0, logCount)
		for j := uint32(0); j < logCount; j++ {
			topic, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			value, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			rec.Logs = append(rec.Logs, types.LogEntry{Topic: topic, Value: value})
		}
		if rec.Kind.HasExtendedReceiptFields() {
			if rec.AmountWithdrawn, err = r.Uint64(); err != nil {
				return nil, err
			}
			if rec.AmountStaked, err = r.Uint64(); err != nil {
				return nil, err
			}
			if rec.AmountUnstaked, err = r.Uint64(); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return out, nil
}
