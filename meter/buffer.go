// Package meter implements the GasMeter: the component that composes
// a state.WorldStateCache with a per-command output buffer, charges
// every gas cost before the effect it prices takes hold, and extracts
// a CommandReceipt once a command finishes (spec §4.3).
package meter

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// CommandOutputBuffer accumulates what one command produces (its
// return value and emitted logs) until GasMeter.ExtractReceipt drains
// it into a CommandReceipt (spec §3 Lifecycles).
type CommandOutputBuffer struct {
	returnValue []byte
	logs        []types.LogEntry
}

func newCommandOutputBuffer() *CommandOutputBuffer {
	return &CommandOutputBuffer{}
}

func (b *CommandOutputBuffer) setReturnValue(v []byte) {
	b.returnValue = append([]byte(nil), v...)
}

func (b *CommandOutputBuffer) appendLog(topic, value []byte) {
	b.logs = append(b.logs, types.LogEntry{
		Topic: append([]byte(nil), topic...),
		Value: append([]byte(nil), value...),
	})
}

func (b *CommandOutputBuffer) reset() {
	b.returnValue = nil
	b.logs = nil
}
