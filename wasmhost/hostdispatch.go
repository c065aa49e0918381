package wasmhost

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/codec"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// Host function names a contract may import, resolved by name rather
// than by a fixed numeric table: the teacher's own eWASM ABI binds
// imports by (module, field) string pair, not by index, and this
// engine keeps that convention (spec §4.6).
const (
	hostGet               = "get"
	hostSet               = "set"
	hostGetNetworkStorage = "get_network_storage"
	hostBalance           = "balance"
	hostBlockHeight       = "block_height"
	hostBlockTimestamp    = "block_timestamp"
	hostPrevBlockHash     = "prev_block_hash"
	hostCallingAccount    = "calling_account"
	hostCurrentAccount    = "current_account"
	hostMethod            = "method"
	hostArguments         = "arguments"
	hostAmount            = "amount"
	hostIsInternalCall    = "is_internal_call"
	hostTransactionHash   = "transaction_hash"
	hostCall              = "call"
	hostTransfer          = "transfer"
	hostReturnValue       = "return_value"
	hostLog               = "log"
	hostSha256            = "sha256"
	hostKeccak256         = "keccak256"
	hostRipemd160         = "ripemd160"
	hostVerifyEd25519     = "verify_ed25519"

	hostDeferCreateDeposit    = "defer_create_deposit"
	hostDeferSetSettings      = "defer_set_settings_deposit"
	hostDeferTopUpDeposit     = "defer_topup_deposit"
	hostDeferWithdrawDeposit  = "defer_withdraw_deposit"
	hostDeferStakeDeposit     = "defer_stake_deposit"
	hostDeferUnstakeDeposit   = "defer_unstake_deposit"
)

// callHost pops the arguments a given host function expects off the
// value stack (each argument is a (memPtr, memLen) pair for variable-
// length data, or a raw integer for scalars), performs the host call
// against s.host, and pushes any declared return value.
//
// Contract-side memory layout: all byte-slice arguments are passed as
// an (offset, length) pair into s.memory, mirroring the teacher's own
// eWASM calling convention in ewasm_engine.go.
// viewModeStubs is the set of host functions that become failing stubs
// under view-mode execution (spec §4.6 "View-call mode"): every
// mutating function, plus the context accessors that depend on a real
// enclosing transaction.
var viewModeStubs = map[string]bool{
	hostSet:                  true,
	hostTransfer:             true,
	hostDeferCreateDeposit:   true,
	hostDeferSetSettings:     true,
	hostDeferTopUpDeposit:    true,
	hostDeferWithdrawDeposit: true,
	hostDeferStakeDeposit:    true,
	hostDeferUnstakeDeposit:  true,
	hostBlockHeight:          true,
	hostPrevBlockHash:        true,
	hostCallingAccount:       true,
	hostAmount:               true,
	hostTransactionHash:      true,
}

func (s *execState) callHost(importIdx int) error {
	if importIdx < 0 || importIdx >= len(s.module.Imports) {
		return ErrNoFunction
	}
	name := s.module.Imports[importIdx].Name

	if s.host.ViewMode() && viewModeStubs[name] {
		return &viewModeMutationError{fn: name}
	}

	switch name {
	case hostGet:
		keyPtr, keyLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		key, err := s.readMem(keyPtr, keyLen)
		if err != nil {
			return err
		}
		val, found := s.host.Get(key)
		return s.pushBytesResult(val, found)

	case hostSet:
		valPtr, valLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		keyPtr, keyLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		key, err := s.readMem(keyPtr, keyLen)
		if err != nil {
			return err
		}
		val, err := s.readMem(valPtr, valLen)
		if err != nil {
			return err
		}
		s.host.Set(key, val)
		return nil

	case hostGetNetworkStorage:
		keyPtr, keyLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		key, err := s.readMem(keyPtr, keyLen)
		if err != nil {
			return err
		}
		val, found := s.host.GetNetworkStorage(key)
		return s.pushBytesResult(val, found)

	case hostBalance:
		addr, err := s.popAddress()
		if err != nil {
			return err
		}
		s.push(s.host.Balance(addr))
		return nil

	case hostBlockHeight:
		s.push(s.host.BlockHeight())
		return nil

	case hostBlockTimestamp:
		s.push(uint64(s.host.BlockTimestamp()))
		return nil

	case hostPrevBlockHash:
		h := s.host.PrevBlockHash()
		return s.writeMemResult(h[:])

	case hostCallingAccount:
		return s.pushAddress(s.host.CallingAccount())

	case hostCurrentAccount:
		return s.pushAddress(s.host.CurrentAccount())

	case hostMethod:
		return s.writeMemResult([]byte(s.host.Method()))

	case hostArguments:
		w := codec.NewWriter()
		for _, a := range s.host.Arguments() {
			w.PutBytes(a)
		}
		return s.writeMemResult(w.Bytes())

	case hostAmount:
		s.push(s.host.Amount())
		return nil

	case hostIsInternalCall:
		if s.host.IsInternalCall() {
			s.push(1)
		} else {
			s.push(0)
		}
		return nil

	case hostTransactionHash:
		h := s.host.TransactionHash()
		return s.writeMemResult(h[:])

	case hostCall:
		return s.dispatchCall()

	case hostDeferCreateDeposit, hostDeferSetSettings, hostDeferTopUpDeposit,
		hostDeferWithdrawDeposit, hostDeferStakeDeposit, hostDeferUnstakeDeposit:
		return s.dispatchDefer(name)

	case hostTransfer:
		amount, err := s.pop()
		if err != nil {
			return err
		}
		target, err := s.popAddress()
		if err != nil {
			return err
		}
		if err := s.host.Transfer(target, amount); err != nil {
			s.push(1)
			return nil
		}
		s.push(0)
		return nil

	case hostReturnValue:
		ptr, ln, err := s.popPtrLen()
		if err != nil {
			return err
		}
		v, err := s.readMem(ptr, ln)
		if err != nil {
			return err
		}
		s.host.ReturnValue(v)
		return nil

	case hostLog:
		valPtr, valLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		topicPtr, topicLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		topic, err := s.readMem(topicPtr, topicLen)
		if err != nil {
			return err
		}
		val, err := s.readMem(valPtr, valLen)
		if err != nil {
			return err
		}
		s.host.Log(topic, val)
		return nil

	case hostSha256:
		ptr, ln, err := s.popPtrLen()
		if err != nil {
			return err
		}
		msg, err := s.readMem(ptr, ln)
		if err != nil {
			return err
		}
		h := s.host.Sha256(msg)
		return s.writeMemResult(h[:])

	case hostKeccak256:
		ptr, ln, err := s.popPtrLen()
		if err != nil {
			return err
		}
		msg, err := s.readMem(ptr, ln)
		if err != nil {
			return err
		}
		h := s.host.Keccak256(msg)
		return s.writeMemResult(h[:])

	case hostRipemd160:
		ptr, ln, err := s.popPtrLen()
		if err != nil {
			return err
		}
		msg, err := s.readMem(ptr, ln)
		if err != nil {
			return err
		}
		h := s.host.Ripemd160(msg)
		return s.writeMemResult(h[:])

	case hostVerifyEd25519:
		sigPtr, sigLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		msgPtr, msgLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		pubPtr, pubLen, err := s.popPtrLen()
		if err != nil {
			return err
		}
		pub, err := s.readMem(pubPtr, pubLen)
		if err != nil {
			return err
		}
		msg, err := s.readMem(msgPtr, msgLen)
		if err != nil {
			return err
		}
		sig, err := s.readMem(sigPtr, sigLen)
		if err != nil {
			return err
		}
		if s.host.VerifyEd25519(pub, msg, sig) {
			s.push(1)
		} else {
			s.push(0)
		}
		return nil

	default:
		return ErrNoFunction
	}
}

// dispatchCall implements the cross-contract call host function: it
// pops (targetAddr, methodPtr, methodLen, argsPtr, argsLen, amountOrNone)
// and invokes host.Call, pushing 0 on success and 1 on failure and writing
// the returned bytes back into the caller's memory for the contract to
// read via a follow-up get-return-data style export (spec §4.6).
func (s *execState) dispatchCall() error {
	hasAmount, err := s.pop()
	if err != nil {
		return err
	}
	var amount *uint64
	if hasAmount != 0 {
		a, err := s.pop()
		if err != nil {
			return err
		}
		amount = &a
	}
	argsPtr, argsLen, err := s.popPtrLen()
	if err != nil {
		return err
	}
	methodPtr, methodLen, err := s.popPtrLen()
	if err != nil {
		return err
	}
	target, err := s.popAddress()
	if err != nil {
		return err
	}
	method, err := s.readMem(methodPtr, methodLen)
	if err != nil {
		return err
	}
	argsBlob, err := s.readMem(argsPtr, argsLen)
	if err != nil {
		return err
	}
	result, callErr := s.host.Call(target, string(method), [][]byte{argsBlob}, amount)
	if callErr != nil {
		s.push(1)
		return nil
	}
	if err := s.writeMemResult(result); err != nil {
		return err
	}
	s.push(0)
	return nil
}

// dispatchDefer pops a (ptr, len) payload, decodes it per the fixed
// layout for the named defer_* host function (operator address
// followed by that command's scalar fields), and appends the resulting
// staking/deposit Command to the transaction's deferred queue (spec
// §4.4, §4.6). The owner of a deferred command is always the current
// contract account — a contract may only defer staking actions on its
// own behalf.
func (s *execState) dispatchDefer(name string) error {
	ptr, ln, err := s.popPtrLen()
	if err != nil {
		return err
	}
	payload, err := s.readMem(ptr, ln)
	if err != nil {
		return err
	}
	r := codec.NewReader(payload)
	operator, err := codec.GetAddress(r)
	if err != nil {
		return err
	}

	var cmd types.Command
	switch name {
	case hostDeferCreateDeposit:
		balance, err := r.Uint64()
		if err != nil {
			return err
		}
		autoStake, err := r.Bool()
		if err != nil {
			return err
		}
		cmd = types.NewCreateDeposit(operator, balance, autoStake)
	case hostDeferSetSettings:
		autoStake, err := r.Bool()
		if err != nil {
			return err
		}
		cmd = types.NewSetDepositSettings(operator, autoStake)
	case hostDeferTopUpDeposit:
		amount, err := r.Uint64()
		if err != nil {
			return err
		}
		cmd = types.NewTopUpDeposit(operator, amount)
	case hostDeferWithdrawDeposit:
		maxAmount, err := r.Uint64()
		if err != nil {
			return err
		}
		cmd = types.NewWithdrawDeposit(operator, maxAmount)
	case hostDeferStakeDeposit:
		maxAmount, err := r.Uint64()
		if err != nil {
			return err
		}
		cmd = types.NewStakeDeposit(operator, maxAmount)
	case hostDeferUnstakeDeposit:
		maxAmount, err := r.Uint64()
		if err != nil {
			return err
		}
		cmd = types.NewUnstakeDeposit(operator, maxAmount)
	}
	s.host.DeferCommand(cmd)
	return nil
}

// popPtrLen pops (ptr, len) with len on top, matching the push order a
// compiler emits for a two-argument call (first arg pushed first).
func (s *execState) popPtrLen() (ptr, length uint64, err error) {
	length, err = s.pop()
	if err != nil {
		return 0, 0, err
	}
	ptr, err = s.pop()
	if err != nil {
		return 0, 0, err
	}
	return ptr, length, nil
}

func (s *execState) popAddress() (types.Address, error) {
	ptr, err := s.pop()
	if err != nil {
		return types.Address{}, err
	}
	b, err := s.readMem(ptr, uint64(len(types.Address{})))
	if err != nil {
		return types.Address{}, err
	}
	var addr types.Address
	copy(addr[:], b)
	return addr, nil
}

func (s *execState) pushAddress(addr types.Address) error {
	return s.writeMemResult(addr[:])
}

func (s *execState) readMem(ptr, length uint64) ([]byte, error) {
	if ptr+length > uint64(len(s.memory)) || ptr+length < ptr {
		return nil, ErrMemoryOOB
	}
	out := make([]byte, length)
	copy(out, s.memory[ptr:ptr+length])
	return out, nil
}

// writeMemResult writes data to the top of linear memory (growing it if
// needed) and pushes its offset, giving the contract a pointer it can
// read back via local.get without a separate host accessor.
func (s *execState) writeMemResult(data []byte) error {
	offset := len(s.memory) - len(data) - 8
	if offset < 0 {
		grown := make([]byte, len(s.memory)+pageSize)
		copy(grown, s.memory)
		s.memory = grown
		offset = len(s.memory) - len(data) - 8
	}
	copy(s.memory[offset:], data)
	s.push(uint64(offset))
	s.push(uint64(len(data)))
	return nil
}

// pushBytesResult pushes (ptr, len, found) for a storage-style read
// that may come back absent.
func (s *execState) pushBytesResult(val []byte, found bool) error {
	if !found {
		s.push(0)
		s.push(0)
		s.push(0)
		return nil
	}
	if err := s.writeMemResult(val); err != nil {
		return err
	}
	s.push(1)
	return nil
}
