package codec

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

func PutAddress(w *Writer, a types.Address) { w.PutFixed(a.Bytes()) }

func GetAddress(r *Reader) (types.Address, error) {
	b, err := r.Fixed(types.AddressLength)
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(b), nil
}

func PutHash32(w *Writer, h types.Hash32) { w.PutFixed(h.Bytes()) }

func GetHash32(r *Reader) (types.Hash32, error) {
	b, err := r.Fixed(32)
	if err != nil {
		return types.Hash32{}, err
	}
	return types.BytesToHash32(b), nil
}

func PutSignature(w *Writer, s types.Signature64) { w.PutFixed(s[:]) }

func GetSignature(r *Reader) (types.Signature64, error) {
	b, err := r.Fixed(64)
	if err != nil {
		return types.Signature64{}, err
	}
	var s types.Signature64
	copy(s[:], b)
	return s, nil
}

// putOptionalUint64 encodes a *uint64 as a presence flag followed by the
// value when present, used for CallCommand.Amount.
func putOptionalUint64(w *Writer, v *uint64) {
	if v == nil {
		w.PutBool(false)
		return
	}
	w.PutBool(true)
	w.PutUint64(*v)
}

func getOptionalUint64(r *Reader) (*uint64, error) {
	present, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// EncodeCommand appends the wire form of cmd to w: one discriminant
// byte (types.CommandKind) followed by the variant's fields in
// declaration order.
func EncodeCommand(w *Writer, cmd types.Command) error {
	w.PutUint8(uint8(cmd.Kind))
	switch cmd.Kind {
	case types.CmdTransfer:
		PutAddress(w, cmd.Transfer.Recipient)
		w.PutUint64(cmd.Transfer.Amount)
	case types.CmdDeploy:
		w.PutBytes(cmd.Deploy.ContractCode)
		w.PutUint32(cmd.Deploy.CBIVersion)
	case types.CmdCall:
		PutAddress(w, cmd.Call.Target)
		w.PutBytes([]byte(cmd.Call.Method))
		w.PutUint32(uint32(len(cmd.Call.Arguments)))
		for _, a := range cmd.Call.Arguments {
			w.PutBytes(a)
		}
		putOptionalUint64(w, cmd.Call.Amount)
	case types.CmdCreatePool:
		w.PutUint8(cmd.CreatePool.CommissionRate)
	case types.CmdSetPoolSettings:
		w.PutUint8(cmd.SetPoolSettings.CommissionRate)
	case types.CmdDeletePool:
		// no payload
	case types.CmdCreateDeposit:
		PutAddress(w, cmd.CreateDeposit.Operator)
		w.PutUint64(cmd.CreateDeposit.Balance)
		w.PutBool(cmd.CreateDeposit.AutoStakeRewards)
	case types.CmdSetDepositSettings:
		PutAddress(w, cmd.SetDepositSettings.Operator)
		w.PutBool(cmd.SetDepositSettings.AutoStakeRewards)
	case types.CmdTopUpDeposit:
		PutAddress(w, cmd.TopUpDeposit.Operator)
		w.PutUint64(cmd.TopUpDeposit.Amount)
	case types.CmdWithdrawDeposit:
		PutAddress(w, cmd.WithdrawDeposit.Operator)
		w.PutUint64(cmd.WithdrawDeposit.MaxAmount)
	case types.CmdStakeDeposit:
		PutAddress(w, cmd.StakeDeposit.Operator)
		w.PutUint64(cmd.StakeDeposit.MaxAmount)
	case types.CmdUnstakeDeposit:
		PutAddress(w, cmd.UnstakeDeposit.Operator)
		w.PutUint64(cmd.UnstakeDeposit.MaxAmount)
	case types.CmdNextEpoch:
		// no payload
	default:
		return ErrUnknownVariant
	}
	return nil
}

// DecodeCommand reads one discriminant byte and the matching variant.
func DecodeCommand(r *Reader) (types.Command, error) {
	kindByte, err := r.Uint8()
	if err != nil {
		return types.Command{}, err
	}
	kind := types.CommandKind(kindByte)
	switch kind {
	case types.CmdTransfer:
		recipient, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		amount, err := r.Uint64()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewTransfer(recipient, amount), nil

	case types.CmdDeploy:
		code, err := r.Bytes()
		if err != nil {
			return types.Command{}, err
		}
		cbi, err := r.Uint32()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewDeploy(code, cbi), nil

	case types.CmdCall:
		target, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		methodBytes, err := r.Bytes()
		if err != nil {
			return types.Command{}, err
		}
		argc, err := r.Uint32()
		if err != nil {
			return types.Command{}, err
		}
		args := make([][]byte, 0, argc)
		for i := uint32(0); i < argc; i++ {
			a, err := r.Bytes()
			if err != nil {
				return types.Command{}, err
			}
			args = append(args, a)
		}
		amount, err := getOptionalUint64(r)
		if err != nil {
			return types.Command{}, err
		}
		return types.NewCall(target, string(methodBytes), args, amount), nil

	case types.CmdCreatePool:
		rate, err := r.Uint8()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewCreatePool(rate), nil

	case types.CmdSetPoolSettings:
		rate, err := r.Uint8()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewSetPoolSettings(rate), nil

	case types.CmdDeletePool:
		return types.NewDeletePool(), nil

	case types.CmdCreateDeposit:
		operator, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		balance, err := r.Uint64()
		if err != nil {
			return types.Command{}, err
		}
		autoStake, err := r.Bool()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewCreateDeposit(operator, balance, autoStake), nil

	case types.CmdSetDepositSettings:
		operator, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		autoStake, err := r.Bool()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewSetDepositSettings(operator, autoStake), nil

	case types.CmdTopUpDeposit:
		operator, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		amount, err := r.Uint64()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewTopUpDeposit(operator, amount), nil

	case types.CmdWithdrawDeposit:
		operator, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		maxAmount, err := r.Uint64()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewWithdrawDeposit(operator, maxAmount), nil

	case types.CmdStakeDeposit:
		operator, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		maxAmount, err := r.Uint64()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewStakeDeposit(operator, maxAmount), nil

	case types.CmdUnstakeDeposit:
		operator, err := GetAddress(r)
		if err != nil {
			return types.Command{}, err
		}
		maxAmount, err := r.Uint64()
		if err != nil {
			return types.Command{}, err
		}
		return types.NewUnstakeDeposit(operator, maxAmount), nil

	case types.CmdNextEpoch:
		return types.NewNextEpoch(), nil

	default:
		return types.Command{}, ErrUnknownVariant
	}
}

// EncodeTransaction serializes a full transaction.
func EncodeTransaction(tx *types.Transaction) []byte {
	w := NewWriter()
	PutAddress(w, tx.Signer)
	w.PutUint64(tx.Nonce)
	PutHash32(w, tx.Hash)
	PutSignature(w, tx.Signature)
	w.PutUint64(tx.GasLimit)
	w.PutUint64(tx.MaxBaseFeePerGas)
	w.PutUint64(tx.PriorityFeePerGas)
	w.PutUint32(uint32(len(tx.Commands)))
	for _, c := range tx.Commands {
		// Individual command encode errors cannot occur for
		// well-formed Command values produced via the New*
		// constructors; a malformed Kind is a programmer error.
		_ = EncodeCommand(w, c)
	}
	return w.Bytes()
}

// DecodeTransaction parses a transaction previously produced by
// EncodeTransaction.
func DecodeTransaction(buf []byte) (*types.Transaction, error) {
	r := NewReader(buf)
	tx := &types.Transaction{}
	var err error
	if tx.Signer, err = GetAddress(r); err != nil {
		return nil, err
	}
	if tx.Nonce, err = r.Uint64(); err != nil {
		return nil, err
	}
	if tx.Hash, err = GetHash32(r); err != nil {
		return nil, err
	}
	if tx.Signature, err = GetSignature(r); err != nil {
		return nil, err
	}
	if tx.GasLimit, err = r.Uint64(); err != nil {
		return nil, err
	}
	if tx.MaxBaseFeePerGas, err = r.Uint64(); err != nil {
		return nil, err
	}
	if tx.PriorityFeePerGas, err = r.Uint64(); err != nil {
		return nil, err
	}
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	tx.Commands = make([]types.Command, 0, count)
	for i := uint32(0); i < count; i++ {
		cmd, err := DecodeCommand(r)
		if err != nil {
			return nil, err
		}
		tx.Commands = append(tx.Commands, cmd)
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return tx, nil
}
