package exec

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/parallelchain-io/pchain-runtime-sub000/staking"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
	"github.com/parallelchain-io/pchain-runtime-sub000/wasmhost"
)

// Dispatch runs one command against ctx, routing by its Kind through a
// closed switch rather than a generic-over-storage trait hierarchy
// (spec §9 "prefer a closed tagged union of command variants plus a
// dispatch function"). nvp is the transaction's live next-validator-set,
// shared and mutated across every staking command in the same
// transaction; the pipeline persists it once after the whole
// transaction completes.
func Dispatch(ctx *Context, cmd types.Command, nvp *staking.ValidatorSet) types.CommandReceipt {
	var (
		err             error
		amountWithdrawn uint64
		amountStaked    uint64
		amountUnstaked  uint64
	)

	switch cmd.Kind {
	case types.CmdTransfer:
		err = execTransfer(ctx, cmd.Transfer)
	case types.CmdDeploy:
		err = execDeploy(ctx, cmd.Deploy)
	case types.CmdCall:
		err = execCall(ctx, cmd.Call)
	case types.CmdCreatePool:
		err = execCreatePool(ctx, nvp, cmd.CreatePool)
	case types.CmdSetPoolSettings:
		err = execSetPoolSettings(ctx, cmd.SetPoolSettings)
	case types.CmdDeletePool:
		err = execDeletePool(ctx, nvp)
	case types.CmdCreateDeposit:
		err = execCreateDeposit(ctx, cmd.CreateDeposit)
	case types.CmdSetDepositSettings:
		err = execSetDepositSettings(ctx, cmd.SetDepositSettings)
	case types.CmdTopUpDeposit:
		err = execTopUpDeposit(ctx, cmd.TopUpDeposit)
	case types.CmdWithdrawDeposit:
		amountWithdrawn, err = execWithdrawDeposit(ctx, nvp, cmd.WithdrawDeposit)
	case types.CmdStakeDeposit:
		amountStaked, err = execStakeDeposit(ctx, nvp, cmd.StakeDeposit)
	case types.CmdUnstakeDeposit:
		amountUnstaked, err = execUnstakeDeposit(ctx, nvp, cmd.UnstakeDeposit)
	default:
		err = types.ErrInvalidCommands
	}

	status := statusFor(err)
	receipt := ctx.Meter.ExtractReceipt(cmd.Kind, status)
	receipt.AmountWithdrawn = amountWithdrawn
	receipt.AmountStaked = amountStaked
	receipt.AmountUnstaked = amountUnstaked
	return receipt
}

// StatusFor exposes statusFor to the pipeline package, which needs the
// same error-to-ExitStatus mapping for the view-call entry point (spec
// §6), which runs outside Dispatch.
func StatusFor(err error) types.ExitStatus { return statusFor(err) }

// statusFor maps an executor's error into the receipt's ExitStatus.
// A nil error is success; a TransitionError carries its own mapping;
// anything else (a wasm parse/runtime error surfacing from deep inside
// Call) is treated as a runtime failure.
func statusFor(err error) types.ExitStatus {
	if err == nil {
		return types.ExitSuccess
	}
	if te, ok := err.(types.TransitionError); ok {
		return te.ToExitStatus()
	}
	return types.ExitFailed
}

func execTransfer(ctx *Context, c *types.TransferCommand) error {
	ok, success := Transfer(ctx.Meter, ctx.CurrentAccount(), c.Recipient, c.Amount)
	if !ok {
		return ctx.gasExhaustedErr()
	}
	if !success {
		return types.ErrNotEnoughBalanceForTransfer
	}
	return nil
}

// execDeploy installs a new contract at a deterministic address derived
// from the signer and its current nonce (spec §6: sha256(signer ||
// nonce_le)), after validating the bytecode and confirming it exports
// the entrypoint function every contract must provide.
func execDeploy(ctx *Context, c *types.DeployCommand) error {
	addr := deriveContractAddress(ctx.Tx.Signer, ctx.Tx.Nonce)

	exists, ok := IsContract(ctx.Meter, addr)
	if !ok {
		return ctx.gasExhaustedErr()
	}
	if exists {
		return types.ErrContractAlreadyExists
	}

	mod, err := wasmhost.Parse(c.ContractCode)
	if err != nil {
		switch err {
		case wasmhost.ErrDisallowedOp:
			return types.ErrDisallowedOpcode
		case wasmhost.ErrTooShort, wasmhost.ErrBadMagic, wasmhost.ErrBadVersion,
			wasmhost.ErrTooLarge, wasmhost.ErrBadSection, wasmhost.ErrSectionOverrun,
			wasmhost.ErrDuplicateSec, wasmhost.ErrNoCodeSection:
			return types.ErrCannotCompile
		default:
			return types.ErrOtherDeployError
		}
	}
	if _, ok := mod.Exports[wasmEntrypoint]; !ok {
		return types.ErrNoExportedContractMethod
	}

	if !SetContractCode(ctx.Meter, addr, c.ContractCode) {
		return ctx.gasExhaustedErr()
	}
	if !SetCbiVersion(ctx.Meter, addr, c.CBIVersion) {
		return ctx.gasExhaustedErr()
	}
	ctx.Meter.WriteReturnValue(addr.Bytes())
	return nil
}

func deriveContractAddress(signer types.Address, nonce uint64) types.Address {
	var nonceLE [8]byte
	binary.LittleEndian.PutUint64(nonceLE[:], nonce)
	buf := make([]byte, 0, types.AddressLength+8)
	buf = append(buf, signer.Bytes()...)
	buf = append(buf, nonceLE[:]...)
	digest := sha256.Sum256(buf)
	return types.BytesToAddress(digest[:])
}

// execCall invokes the method a top-level CallCommand names on its
// target contract, routed through the same Context.Call a nested
// contract-to-contract call uses, so re-entry guards and gas/state
// sharing are identical at every depth.
func execCall(ctx *Context, c *types.CallCommand) error {
	ret, err := ctx.Call(c.Target, c.Method, c.Arguments, c.Amount)
	if err != nil {
		return internalizeIfNested(ctx, err)
	}
	if ret != nil {
		ctx.Meter.WriteReturnValue(ret)
	}
	return nil
}

// internalizeIfNested rewrites a bare wasmhost error bubbling out of a
// top-level Call into the command's own ErrRuntimeError, leaving
// TransitionErrors (already correctly classified) untouched.
func internalizeIfNested(ctx *Context, err error) error {
	if _, ok := err.(types.TransitionError); ok {
		return err
	}
	return types.ErrRuntimeError
}

func execCreatePool(ctx *Context, nvp *staking.ValidatorSet, c *types.CreatePoolCommand) error {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.CreatePool(store, nvp, ctx.CurrentAccount(), c.CommissionRate)
}

func execSetPoolSettings(ctx *Context, c *types.SetPoolSettingsCommand) error {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.SetPoolSettings(store, ctx.CurrentAccount(), c.CommissionRate)
}

func execDeletePool(ctx *Context, nvp *staking.ValidatorSet) error {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.DeletePool(store, nvp, ctx.CurrentAccount())
}

// execCreateDeposit debits the signer's account balance and opens the
// deposit record; the two effects are kept in this order so a failed
// debit never leaves an orphan deposit behind (spec §4.5 CreateDeposit).
func execCreateDeposit(ctx *Context, c *types.CreateDepositCommand) error {
	ok, success := Transfer(ctx.Meter, ctx.CurrentAccount(), types.NetworkAddress, c.Balance)
	if !ok {
		return ctx.gasExhaustedErr()
	}
	if !success {
		return types.ErrNotEnoughBalanceForTransfer
	}
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.CreateDeposit(store, c.Operator, ctx.CurrentAccount(), c.Balance, c.AutoStakeRewards)
}

func execSetDepositSettings(ctx *Context, c *types.SetDepositSettingsCommand) error {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.SetDepositSettings(store, c.Operator, ctx.CurrentAccount(), c.AutoStakeRewards)
}

func execTopUpDeposit(ctx *Context, c *types.TopUpDepositCommand) error {
	ok, success := Transfer(ctx.Meter, ctx.CurrentAccount(), types.NetworkAddress, c.Amount)
	if !ok {
		return ctx.gasExhaustedErr()
	}
	if !success {
		return types.ErrNotEnoughBalanceForTransfer
	}
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.TopUpDeposit(store, c.Operator, ctx.CurrentAccount(), c.Amount)
}

func execWithdrawDeposit(ctx *Context, nvp *staking.ValidatorSet, c *types.WithdrawDepositCommand) (uint64, error) {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	vp := store.LoadVP()
	pvp := store.LoadPVP()
	withdrawn, err := staking.WithdrawDeposit(store, nvp, vp, pvp, c.Operator, ctx.CurrentAccount(), c.MaxAmount)
	if err != nil {
		return 0, err
	}
	if ok, success := Transfer(ctx.Meter, types.NetworkAddress, ctx.CurrentAccount(), withdrawn); !ok {
		return 0, ctx.gasExhaustedErr()
	} else if !success {
		return 0, types.ErrInvalidStakeAmount
	}
	return withdrawn, nil
}

func execStakeDeposit(ctx *Context, nvp *staking.ValidatorSet, c *types.StakeDepositCommand) (uint64, error) {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.StakeDeposit(store, nvp, c.Operator, ctx.CurrentAccount(), c.MaxAmount)
}

func execUnstakeDeposit(ctx *Context, nvp *staking.ValidatorSet, c *types.UnstakeDepositCommand) (uint64, error) {
	store := staking.NewStore(newMeteredStakingStorage(ctx.Meter))
	return staking.UnstakeDeposit(store, nvp, c.Operator, ctx.CurrentAccount(), c.MaxAmount)
}
