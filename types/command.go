package types

// CommandKind discriminates the closed set of command variants a
// transaction may carry. New variants are never added by a caller —
// the set is closed by the protocol, so a single dispatch switch (see
// exec.Dispatch) is exhaustive and needs no default fallthrough beyond
// an internal-error guard.
type CommandKind uint8

const (
	CmdTransfer CommandKind = iota
	CmdDeploy
	CmdCall
	CmdCreatePool
	CmdSetPoolSettings
	CmdDeletePool
	CmdCreateDeposit
	CmdSetDepositSettings
	CmdTopUpDeposit
	CmdWithdrawDeposit
	CmdStakeDeposit
	CmdUnstakeDeposit
	CmdNextEpoch
)

func (k CommandKind) String() string {
	switch k {
	case CmdTransfer:
		return "Transfer"
	case CmdDeploy:
		return "Deploy"
	case CmdCall:
		return "Call"
	case CmdCreatePool:
		return "CreatePool"
	case CmdSetPoolSettings:
		return "SetPoolSettings"
	case CmdDeletePool:
		return "DeletePool"
	case CmdCreateDeposit:
		return "CreateDeposit"
	case CmdSetDepositSettings:
		return "SetDepositSettings"
	case CmdTopUpDeposit:
		return "TopUpDeposit"
	case CmdWithdrawDeposit:
		return "WithdrawDeposit"
	case CmdStakeDeposit:
		return "StakeDeposit"
	case CmdUnstakeDeposit:
		return "UnstakeDeposit"
	case CmdNextEpoch:
		return "NextEpoch"
	default:
		return "Unknown"
	}
}

// HasExtendedReceiptFields reports whether the V2 receipt layout for this
// command kind carries extra fields beyond the uniform V1 set (spec §4.1).
func (k CommandKind) HasExtendedReceiptFields() bool {
	switch k {
	case CmdCall, CmdWithdrawDeposit, CmdStakeDeposit, CmdUnstakeDeposit:
		return true
	default:
		return false
	}
}

// Command is a closed tagged union over the transaction command variants.
// Exactly one of the pointer fields matching Kind is non-nil; DeletePool
// and NextEpoch carry no payload.
type Command struct {
	Kind CommandKind

	Transfer           *TransferCommand
	Deploy              *DeployCommand
	Call                *CallCommand
	CreatePool          *CreatePoolCommand
	SetPoolSettings     *SetPoolSettingsCommand
	CreateDeposit       *CreateDepositCommand
	SetDepositSettings  *SetDepositSettingsCommand
	TopUpDeposit        *TopUpDepositCommand
	WithdrawDeposit     *WithdrawDepositCommand
	StakeDeposit        *StakeDepositCommand
	UnstakeDeposit      *UnstakeDepositCommand
}

// TransferCommand moves Amount grays from the signer to Recipient.
type TransferCommand struct {
	Recipient Address
	Amount    uint64
}

// DeployCommand installs ContractCode at a derived contract address
// (spec §6: sha256(signer || nonce_le)).
type DeployCommand struct {
	ContractCode []byte
	CBIVersion   uint32
}

// CallCommand invokes Method on the contract at Target.
type CallCommand struct {
	Target    Address
	Method    string
	Arguments [][]byte
	Amount    *uint64 // nil means no value transfer
}

// CreatePoolCommand registers the signer as a pool operator.
type CreatePoolCommand struct {
	CommissionRate uint8
}

// SetPoolSettingsCommand updates the signer's pool commission rate.
type SetPoolSettingsCommand struct {
	CommissionRate uint8
}

// CreateDepositCommand opens a deposit from the signer to Operator's pool.
type CreateDepositCommand struct {
	Operator         Address
	Balance          uint64
	AutoStakeRewards bool
}

// SetDepositSettingsCommand updates an existing deposit's auto-stake flag.
type SetDepositSettingsCommand struct {
	Operator         Address
	AutoStakeRewards bool
}

// TopUpDepositCommand adds Amount grays to an existing deposit.
type TopUpDepositCommand struct {
	Operator Address
	Amount   uint64
}

// WithdrawDepositCommand withdraws up to MaxAmount grays from a deposit,
// bounded by the stake currently committed to a validator-set committee.
type WithdrawDepositCommand struct {
	Operator  Address
	MaxAmount uint64
}

// StakeDepositCommand promotes up to MaxAmount grays of deposit balance
// into stake power.
type StakeDepositCommand struct {
	Operator  Address
	MaxAmount uint64
}

// UnstakeDepositCommand demotes up to MaxAmount grays of stake power back
// to unstaked deposit balance.
type UnstakeDepositCommand struct {
	Operator  Address
	MaxAmount uint64
}

// Constructors. Each pins Kind alongside its payload so callers cannot
// construct an inconsistent Command by hand.

func NewTransfer(recipient Address, amount uint64) Command {
	return Command{Kind: CmdTransfer, Transfer: &TransferCommand{Recipient: recipient, Amount: amount}}
}

func NewDeploy(code []byte, cbi uint32) Command {
	return Command{Kind: CmdDeploy, Deploy: &DeployCommand{ContractCode: code, CBIVersion: cbi}}
}

func NewCall(target Address, method string, args [][]byte, amount *uint64) Command {
	return Command{Kind: CmdCall, Call: &CallCommand{Target: target, Method: method, Arguments: args, Amount: amount}}
}

func NewCreatePool(rate uint8) Command {
	return Command{Kind: CmdCreatePool, CreatePool: &CreatePoolCommand{CommissionRate: rate}}
}

func NewSetPoolSettings(rate uint8) Command {
	return Command{Kind: CmdSetPoolSettings, SetPoolSettings: &SetPoolSettingsCommand{CommissionRate: rate}}
}

func NewDeletePool() Command {
	return Command{Kind: CmdDeletePool}
}

func NewCreateDeposit(operator Address, balance uint64, autoStake bool) Command {
	return Command{Kind: CmdCreateDeposit, CreateDeposit: &CreateDepositCommand{Operator: operator, Balance: balance, AutoStakeRewards: autoStake}}
}

func NewSetDepositSettings(operator Address, autoStake bool) Command {
	return Command{Kind: CmdSetDepositSettings, SetDepositSettings: &SetDepositSettingsCommand{Operator: operator, AutoStakeRewards: autoStake}}
}

func NewTopUpDeposit(operator Address, amount uint64) Command {
	return Command{Kind: CmdTopUpDeposit, TopUpDeposit: &TopUpDepositCommand{Operator: operator, Amount: amount}}
}

func NewWithdrawDeposit(operator Address, maxAmount uint64) Command {
	return Command{Kind: CmdWithdrawDeposit, WithdrawDeposit: &WithdrawDepositCommand{Operator: operator, MaxAmount: maxAmount}}
}

func NewStakeDeposit(operator Address, maxAmount uint64) Command {
	return Command{Kind: CmdStakeDeposit, StakeDeposit: &StakeDepositCommand{Operator: operator, MaxAmount: maxAmount}}
}

func NewUnstakeDeposit(operator Address, maxAmount uint64) Command {
	return Command{Kind: CmdUnstakeDeposit, UnstakeDeposit: &UnstakeDepositCommand{Operator: operator, MaxAmount: maxAmount}}
}

func NewNextEpoch() Command {
	return Command{Kind: CmdNextEpoch}
}
