package intents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"intents-agent/internal/asset"
	xerrors "intents-agent/internal/errors"
	"intents-agent/internal/units"
	"intents-agent/pkg/logger"
)

const (
	DefaultIntentsContract = "intents.near"
	DefaultStorageDeposit  = "0.00125"

	// Gas budgets in gas units; 1 TGas = 10^12.
	GasStorageDeposit = "30000000000000"
	GasNearDeposit    = "30000000000000"
	GasWrapTransfer   = "100000000000000"
	GasTokenTransfer  = "300000000000000"

	// OneYocto is the attached deposit required by ft_transfer_call.
	OneYocto = "1"

	nextToolInstruction = "Use this data to call `generate-transaction` tool to generate a transaction."
)

// Action 描述一次合约调用，是多步链上操作中的一个步骤。
type Action struct {
	MethodName   string `json:"methodName"`
	Args         any    `json:"args"`
	Gas          string `json:"gas"`
	Deposit      string `json:"deposit"`
	ContractName string `json:"contractName"`
}

// StorageDepositArgs 对应 storage_deposit 的参数，AccountID 为空表示为调用者注册。
type StorageDepositArgs struct {
	AccountID        *string `json:"account_id"`
	RegistrationOnly bool    `json:"registration_only"`
}

// TransferCallArgs 对应 ft_transfer_call 的参数。
type TransferCallArgs struct {
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
	Msg        string `json:"msg"`
}

// Payload 是返回给智能体的动作序列与下一步指引。
type Payload struct {
	Transactions []Action `json:"transactions"`
	Prompt       string   `json:"prompt"`
}

// Config 描述构建交易载荷所需的固定参数。
type Config struct {
	IntentsContract string
	StorageDeposit  string
	// AuditLogger 记录 payload_built，为空时使用 logger.Audit()。
	AuditLogger *slog.Logger
}

// Builder 根据资产目录生成存入 intents 合约的动作序列。不做签名，也不访问网络。
type Builder struct {
	catalog         *asset.Catalog
	intentsContract string
	storageDeposit  string
	audit           *slog.Logger
}

// NewBuilder 构造 Builder，并预先校验 storage deposit 金额。
func NewBuilder(catalog *asset.Catalog, cfg Config) (*Builder, error) {
	if catalog == nil {
		catalog = asset.DefaultCatalog()
	}
	intentsContract := strings.TrimSpace(cfg.IntentsContract)
	if intentsContract == "" {
		intentsContract = DefaultIntentsContract
	}
	storage := strings.TrimSpace(cfg.StorageDeposit)
	if storage == "" {
		storage = DefaultStorageDeposit
	}
	storageAtomic, err := units.ToAtomic(storage, catalog.Get(asset.NEAR).Decimals)
	if err != nil {
		return nil, fmt.Errorf("storage deposit 配置无效: %w", err)
	}
	audit := cfg.AuditLogger
	if audit == nil {
		audit = logger.Audit()
	}
	return &Builder{
		catalog:         catalog,
		intentsContract: intentsContract,
		storageDeposit:  storageAtomic,
		audit:           audit,
	}, nil
}

// DepositNear 生成 wrap NEAR 并转入 intents 合约的三步动作：
// storage_deposit -> near_deposit -> ft_transfer_call。
func (b *Builder) DepositNear(ctx context.Context, amountHuman string) (*Payload, error) {
	wnear := b.catalog.Get(asset.NEAR)
	amount, err := b.atomic(amountHuman, wnear)
	if err != nil {
		return nil, err
	}

	actions := []Action{
		{
			MethodName:   "storage_deposit",
			Args:         StorageDepositArgs{AccountID: nil, RegistrationOnly: true},
			Gas:          GasStorageDeposit,
			Deposit:      b.storageDeposit,
			ContractName: wnear.Contract,
		},
		{
			MethodName:   "near_deposit",
			Args:         struct{}{},
			Gas:          GasNearDeposit,
			Deposit:      amount,
			ContractName: wnear.Contract,
		},
		{
			MethodName:   "ft_transfer_call",
			Args:         TransferCallArgs{ReceiverID: b.intentsContract, Amount: amount, Msg: ""},
			Gas:          GasWrapTransfer,
			Deposit:      OneYocto,
			ContractName: wnear.Contract,
		},
	}
	return b.finish(ctx, "deposit_near", amount, actions)
}

// DepositUSDC 生成把 USDC 通过 ft_transfer_call 转入接收方的动作。
// receiverID 为空时使用 intents 合约。
func (b *Builder) DepositUSDC(ctx context.Context, amountHuman, receiverID string) (*Payload, error) {
	usdc := b.catalog.Get(asset.USDC)
	amount, err := b.atomic(amountHuman, usdc)
	if err != nil {
		return nil, err
	}
	receiver := strings.TrimSpace(receiverID)
	if receiver == "" {
		receiver = b.intentsContract
	}

	actions := []Action{
		{
			MethodName:   "ft_transfer_call",
			Args:         TransferCallArgs{ReceiverID: receiver, Amount: amount, Msg: ""},
			Gas:          GasTokenTransfer,
			Deposit:      OneYocto,
			ContractName: usdc.Contract,
		},
	}
	return b.finish(ctx, "deposit_usdc", amount, actions)
}

func (b *Builder) atomic(amountHuman string, a asset.Asset) (string, error) {
	amount, err := units.ParsePositive(amountHuman)
	if err != nil {
		return "", err
	}
	atomic := units.FromDecimal(amount, a.Decimals)
	if atomic == "0" {
		return "", xerrors.New(units.CodeInvalidAmount, "amount is below the smallest unit of "+string(a.Symbol))
	}
	return atomic, nil
}

func (b *Builder) finish(ctx context.Context, kind, amount string, actions []Action) (*Payload, error) {
	prompt, err := RenderPrompt(actions)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, b.audit).Info("payload_built",
		slog.String("kind", kind),
		slog.String("amount", amount),
		slog.Int("actions", len(actions)),
	)
	return &Payload{Transactions: actions, Prompt: prompt}, nil
}

// RenderPrompt 把动作序列格式化为 JSON 数组，并附上下一步应调用的工具。
func RenderPrompt(actions []Action) (string, error) {
	items := make([]string, 0, len(actions))
	for _, action := range actions {
		encoded, err := json.MarshalIndent(action, "", "  ")
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeUnknown, err, "failed to encode transaction payload")
		}
		items = append(items, string(encoded))
	}

	var builder strings.Builder
	builder.WriteString("\n[\n  ")
	builder.WriteString(strings.Join(items, ",\n  "))
	builder.WriteString("\n]\n")
	builder.WriteString(nextToolInstruction)
	return builder.String(), nil
}
