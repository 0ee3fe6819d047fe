package constants

const (
	AppName      = "near-transfer"
	KeystoreFile = "keystore.json"

	SchemaV1      = 1
	FilePerm      = 0o600
	DirectoryPerm = 0o700

	// NativeSymbol is the registry symbol of the network's base coin.
	NativeSymbol = "NEAR"

	// NativeDecimals is the number of decimal places between NEAR and yoctoNEAR.
	NativeDecimals = 24

	// TokenTransferGas is the gas budget attached to every ft_transfer call (300 Tgas).
	TokenTransferGas uint64 = 300_000_000_000_000

	// DefaultTokenDeposit is the yoctoNEAR attached to ft_transfer, required by NEP-141.
	DefaultTokenDeposit = "1"

	// DefaultRegistrationDeposit covers NEP-145 storage_deposit for one account (0.00125 NEAR).
	DefaultRegistrationDeposit = "1250000000000000000000"

	DefaultPrivateKeyEnv = "PRIVATE_KEY"

	// AAD for keystore encryption (must match on decrypt).
	KeystoreAAD = "near-transfer:keystore:v1"
)
