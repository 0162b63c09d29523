package params

const (
	// ParamsKeyAdmin stores the admin identity, operators and pause switch.
	ParamsKeyAdmin = "admin/config"
	// ParamsKeyMinter stores the mint configuration.
	ParamsKeyMinter = "minter/config"
	// ParamsKeyFees stores the fee schedule applied to mints and sales.
	ParamsKeyFees = "fees/schedule"
	// ParamsKeyMarket stores the marketplace parameters.
	ParamsKeyMarket = "market/params"
)
