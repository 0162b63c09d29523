package types

// BlockInfo carries the host-provided block context of an execution.
type BlockInfo struct {
	Height  uint64 `json:"height"`
	Time    uint64 `json:"time"` // unix seconds
	ChainID string `json:"chainId"`
}

// Env is the read-only execution environment supplied by the host runtime.
type Env struct {
	Block    BlockInfo `json:"block"`
	Contract Address   `json:"contract"`
}

// Now returns the block time used for every expiration check.
func (e Env) Now() uint64 { return e.Block.Time }

// MessageInfo identifies the caller of an entry point and the funds attached
// to the call.
type MessageInfo struct {
	Sender Address `json:"sender"`
	Funds  Coins   `json:"funds"`
}
