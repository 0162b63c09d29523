package nft

const (
	EventTypeMinted            = "nft.minted"
	EventTypeTransferred       = "nft.transferred"
	EventTypeAttributesUpdated = "nft.attributes_updated"
)
