package market

const (
	EventTypeAskCreated             = "market.ask_created"
	EventTypeAskCancelled           = "market.ask_cancelled"
	EventTypeAskExpired             = "market.ask_expired"
	EventTypeAskRemoved             = "market.ask_removed"
	EventTypeBidPlaced              = "market.bid_placed"
	EventTypeBidCancelled           = "market.bid_cancelled"
	EventTypeBidExpired             = "market.bid_expired"
	EventTypeCollectionBidPlaced    = "market.collection_bid_placed"
	EventTypeCollectionBidCancelled = "market.collection_bid_cancelled"
	EventTypeCollectionBidExpired   = "market.collection_bid_expired"
	EventTypeAuctionCreated         = "market.auction_created"
	EventTypeAuctionClosed          = "market.auction_closed"
	EventTypeSale                   = "market.sale"
	EventTypeParamsUpdated          = "market.params_updated"
)

// Sale kinds reported on EventTypeSale.
const (
	SaleKindBuy                 = "buy"
	SaleKindAcceptBid           = "accept_bid"
	SaleKindAcceptCollectionBid = "accept_collection_bid"
	SaleKindAuction             = "auction"
)
