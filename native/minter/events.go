package minter

const (
	EventTypeMinted         = "minter.minted"
	EventTypeConfigUpdated  = "minter.config_updated"
	EventTypeMembersAdded   = "minter.members_added"
	EventTypeMembersRemoved = "minter.members_removed"
)
