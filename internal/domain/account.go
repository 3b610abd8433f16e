package domain

// Account represents an identified owner of activities and asset
// balances. Only the identifier and the connection list matter to this
// core; everything else about an account lives in the surrounding
// application.
type Account struct {
	ID string
	// ConnectedAccounts lists other account identifiers this account is
	// linked to (joint or IRA relationships). The graph is directed and
	// may contain cycles; it is only traversed for network YTD.
	ConnectedAccounts []string
}
