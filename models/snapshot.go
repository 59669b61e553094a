package models

// Snapshot is the complete persisted state of a ledger.
// Transactions are kept newest-inserted first.
type Snapshot struct {
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
	Categories   []Category    `json:"categories"`
}
