package models

// Account is a user's position in the ledger. Accounts are created lazily
// with a zero balance the first time a user is referenced.
type Account struct {
	UserID  int64 `db:"user_id"`
	Balance int64 `db:"balance"`
	Wins    int64 `db:"wins"`
}

// LeaderboardEntry is a ranked row for the richest / top gamblers boards
type LeaderboardEntry struct {
	Rank   int
	UserID int64
	Value  int64
}
