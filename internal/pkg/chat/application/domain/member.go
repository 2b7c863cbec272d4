package chat

// Member is the slice of the member directory the chat core needs.
// Members are owned by the membership service; chat only reads them.
type Member struct {
	ID    int64  `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Role  string `db:"role" json:"role"`
}
