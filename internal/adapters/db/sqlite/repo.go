package sqlite

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// sortableTimeLayout keeps a fixed-width fraction so timestamp TEXT
// columns sort lexicographically in true time order.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repo provides a base for Squirrel-based repositories.
type Repo struct {
	DB *sql.DB
	SQ sq.StatementBuilderType
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, SQ: sq.StatementBuilder}
}
