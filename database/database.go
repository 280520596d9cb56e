package database

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/liaowuw/webweek8mvc/config"
)

// StatementBuilder returns a squirrel builder using the placeholder style of
// the given driver.
func StatementBuilder(driver string) sq.StatementBuilderType {
	if driver == config.DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}
