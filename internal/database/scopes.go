package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// LikeEscape is the escape character used by ContainsPattern.
const LikeEscape = "!"

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// OwnedBy restricts a task query to the tasks of userID.
func OwnedBy(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.user_id = ?", userID)
	}
}

// ContainsPattern builds a lower-cased LIKE pattern matching s anywhere,
// with wildcard characters in s matched literally. Use it with
// "LOWER(col) LIKE ? ESCAPE '!'".
func ContainsPattern(s string) string {
	replacer := strings.NewReplacer(
		LikeEscape, LikeEscape+LikeEscape,
		"%", LikeEscape+"%",
		"_", LikeEscape+"_",
	)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}
