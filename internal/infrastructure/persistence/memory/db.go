// Package memory implements the repositories in process memory.
// The contracts match the PostgreSQL repositories: every conditional write is
// atomic under the table mutex. Used with STORAGE=memory and in tests.
package memory

import (
	"sync"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/student"
	"github.com/schoolhub/school-hub/internal/domain/user"
)

// DB holds every in-memory table.
type DB struct {
	students *studentTable
	results  *resultTable
	users    *userTable
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{
		students: &studentTable{byID: make(map[string]*student.Student)},
		results:  &resultTable{byKey: make(map[result.Key]*result.Result)},
		users:    &userTable{byID: make(map[string]*user.User)},
	}
}

type studentTable struct {
	mu    sync.RWMutex
	byID  map[string]*student.Student
	order []string
}

type resultTable struct {
	mu    sync.RWMutex
	byKey map[result.Key]*result.Result
	order []result.Key
}

type userTable struct {
	mu   sync.RWMutex
	byID map[string]*user.User
}
