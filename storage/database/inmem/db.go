// Package inmemdb implements the domain repositories in memory.
// Repositories store & return copies: callers never share state with the DB.
package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/assignment"
	"github.com/trezcool/lophoc/core/attendance"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/conversation"
	"github.com/trezcool/lophoc/core/material"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/user"
)

type (
	// DB holds one table per entity. Locks are always taken in the order of the fields
	// and writers hold at most the locks of the tables they change.
	DB struct {
		user         *table[user.User]
		class        *table[class.Class]
		member       *memberTable
		attendance   *table[attendance.Attendance]
		assignment   *table[assignment.Assignment]
		submission   *table[assignment.Submission]
		absence      *table[absence.Request]
		notification *table[notification.Notification]
		conversation *table[conversation.Conversation]
		message      *table[conversation.Message]
		material     *table[material.Material]
	}

	table[T any] struct {
		sync.RWMutex
		rows map[string]T
	}

	membership struct {
		studentID string
		joinedAt  time.Time
	}

	// memberTable maps a class ID to its students, in joining order.
	memberTable struct {
		sync.RWMutex
		rows map[string][]membership
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

// all returns the rows sorted with less. The caller must hold the lock.
func (t *table[T]) all(keep func(T) bool, less func(a, b T) bool) []T {
	res := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			res = append(res, row)
		}
	}
	if less != nil {
		sort.SliceStable(res, func(i, j int) bool { return less(res[i], res[j]) })
	}
	return res
}

func Open() (*DB, error) {
	db := &DB{
		user:         newTable[user.User](),
		class:        newTable[class.Class](),
		member:       &memberTable{rows: make(map[string][]membership)},
		attendance:   newTable[attendance.Attendance](),
		assignment:   newTable[assignment.Assignment](),
		submission:   newTable[assignment.Submission](),
		absence:      newTable[absence.Request](),
		notification: newTable[notification.Notification](),
		conversation: newTable[conversation.Conversation](),
		message:      newTable[conversation.Message](),
		material:     newTable[material.Material](),
	}
	return db, nil
}
