package inmemdb

import (
	"sync"

	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
)

type attendanceKey struct {
	batchID, studentID int
	date               string
}

// DB is a process-local store used by tests and the TEST env.
type DB struct {
	mutex sync.RWMutex
	seq   map[string]int

	users      map[int]*user.User
	students   map[int]*student.Student
	payments   map[int][]fee.Payment // by student
	batches    map[int]*batch.Batch
	members    map[int]map[int]bool // batch -> students
	attendance map[attendanceKey]attendance.Record

	ledgerMutex sync.Mutex
	ledgerLocks map[int]*sync.Mutex // by student
}

func Open() *DB {
	return &DB{
		seq:         make(map[string]int),
		users:       make(map[int]*user.User),
		students:    make(map[int]*student.Student),
		payments:    make(map[int][]fee.Payment),
		batches:     make(map[int]*batch.Batch),
		members:     make(map[int]map[int]bool),
		attendance:  make(map[attendanceKey]attendance.Record),
		ledgerLocks: make(map[int]*sync.Mutex),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

func (db *DB) ledgerLock(studentID int) *sync.Mutex {
	db.ledgerMutex.Lock()
	defer db.ledgerMutex.Unlock()
	l, ok := db.ledgerLocks[studentID]
	if !ok {
		l = &sync.Mutex{}
		db.ledgerLocks[studentID] = l
	}
	return l
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.seq = make(map[string]int)
	db.users = make(map[int]*user.User)
	db.students = make(map[int]*student.Student)
	db.payments = make(map[int][]fee.Payment)
	db.batches = make(map[int]*batch.Batch)
	db.members = make(map[int]map[int]bool)
	db.attendance = make(map[attendanceKey]attendance.Record)
}
