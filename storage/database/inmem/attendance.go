package inmemdb

import (
	"context"
	"sort"

	"github.com/ssacademy/backoffice/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) SaveRecords(_ context.Context, records []attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, r := range records {
		repo.db.attendance[attendanceKey{batchID: r.BatchID, studentID: r.StudentID, date: r.Date.String()}] = r
	}
	return nil
}

func (repo *attendanceRepository) QueryHistory(_ context.Context) ([]attendance.HistoryRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	rows := make([]attendance.HistoryRow, 0, len(repo.db.attendance))
	for _, r := range repo.db.attendance {
		st, ok := repo.db.students[r.StudentID]
		if !ok {
			continue
		}
		var batchName string
		if b, ok := repo.db.batches[r.BatchID]; ok {
			batchName = b.Name
		}
		rows = append(rows, attendance.HistoryRow{
			StudentID:   r.StudentID,
			StudentName: st.Name,
			HistoryEntry: attendance.HistoryEntry{
				Date:      r.Date,
				BatchName: batchName,
				Status:    r.Status,
				MarkedBy:  r.MarkedBy,
			},
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date.Time) {
			return rows[i].Date.Before(rows[j].Date.Time)
		}
		if rows[i].BatchName != rows[j].BatchName {
			return rows[i].BatchName < rows[j].BatchName
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	return rows, nil
}
