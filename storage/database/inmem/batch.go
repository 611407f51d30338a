package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/ssacademy/backoffice/core/batch"
)

type batchRepository struct {
	db *DB
}

var _ batch.Repository = (*batchRepository)(nil) // interface compliance check

func NewBatchRepository(db *DB) *batchRepository {
	return &batchRepository{db: db}
}

// nameExists must be called with the lock held.
func (repo *batchRepository) nameExists(name string) bool {
	for _, b := range repo.db.batches {
		if strings.EqualFold(b.Name, name) {
			return true
		}
	}
	return false
}

func (repo *batchRepository) NameExists(_ context.Context, name string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.nameExists(name), nil
}

func (repo *batchRepository) CreateBatch(_ context.Context, b batch.Batch) (batch.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if repo.nameExists(b.Name) {
		return batch.Batch{}, batch.ErrNameExists
	}
	b.ID = repo.db.nextID("batch")
	repo.db.batches[b.ID] = &b
	return b, nil
}

func (repo *batchRepository) QueryBatches(_ context.Context) ([]batch.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	batches := make([]batch.Batch, 0, len(repo.db.batches))
	for _, b := range repo.db.batches {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].Name != batches[j].Name {
			return batches[i].Name < batches[j].Name
		}
		return batches[i].ID < batches[j].ID
	})
	return batches, nil
}

func (repo *batchRepository) GetBatch(_ context.Context, id int) (batch.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	b, ok := repo.db.batches[id]
	if !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	return *b, nil
}

func (repo *batchRepository) DeleteBatch(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if _, ok := repo.db.batches[id]; !ok {
		return batch.ErrNotFound
	}
	delete(repo.db.batches, id)
	delete(repo.db.members, id)
	for key := range repo.db.attendance {
		if key.batchID == id {
			delete(repo.db.attendance, key)
		}
	}
	return nil
}

func (repo *batchRepository) QueryMembers(_ context.Context, batchID int) ([]batch.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	members := make([]batch.Member, 0, len(repo.db.members[batchID]))
	for sid := range repo.db.members[batchID] {
		if st, ok := repo.db.students[sid]; ok {
			members = append(members, batch.Member{ID: st.ID, Name: st.Name})
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (repo *batchRepository) AddMember(_ context.Context, batchID, studentID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if _, ok := repo.db.students[studentID]; !ok {
		return batch.ErrStudentNotFound
	}
	set, ok := repo.db.members[batchID]
	if !ok {
		set = make(map[int]bool)
		repo.db.members[batchID] = set
	}
	if set[studentID] {
		return batch.ErrAlreadyMember
	}
	set[studentID] = true
	return nil
}

func (repo *batchRepository) RemoveMember(_ context.Context, batchID, studentID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if !repo.db.members[batchID][studentID] {
		return batch.ErrNotMember
	}
	delete(repo.db.members[batchID], studentID)
	return nil
}
