package fakesessionstore

import (
	"sync"

	"github.com/jrsteele09/cirota-portal/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

// FakeSessionStore is an in-memory sessions.Store that records how it was used.
type FakeSessionStore struct {
	session *sessions.Session
	saves   []*sessions.Session
	saveErr error
	lock    sync.RWMutex
}

func NewFakeSessionStore(initial *sessions.Session) *FakeSessionStore {
	return &FakeSessionStore{session: initial.Clone()}
}

func (fs *FakeSessionStore) Load() *sessions.Session {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.session.Clone()
}

func (fs *FakeSessionStore) Save(session *sessions.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.saves = append(fs.saves, session.Clone())
	if fs.saveErr != nil {
		return fs.saveErr
	}
	fs.session = session.Clone()
	return nil
}

// FailSaves makes every following Save return err without storing anything.
// A nil err restores normal behaviour.
func (fs *FakeSessionStore) FailSaves(err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.saveErr = err
}

// Stored returns the record currently held.
func (fs *FakeSessionStore) Stored() *sessions.Session {
	return fs.Load()
}

// Saves returns every record passed to Save, in order.
func (fs *FakeSessionStore) Saves() []*sessions.Session {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	saves := make([]*sessions.Session, 0, len(fs.saves))
	for _, s := range fs.saves {
		saves = append(saves, s.Clone())
	}
	return saves
}
