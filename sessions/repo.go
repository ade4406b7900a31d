package sessions

// Store persists a single session record between runs.
//
// Load fails closed: a missing, unreadable or corrupt record yields nil and
// is never reported as an error. Save replaces the record wholesale; a nil
// session erases it.
type Store interface {
	Load() *Session
	Save(session *Session) error
}
