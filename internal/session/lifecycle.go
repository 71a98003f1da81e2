package session

// Persister is the storage side of the session lifecycle.
type Persister interface {
	Save(*Session) error
	Clear() error
}

// Init persists a freshly issued session.
func Init(p Persister, sess *Session) error {
	if p == nil {
		return nil
	}
	return p.Save(sess)
}

// Teardown discards any persisted session.
func Teardown(p Persister) error {
	if p == nil {
		return nil
	}
	return p.Clear()
}
