package session

import (
	"encoding/json"
	"errors"
)

// wire is the serialized session layout. Version gates future field changes;
// decoding an unknown version fails rather than guessing.
type wire struct {
	Version     int                 `json:"v"`
	ID          string              `json:"id"`
	UserID      string              `json:"user_id,omitempty"`
	CachedRole  string              `json:"cached_role,omitempty"`
	CSRFSecret  string              `json:"csrf_secret,omitempty"`
	IntendedURL string              `json:"intended_url,omitempty"`
	Flashes     map[string][]string `json:"flashes,omitempty"`
	Values      map[string][]byte   `json:"values,omitempty"`
}

const wireVersion = 1

var errWireVersion = errors.New("unsupported session wire version")

func encode(s *Session) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return json.Marshal(wire{
		Version:     wireVersion,
		ID:          s.ID,
		UserID:      s.userID,
		CachedRole:  s.cachedRole,
		CSRFSecret:  s.csrfSecret,
		IntendedURL: s.intendedURL,
		Flashes:     s.flashes,
		Values:      s.values,
	})
}

func decode(blob []byte) (*Session, error) {
	var w wire
	if err := json.Unmarshal(blob, &w); err != nil {
		return nil, err
	}
	if w.Version != wireVersion {
		return nil, errWireVersion
	}

	s := &Session{
		ID:          w.ID,
		userID:      w.UserID,
		cachedRole:  w.CachedRole,
		csrfSecret:  w.CSRFSecret,
		intendedURL: w.IntendedURL,
		flashes:     w.Flashes,
		values:      w.Values,
	}
	if s.flashes == nil {
		s.flashes = make(map[string][]string)
	}
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	return s, nil
}
