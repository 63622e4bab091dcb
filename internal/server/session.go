package server

// session tracks processed action requests for one hand. A duplicate
// requestId from the same user is acknowledged with the original result and
// executes nothing, whether the original succeeded or failed. Results are
// keyed per user so one player's requestId can never replay as another's
// acknowledgement. The map is cleared at hand end, which bounds its memory
// to one hand's worth of requests.
type session struct {
	results map[sessionKey]*ActionResultData
}

type sessionKey struct {
	userID    string
	requestID string
}

func newSession() *session {
	return &session{results: make(map[sessionKey]*ActionResultData)}
}

// replay returns the user's cached result for a requestId, if any.
func (s *session) replay(userID, requestID string) (*ActionResultData, bool) {
	if requestID == "" {
		return nil, false
	}
	res, ok := s.results[sessionKey{userID: userID, requestID: requestID}]
	return res, ok
}

// remember caches the result for future duplicates. Empty requestIds are not
// tracked; retries without an id are the client's problem.
func (s *session) remember(userID, requestID string, res *ActionResultData) {
	if requestID == "" {
		return
	}
	s.results[sessionKey{userID: userID, requestID: requestID}] = res
}

// reset drops all cached results. Called when a hand ends.
func (s *session) reset() {
	s.results = make(map[sessionKey]*ActionResultData)
}
