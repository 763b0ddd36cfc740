package lobby

// Session holds one connection's authentication state: the authenticated
// player username, or empty if the connection has not logged in yet.
type Session struct {
	Username string
}

func (s *Session) Authenticated() bool {
	return s.Username != ""
}
