package session

import "student-dashboard/internal/model"

type Decision struct {
	Pending  bool
	Redirect string
}

// Gate decides what a request for route should get. Nothing but the pending
// view is rendered while the session is resolving.
func Gate(s model.Session, route string) Decision {
	switch StateOf(s) {
	case StateResolving:
		return Decision{Pending: true}
	case StateUnauthenticated:
		if route != RouteEntry {
			return Decision{Redirect: RouteEntry}
		}
	case StateAuthenticated:
		if route == RouteEntry {
			return Decision{Redirect: RouteRecords}
		}
	}
	return Decision{}
}
