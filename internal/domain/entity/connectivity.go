package entity

// ConnectivityStatus is the reachability of the remote news source as seen by this process.
type ConnectivityStatus string

const (
	StatusOnline  ConnectivityStatus = "online"
	StatusOffline ConnectivityStatus = "offline"
)

// Online reports whether the status permits a live fetch.
func (s ConnectivityStatus) Online() bool { return s == StatusOnline }
