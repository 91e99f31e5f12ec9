package clockdto

type SignalInfo struct {
	Kind string
	Side string
}

// PressSummary describes one button press and whatever it caused.
type PressSummary struct {
	State    *SessionState
	Signals  []SignalInfo
	Accepted bool
	MoveSAN  string
	MoveUCI  string
	Finished bool
}
