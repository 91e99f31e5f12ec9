package clockdto

type NewGameRequest struct {
	Preset        string
	TimeControl   string
	Delay         string
	AllowNegative bool
	// Notation enables SAN/UCI move validation on presses.
	Notation bool
}

type PressRequest struct {
	GameUUID string
	Side     string
	Move     string
}

type ResetRequest struct {
	GameUUID    string
	Preset      string
	TimeControl string
}

type AdjustRequest struct {
	GameUUID string
	Side     string
	DeltaMs  int64
}
