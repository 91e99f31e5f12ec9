package clockdto

const (
	CodeNotFound     = "game_not_found"
	CodeBadSide      = "bad_side"
	CodeBadTime      = "bad_time_control"
	CodeIllegalMove  = "illegal_move"
	CodeOutOfTurn    = "move_out_of_turn"
	CodeNoStore      = "snapshot_store_unavailable"
	CodeStoreFailure = "snapshot_store_failure"
	CodeInternal     = "internal_error"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "clock service error"
}
