package strategy

// State is where a pair loop currently is within an iteration.
type State int

const (
	Idle State = iota
	Polling
	Quoting
	ExecutingBuy
	ExecutingSell
	Backoff
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Polling:
		return "POLLING"
	case Quoting:
		return "QUOTING"
	case ExecutingBuy:
		return "EXECUTING_BUY"
	case ExecutingSell:
		return "EXECUTING_SELL"
	case Backoff:
		return "BACKOFF"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
