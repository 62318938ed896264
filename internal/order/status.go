package order

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusCompleted: true, StatusFailed: true},
	StatusCompleted: {},
	StatusFailed:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
