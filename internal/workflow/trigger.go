package workflow

// Trigger represents an action attempted against an expense report
type Trigger string

const (
	TriggerSubmit  Trigger = "submit"
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerRevise  Trigger = "revise"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
