package verdict

// Action is the recommended moderation action, ordered by severity
type Action int

const (
	ActionNone Action = iota
	ActionFlag
	ActionDelete
	ActionDeleteAndWarn
	ActionMute
	ActionBan
)

// String returns the wire name of the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionFlag:
		return "flag"
	case ActionDelete:
		return "delete"
	case ActionDeleteAndWarn:
		return "delete_and_warn"
	case ActionMute:
		return "mute"
	case ActionBan:
		return "ban"
	default:
		return "unknown"
	}
}

// ParseAction converts a wire name back to an Action
func ParseAction(s string) Action {
	switch s {
	case "flag":
		return ActionFlag
	case "delete":
		return ActionDelete
	case "delete_and_warn":
		return ActionDeleteAndWarn
	case "mute":
		return ActionMute
	case "ban":
		return ActionBan
	default:
		return ActionNone
	}
}

// Verdict is the outcome of scoring a single message
type Verdict struct {
	IsSpam     bool     `json:"is_spam"`
	Score      float64  `json:"score"`
	Action     Action   `json:"action"`
	Reasons    []string `json:"reasons"`
	Categories []string `json:"categories"`
}

// AddReason appends a reason and its category to the verdict
func (v *Verdict) AddReason(category, reason string) {
	v.Reasons = append(v.Reasons, reason)
	for _, c := range v.Categories {
		if c == category {
			return
		}
	}
	v.Categories = append(v.Categories, category)
}
