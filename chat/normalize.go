package chat

import (
	"fmt"

	"github.com/alt-coder/pocketchat/llm"
)

// Normalize reduces a provider response to the messages appended to history.
// A single message is kept as is; multiple messages are all kept in order and the
// last one is the reply shown to the user. Messages without a role are treated as
// assistant messages; any other role, or an empty list, is malformed.
func Normalize(response llm.Response) ([]llm.Message, error) {
	switch response.Kind {
	case llm.KindSingle:
		if len(response.Messages) != 1 {
			return nil, fmt.Errorf("single response with %d messages: %w", len(response.Messages), llm.ErrMalformedResponse)
		}
	case llm.KindMultiple:
		if len(response.Messages) == 0 {
			return nil, fmt.Errorf("empty message list: %w", llm.ErrMalformedResponse)
		}
	default:
		return nil, fmt.Errorf("unknown response kind %d: %w", response.Kind, llm.ErrMalformedResponse)
	}

	replies := make([]llm.Message, len(response.Messages))
	for i, msg := range response.Messages {
		switch msg.Role {
		case llm.RoleAssistant:
		case "":
			msg.Role = llm.RoleAssistant
		default:
			return nil, fmt.Errorf("reply %d has role %q: %w", i, msg.Role, llm.ErrMalformedResponse)
		}
		replies[i] = msg
	}
	return replies, nil
}
