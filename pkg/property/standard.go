package property

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Standard resource names requested from remote devices. The spellings are
// an external contract with the peer and must not change.
const (
	// ResourceAllCtrlList names the controller list property.
	ResourceAllCtrlList = "AllCtrlList"

	// ResourceProgramList names the program list property.
	ResourceProgramList = "ProgramList"
)

// Wire request IDs for the standard resources.
const (
	// RequestIDControlList tags AllCtrlList requests and replies.
	RequestIDControlList uint8 = 1

	// RequestIDProgramList tags ProgramList requests and replies.
	RequestIDProgramList uint8 = 2
)

// Package errors.
var (
	// ErrBadPayload indicates a property body that could not be parsed.
	ErrBadPayload = errors.New("malformed property payload")

	// ErrUnknownResource indicates a resource this package does not handle.
	ErrUnknownResource = errors.New("unknown property resource")
)

// RequestIDForResource maps a resource name to its wire request ID.
func RequestIDForResource(resource string) (uint8, error) {
	switch resource {
	case ResourceAllCtrlList:
		return RequestIDControlList, nil
	case ResourceProgramList:
		return RequestIDProgramList, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
}

// ResourceForRequestID maps a wire request ID back to its resource name.
func ResourceForRequestID(id uint8) (string, error) {
	switch id {
	case RequestIDControlList:
		return ResourceAllCtrlList, nil
	case RequestIDProgramList:
		return ResourceProgramList, nil
	default:
		return "", fmt.Errorf("%w: request ID %d", ErrUnknownResource, id)
	}
}

// RequestHeader builds the property exchange header for a get request:
// the JSON object {"resource":"<name>"}.
func RequestHeader(resource string) []byte {
	header, _ := json.Marshal(struct {
		Resource string `json:"resource"`
	}{Resource: resource})
	return header
}

// Control is one entry of a device's AllCtrlList property: a controller the
// device exposes, such as a control change or registered controller.
type Control struct {
	Title       string `json:"title"`
	CtrlType    string `json:"ctrlType"`
	Description string `json:"description"`
	CtrlIndex   []int  `json:"ctrlIndex"`
	Channel     int    `json:"channel"`
	Priority    int    `json:"priority"`
	Default     int    `json:"default"`
}

// Program is one entry of a device's ProgramList property: a selectable
// program with its bank select and program change numbers.
type Program struct {
	Title    string   `json:"title"`
	BankPC   [3]uint8 `json:"bankPC"`
	Category []string `json:"category"`
	Tags     []string `json:"tags"`
}

// ParseControlList decodes an AllCtrlList reply body. Both payload forms
// seen from real devices are accepted: a bare JSON array of control objects
// and the same array wrapped as {"ctrlList":[...]}. Empty input yields an
// empty list.
func ParseControlList(data []byte) ([]Control, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var direct []Control
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}
	var wrapped struct {
		CtrlList []Control `json:"ctrlList"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.CtrlList != nil {
		return wrapped.CtrlList, nil
	}
	return nil, fmt.Errorf("%w: control list", ErrBadPayload)
}

// ParseProgramList decodes a ProgramList reply body. Both payload forms are
// accepted: a bare JSON array of program objects and the same array wrapped
// as {"programList":[...]}. Empty input yields an empty list.
func ParseProgramList(data []byte) ([]Program, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var direct []Program
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}
	var wrapped struct {
		ProgramList []Program `json:"programList"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.ProgramList != nil {
		return wrapped.ProgramList, nil
	}
	return nil, fmt.Errorf("%w: program list", ErrBadPayload)
}
