package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrHTMLResponse means the upstream answered with an HTML page instead of JSON.
	ErrHTMLResponse = errors.New("records: html response")
	// ErrMalformed means the body was not valid JSON.
	ErrMalformed = errors.New("records: malformed response")
	// ErrMissingToken means a successful login carried no access token.
	ErrMissingToken = errors.New("records: missing access token")
	// ErrLookupRejected means a lookup answered with status false or without a name.
	ErrLookupRejected = errors.New("records: lookup rejected")
)

// RejectedError is a login answered with status false or without a payload.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "records: login rejected"
	}
	return "records: login rejected: " + e.Message
}

// FlexString accepts a JSON string or number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Identity is the normalized user taken from a login payload.
type Identity struct {
	ID              string
	Name            string
	MatriculationID string
	Email           string
	Phone           string
	DepartmentID    string
	FacultyID       string
	LevelID         string
}

// LoginResult is a successfully decoded login.
type LoginResult struct {
	AccessToken string
	User        Identity
}

type loginEnvelope struct {
	Status  bool       `json:"status"`
	Message FlexString `json:"message"`
	Payload *struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
		User map[string]json.RawMessage `json:"user"`
	} `json:"payload"`
}

// IsHTML reports whether the body starts like a markup document.
func IsHTML(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}

// ParseLogin decodes a login body. It returns ErrHTMLResponse, ErrMalformed,
// ErrMissingToken or a *RejectedError on failure.
func ParseLogin(body []byte) (*LoginResult, error) {
	if IsHTML(body) {
		return nil, ErrHTMLResponse
	}
	var env loginEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformed
	}
	if !env.Status || env.Payload == nil {
		return nil, &RejectedError{Message: string(env.Message)}
	}
	token := strings.TrimSpace(env.Payload.Token.AccessToken)
	if token == "" {
		return nil, ErrMissingToken
	}
	return &LoginResult{AccessToken: token, User: ResolveIdentity(env.Payload.User)}, nil
}

// ResolveIdentity reads the user object, trying alternate field names.
// Display fields resolve to "N/A" when every alternative is absent.
func ResolveIdentity(user map[string]json.RawMessage) Identity {
	id := firstField(user, "id")
	return Identity{
		ID:              id,
		Name:            orNA(firstField(user, "FullName", "name")),
		MatriculationID: orNA(firstField(user, "MatNo", "id")),
		Email:           orNA(firstField(user, "Email")),
		Phone:           orNA(firstField(user, "Telephone")),
		DepartmentID:    firstField(user, "DepartmentID"),
		FacultyID:       firstField(user, "FacultyID"),
		LevelID:         firstField(user, "LevelID"),
	}
}

// ParseLookup decodes {status, payload: {<field>}} and returns the name.
func ParseLookup(body []byte, field string) (string, error) {
	if IsHTML(body) {
		return "", ErrHTMLResponse
	}
	var env struct {
		Status  bool                       `json:"status"`
		Payload map[string]json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ErrMalformed
	}
	if !env.Status {
		return "", ErrLookupRejected
	}
	name := firstField(env.Payload, field)
	if name == "" {
		return "", ErrLookupRejected
	}
	return name, nil
}

// ParseCGPA extracts a CGPA from the result body. The JSON fields payload.cgpa,
// payload.GPA and payload are tried in order; a body that is not JSON is read as
// text. Every character except digits and '.' is stripped before parsing. ok is
// false for HTML, empty, unparseable, non-finite or out of range values.
func ParseCGPA(body []byte, max float64) (value float64, ok bool) {
	if IsHTML(body) {
		return 0, false
	}

	var text string
	var doc any
	if err := json.Unmarshal(body, &doc); err == nil {
		text = cgpaCandidate(doc)
	} else {
		text = string(body)
	}

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > max {
		return 0, false
	}
	return v, true
}

func cgpaCandidate(doc any) string {
	root, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	payload, present := root["payload"]
	if !present || payload == nil {
		return ""
	}
	if obj, isObj := payload.(map[string]any); isObj {
		for _, key := range []string{"cgpa", "GPA"} {
			if v, found := obj[key]; found && v != nil {
				return scalarText(v)
			}
		}
	}
	return scalarText(payload)
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func firstField(obj map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var v FlexString
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
