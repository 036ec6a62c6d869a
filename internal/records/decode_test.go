package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoginSuccess(t *testing.T) {
	body := []byte(`{"status":true,"payload":{"token":{"access_token":"tok"},"user":{"id":42,"FullName":"Ada Obi","MatNo":"IAUE/19/001","Email":"ada@x.edu","DepartmentID":7,"FacultyID":"3","LevelID":4}}}`)

	res, err := ParseLogin(body)
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "42", res.User.ID)
	assert.Equal(t, "Ada Obi", res.User.Name)
	assert.Equal(t, "IAUE/19/001", res.User.MatriculationID)
	assert.Equal(t, "ada@x.edu", res.User.Email)
	assert.Equal(t, "N/A", res.User.Phone)
	assert.Equal(t, "7", res.User.DepartmentID)
	assert.Equal(t, "3", res.User.FacultyID)
	assert.Equal(t, "4", res.User.LevelID)
}

func TestParseLoginFailures(t *testing.T) {
	_, err := ParseLogin([]byte("<!DOCTYPE html><html></html>"))
	assert.ErrorIs(t, err, ErrHTMLResponse)

	_, err = ParseLogin([]byte("{not json"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseLogin([]byte(`{"status":false,"message":"bad password"}`))
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "bad password", rejected.Message)

	_, err = ParseLogin([]byte(`{"status":true}`))
	require.ErrorAs(t, err, &rejected)
	assert.Empty(t, rejected.Message)

	_, err = ParseLogin([]byte(`{"status":true,"payload":{"token":{},"user":{}}}`))
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestResolveIdentityFallbacks(t *testing.T) {
	user := map[string]json.RawMessage{
		"id":   json.RawMessage(`"S-9"`),
		"name": json.RawMessage(`"Bola"`),
	}
	id := ResolveIdentity(user)
	assert.Equal(t, "Bola", id.Name)
	assert.Equal(t, "S-9", id.MatriculationID)
	assert.Equal(t, "N/A", id.Email)

	empty := ResolveIdentity(nil)
	assert.Equal(t, "N/A", empty.Name)
	assert.Equal(t, "N/A", empty.MatriculationID)
	assert.Empty(t, empty.DepartmentID)
}

func TestParseLookup(t *testing.T) {
	name, err := ParseLookup([]byte(`{"status":true,"payload":{"DepartmentName":"Physics"}}`), "DepartmentName")
	require.NoError(t, err)
	assert.Equal(t, "Physics", name)

	_, err = ParseLookup([]byte(`{"status":false,"payload":{"DepartmentName":"Physics"}}`), "DepartmentName")
	assert.ErrorIs(t, err, ErrLookupRejected)

	_, err = ParseLookup([]byte(`{"status":true,"payload":{}}`), "DepartmentName")
	assert.ErrorIs(t, err, ErrLookupRejected)

	_, err = ParseLookup([]byte(`<html>`), "LevelName")
	assert.ErrorIs(t, err, ErrHTMLResponse)
}

func TestParseCGPA(t *testing.T) {
	cases := []struct {
		body string
		want float64
		ok   bool
	}{
		{`{"payload":{"cgpa":"3.75"}}`, 3.75, true},
		{`{"payload":{"cgpa":4.1,"GPA":2}}`, 4.1, true},
		{`{"payload":{"GPA":"CGPA: 2.90"}}`, 2.9, true},
		{`{"payload":3.2}`, 3.2, true},
		{`{"payload":"4.00"}`, 4, true},
		{`{"payload":{"cgpa":0}}`, 0, true},
		{`3.5 points`, 3.5, true},
		{`<html>oops</html>`, 0, false},
		{`{"payload":{"other":1}}`, 0, false},
		{`{"payload":null}`, 0, false},
		{`not a number`, 0, false},
		{`{"payload":"1.2.3"}`, 0, false},
		{`{"payload":"97"}`, 0, false},
	}
	for _, tc := range cases {
		v, ok := ParseCGPA([]byte(tc.body), 5)
		assert.Equal(t, tc.ok, ok, tc.body)
		if tc.ok {
			assert.InDelta(t, tc.want, v, 1e-9, tc.body)
		}
	}
}
