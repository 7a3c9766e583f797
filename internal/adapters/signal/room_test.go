package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestedRoom(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{``, "default-room"},
		{`null`, "default-room"},
		{`""`, "default-room"},
		{`"abc"`, "abc"},
		{`"  spaced  "`, "  spaced  "},
		{`42`, "42"},
		{`true`, "true"},
		{` 7 `, "7"},
		{`0`, "default-room"},
		{`false`, "default-room"},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, requestedRoom(json.RawMessage(tc.raw), "default-room"), tc.raw)
	}
}
