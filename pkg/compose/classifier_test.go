package compose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		names []string
		auto  []string
		user  []string
	}{
		{name: "empty", names: nil, auto: []string{}, user: []string{}},
		{name: "reserved order wins", names: []string{"date", "name", "reason"}, auto: []string{"name", "date"}, user: []string{"reason"}},
		{name: "user order kept", names: []string{"z", "email", "a", "m"}, auto: []string{"email"}, user: []string{"z", "a", "m"}},
		{name: "only reserved", names: []string{"email", "date", "name"}, auto: []string{"name", "email", "date"}, user: []string{}},
		{name: "reserved names are case sensitive", names: []string{"Name", "DATE"}, auto: []string{}, user: []string{"Name", "DATE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Classify(tt.names)
			require.Equal(t, tt.auto, c.AutoFill)
			require.Equal(t, tt.user, c.UserFill)
		})
	}
}

func TestClassify_Partition(t *testing.T) {
	t.Parallel()

	inputs := [][]string{
		{"reason", "name", "days", "date", "email"},
		{"a"},
		{"name"},
	}
	for _, names := range inputs {
		c := Classify(names)
		union := append(append([]string{}, c.AutoFill...), c.UserFill...)
		require.ElementsMatch(t, names, union)
		for _, a := range c.AutoFill {
			require.NotContains(t, c.UserFill, a)
		}
	}
}

func TestAutoFill(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	b := AutoFill(Identity{Name: "Jane Doe", Email: "jane@college.edu"}, now)

	require.Equal(t, Bindings{"name": "Jane Doe", "email": "jane@college.edu", "date": "2024-05-01"}, b)
}

func TestIsReserved(t *testing.T) {
	t.Parallel()

	require.True(t, IsReserved("name"))
	require.True(t, IsReserved("email"))
	require.True(t, IsReserved("date"))
	require.False(t, IsReserved("reason"))
}
