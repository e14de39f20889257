package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("dial tcp: refused") }

func TestCheck(t *testing.T) {
	cases := []struct {
		name     string
		checkers []Checker
		want     string
	}{
		{"all ok", []Checker{{Name: "member_store", Critical: true, Check: ok}, {Name: "redis", Check: ok}}, "ready"},
		{"optional down", []Checker{{Name: "member_store", Critical: true, Check: ok}, {Name: "redis", Check: fail}}, "degraded"},
		{"critical down", []Checker{{Name: "member_store", Critical: true, Check: fail}, {Name: "redis", Check: fail}}, "unavailable"},
		{"no checkers", nil, "ready"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := NewHealthService(Deps{Checkers: tc.checkers}).Check(context.Background())
			require.Equal(t, tc.want, resp.Status)
			require.Len(t, resp.Components, len(tc.checkers))
			for _, c := range resp.Components {
				require.NotContains(t, c.Message, "dial tcp")
			}
		})
	}
}
