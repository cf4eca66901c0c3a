package stage

import (
	"context"
	"testing"

	"github.com/flowmesh/runtime/payload"
)

type sourceOnly struct{}

func (sourceOnly) Produce(ctx context.Context) (payload.Payload, bool, error) {
	return payload.Payload{}, false, nil
}
func (sourceOnly) Close() error { return nil }

type transformOnly struct{}

func (transformOnly) Process(ctx context.Context, in payload.Payload) (payload.Payload, error) {
	return in, nil
}
func (transformOnly) Close() error { return nil }

type sinkOnly struct{}

func (sinkOnly) Consume(ctx context.Context, in payload.Payload) error { return nil }
func (sinkOnly) Close() error                                          { return nil }

type noRole struct{}

func (noRole) Close() error { return nil }

type multiRole struct{}

func (multiRole) Produce(ctx context.Context) (payload.Payload, bool, error) {
	return payload.Payload{}, false, nil
}
func (multiRole) Process(ctx context.Context, in payload.Payload) (payload.Payload, error) {
	return in, nil
}
func (multiRole) Close() error { return nil }

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		name     string
		instance Instance
		want     Role
		wantErr  bool
	}{
		{"source", sourceOnly{}, RoleSource, false},
		{"transform", transformOnly{}, RoleTransform, false},
		{"sink", sinkOnly{}, RoleSink, false},
		{"none", noRole{}, RoleUnknown, true},
		{"multi", multiRole{}, RoleUnknown, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ClassifyRole(c.instance)
			if c.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("got role %v, want %v", got, c.want)
			}
		})
	}
}

func TestWiringMatches(t *testing.T) {
	cases := []struct {
		role            Role
		hasIn, hasOut   bool
		want            bool
	}{
		{RoleSource, false, true, true},
		{RoleSource, true, true, false},
		{RoleTransform, true, true, true},
		{RoleTransform, true, false, false},
		{RoleSink, true, false, true},
		{RoleSink, false, false, false},
		{RoleUnknown, true, true, false},
	}

	for _, c := range cases {
		got := WiringMatches(c.role, c.hasIn, c.hasOut)
		if got != c.want {
			t.Errorf("WiringMatches(%v, %v, %v) = %v, want %v", c.role, c.hasIn, c.hasOut, got, c.want)
		}
	}
}

func TestRoleString(t *testing.T) {
	cases := map[Role]string{
		RoleSource:    "source",
		RoleTransform: "transform",
		RoleSink:      "sink",
		RoleUnknown:   "unknown",
	}
	for role, want := range cases {
		if got := role.String(); got != want {
			t.Errorf("Role(%d).String() = %q, want %q", role, got, want)
		}
	}
}
