package events

import (
	"testing"
)

func TestParseEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantCtx string
		wantErr bool
	}{
		{
			name:    "valid",
			payload: `{"event":"activity_cancelled","activity_name":"Chess night"}`,
			wantCtx: "activity_cancelled",
		},
		{
			name:    "not json",
			payload: `this is not json`,
			wantErr: true,
		},
		{
			name:    "missing event field",
			payload: `{"activity_name":"Chess night"}`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: ``,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := parseEvent(tc.payload)

			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got event %+v", ev)
				}
				return
			}

			if err != nil {
				t.Fatalf("parseEvent error: %v", err)
			}
			if ev.Context != tc.wantCtx {
				t.Errorf("context: got %q want %q", ev.Context, tc.wantCtx)
			}
		})
	}
}
