package resilience

import (
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"conn reset errno", syscall.ECONNRESET, true},
		{"conn refused errno", syscall.ECONNREFUSED, true},
		{"wrapped conn refused", eris.Wrap(syscall.ECONNREFUSED, "zillow: comps"), true},
		{"throttled", eris.New("zillow: unexpected status 429"), true},
		{"bad gateway", eris.New("jina: unexpected status 502"), true},
		{"io timeout text", eris.New("read tcp: i/o timeout"), true},
		{"no such host", eris.New("dial tcp: lookup api.example.com: no such host"), true},
		{"client error", eris.New("zillow: unexpected status 401"), false},
		{"not found", eris.New("zillow: unexpected status 404"), false},
		{"plain error", eris.New("parse failure"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
