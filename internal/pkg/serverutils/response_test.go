package serverutils

import (
	"errors"
	"testing"

	"sales-forecast-client/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: apperror.Validation("bad"), want: 400},
		{name: "auth expired", err: apperror.AuthExpired(), want: 401},
		{name: "unreachable", err: apperror.NetworkUnreachable(), want: 502},
		{name: "upstream 404", err: apperror.ServerRejected(404, "missing"), want: 404},
		{name: "upstream 500", err: apperror.ServerRejected(500, ""), want: 502},
		{name: "no upstream status", err: apperror.ServerRejected(0, ""), want: 502},
		{name: "foreign", err: errors.New("boom"), want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
