package processor

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stripe/stripe-go/v79"

	"github.com/clubledger/billing-engine/internal/domain"
)

func TestMapError(t *testing.T) {
	g := testGateway(t, testSecret)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unauthorized means bad credentials",
			err:  &stripe.Error{HTTPStatusCode: http.StatusUnauthorized, Msg: "invalid api key"},
			want: domain.ErrProcessorConfig,
		},
		{
			name: "server error is retryable",
			err:  &stripe.Error{HTTPStatusCode: http.StatusServiceUnavailable, Msg: "try later"},
			want: domain.ErrProcessorUnavailable,
		},
		{
			name: "client rejection is not retryable",
			err:  &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Msg: "charge already refunded"},
			want: domain.ErrProcessorRejected,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: domain.ErrProcessorUnavailable,
		},
		{
			name: "transport failure",
			err:  errors.New("dial tcp: connection refused"),
			want: domain.ErrProcessorUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.mapError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("mapError(%v) = %v, want %v in chain", tt.err, got, tt.want)
			}
		})
	}
}
