package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueForExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name    string
		session PaymentSession
		want    bool
	}{
		{"pendente vencida", PaymentSession{Active: true, Status: SessionPending, ExpiresAt: past}, true},
		{"pendente no prazo", PaymentSession{Active: true, Status: SessionPending, ExpiresAt: future}, false},
		{"paga nunca expira", PaymentSession{Active: true, Status: SessionPaid, ExpiresAt: past}, false},
		{"cancelada fica como está", PaymentSession{Active: true, Status: SessionCancelled, ExpiresAt: past}, false},
		{"inativa não é tocada de novo", PaymentSession{Active: false, Status: SessionPending, ExpiresAt: past}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.session.DueForExpiry(now))
		})
	}
}
