package eventbus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMessageID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id.String(), messageID([]byte(`{"event_id":"`+id.String()+`"}`)))
	assert.Empty(t, messageID([]byte("not json")))
}

func TestDeliveryAction(t *testing.T) {
	failed := errors.New("handler failed")
	malformed := fmt.Errorf("%w on plan.completed: bad json", ErrMalformedEvent)

	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        deliveryOutcome
	}{
		{"handled", nil, false, ackDelivery},
		{"handled on redelivery", nil, true, ackDelivery},
		{"first failure is requeued", failed, false, requeueDelivery},
		{"second failure is rejected", failed, true, rejectDelivery},
		{"malformed body is rejected", malformed, false, rejectDelivery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deliveryAction(tt.err, tt.redelivered))
		})
	}
}
