package identity

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewFirebaseProviderRequiresClient(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil auth client")
		}
	}()
	NewFirebaseProvider(nil)
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("%w: token expired", ErrInvalidToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatal("wrapped token error should match ErrInvalidToken")
	}
}
