package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/energyatlas/pkg/httputil"
)

func ExampleRetry() {
	attempts := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts < 2 {
			return httputil.Retryable(errors.New("connection reset"))
		}
		return nil
	})
	fmt.Println("attempts:", attempts, "err:", err)
	// Output:
	// attempts: 2 err: <nil>
}
