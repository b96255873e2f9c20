package counter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/store"
)

type format struct {
	prefix  string
	monthly bool
}

// One document per namespace in the counters collection.
var formats = map[string]format{
	returns.CounterNCR:        {prefix: "NCR"},
	returns.CounterReturn:     {prefix: "RT"},
	returns.CounterCollection: {prefix: "COL", monthly: true},
}

// state is the stored counter document. Yearly counters leave Month at
// zero; monthly ones reset when either period component rolls over.
type state struct {
	Year       int `json:"year"`
	Month      int `json:"month,omitempty"`
	LastNumber int `json:"lastNumber"`
}

// defaultRetries bounds aborted allocation rounds when the caller does not
// configure its own limit.
const defaultRetries = 8

// Service allocates sequential document numbers through the store's atomic
// update. Allocation never returns an error: on any failure it hands back a
// sentinel containing "ERR" and the caller aborts its own operation after
// checking returns.IsErrNumber.
type Service struct {
	store   store.Store
	logger  *zap.Logger
	retries int
	now     func() time.Time
}

func NewService(st store.Store, logger *zap.Logger) *Service {
	return NewServiceWithRetries(st, defaultRetries, logger)
}

// NewServiceWithRetries bounds how many aborted CAS rounds one allocation
// may retry before handing back the sentinel.
func NewServiceWithRetries(st store.Store, retries int, logger *zap.Logger) *Service {
	if retries < 1 {
		retries = defaultRetries
	}
	return &Service{store: st, logger: logger, retries: retries, now: time.Now}
}

// NextNumber allocates the next number in a namespace. Unknown namespaces
// get the sentinel immediately.
func (s *Service) NextNumber(ctx context.Context, namespace string) string {
	f, ok := formats[namespace]
	if !ok {
		s.logger.Error("unknown counter namespace", zap.String("namespace", namespace))
		return s.sentinel("NCR")
	}

	now := s.now()
	year, month := now.Year(), int(now.Month())

	var allocated int
	err := s.allocate(ctx, namespace, func(current json.RawMessage) (any, error) {
		var st state
		if current != nil {
			if err := json.Unmarshal(current, &st); err != nil {
				// A corrupt counter document restarts the sequence
				// rather than blocking every new document.
				s.logger.Warn("resetting corrupt counter document",
					zap.String("namespace", namespace),
					zap.Error(err))
				st = state{}
			}
		}

		if st.Year != year || (f.monthly && st.Month != month) {
			st = state{Year: year}
			if f.monthly {
				st.Month = month
			}
		}
		st.LastNumber++
		allocated = st.LastNumber
		return st, nil
	})
	if err != nil {
		s.logger.Error("counter allocation failed",
			zap.String("namespace", namespace),
			zap.Error(err))
		return s.sentinel(f.prefix)
	}

	if f.monthly {
		return fmt.Sprintf("%s-%d%02d-%04d", f.prefix, year, month, allocated)
	}
	return fmt.Sprintf("%s-%d-%04d", f.prefix, year, allocated)
}

// allocate retries the atomic update while the store keeps aborting on
// contention; any other error surfaces immediately.
func (s *Service) allocate(ctx context.Context, namespace string, fn func(json.RawMessage) (any, error)) error {
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		err = s.store.AtomicUpdate(ctx, store.CollectionCounters, namespace, fn)
		if !errors.Is(err, shared.ErrTransactionAborted) {
			return err
		}
	}
	return err
}

// Reset zeroes a counter for the current period. Administrative operation,
// gated by the authorizer at the handler.
func (s *Service) Reset(ctx context.Context, namespace string) error {
	f, ok := formats[namespace]
	if !ok {
		return fmt.Errorf("unknown counter namespace %q", namespace)
	}
	now := s.now()
	st := state{Year: now.Year()}
	if f.monthly {
		st.Month = int(now.Month())
	}
	return s.store.Set(ctx, store.CollectionCounters, namespace, st)
}

// sentinel is deliberately shaped like a document number so downstream
// displays degrade instead of crashing, but it always trips IsErrNumber.
func (s *Service) sentinel(prefix string) string {
	return fmt.Sprintf("%s-%d-ERR%02d", prefix, s.now().Year(), rand.Intn(100))
}

var _ returns.NumberSource = (*Service)(nil)
