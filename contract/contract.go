//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"
)

// Conn is the engine-side view of one duplex client channel. The transport
// owns the socket; the engine only needs an identity and a send that fails
// fast once the channel is gone.
type Conn interface {
	ID() string
	Send(text string) error
}

// CredentialRepository is the durable username -> digest store.
// UpsertIfAbsent must perform the lookup and the insert in a single
// transaction: it returns the already-stored digest when the username exists,
// otherwise it stores the supplied digest and reports inserted=true.
type CredentialRepository interface {
	UpsertIfAbsent(username, digest string) (stored string, inserted bool, err error)
	Lookup(username string) (digest string, found bool, err error)
}

// Digester turns a password into its one-way stored form and verifies a
// password against a stored form. Implementations must be deterministic in
// their verification and side-effect free.
type Digester interface {
	Digest(password string) (string, error)
	Verify(password, stored string) (bool, error)
}

// Clock supplies the authoritative server time for outbound envelopes.
// Client-sent timestamps are never trusted.
type Clock func() time.Time

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}
