package output

import (
	"github.com/temirov/abcdump/internal/services/stream"
)

type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}
