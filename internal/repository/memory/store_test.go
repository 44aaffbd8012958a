package memory

import (
	"testing"

	"github.com/pratik-mahalle/parlour/internal/repository/repotest"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Store {
		return New(nil)
	})
}
